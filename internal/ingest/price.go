package ingest

import (
	"path/filepath"
	"strings"

	"sentiments/internal/domain"
)

// priceColumns lists the required price columns in their canonical order.
var priceColumns = []string{"ticker", "date", "open", "close", "high", "low", "ex-dividend"}

// LoadPrices reads the price file at path and returns its rows sorted by
// (ticker, date). Files ending in ".parquet" are read as Parquet; anything
// else is read as delimited text. Any invalid field fails the whole load.
func (l *Loader) LoadPrices(path string) ([]domain.Price, error) {
	var (
		prices []domain.Price
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		prices, err = l.loadPriceParquet(path)
	} else {
		prices, err = l.loadPriceText(path)
	}
	if err != nil {
		return nil, err
	}

	sortPrices(prices)
	l.log.Info("loaded prices", "path", path, "rows", len(prices), "tickers", len(l.tickers))
	return prices, nil
}

func (l *Loader) loadPriceText(path string) ([]domain.Price, error) {
	t, err := readTable(path, delimiter(l.cfg.PriceDelimiter), false)
	if err != nil {
		return nil, err
	}
	idx, err := t.require(priceColumns...)
	if err != nil {
		return nil, err
	}

	prices := make([]domain.Price, 0, len(t.rows))
	for _, r := range t.rows {
		vals := make([]string, len(idx))
		for i, j := range idx {
			vals[i] = r.field(j)
		}
		p, err := l.priceFromFields(path, r.line, vals)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

// priceFromFields builds a Price from values ordered as priceColumns.
func (l *Loader) priceFromFields(path string, line int, vals []string) (domain.Price, error) {
	colErr := func(i int, err error) error {
		return &ColumnError{Path: path, Line: line, Column: priceColumns[i], Value: vals[i], Err: err}
	}

	if isNull(vals[0]) {
		return domain.Price{}, colErr(0, errEmptyValue)
	}
	date, err := parseDate(vals[1], l.cfg.DateFormat)
	if err != nil {
		return domain.Price{}, colErr(1, err)
	}

	var nums [5]float64
	for i := range nums {
		v, err := parseFinite(vals[i+2])
		if err != nil {
			return domain.Price{}, colErr(i+2, err)
		}
		nums[i] = v
	}

	return domain.Price{
		Ticker:     l.intern(vals[0]),
		Date:       date,
		Open:       nums[0],
		Close:      nums[1],
		High:       nums[2],
		Low:        nums[3],
		ExDividend: nums[4],
	}, nil
}

package ingest

import (
	"fmt"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"sentiments/internal/domain"
)

// PriceRow is the Parquet schema accepted for price input. Column names match
// the header of the delimited price file.
type PriceRow struct {
	Ticker     string  `parquet:"ticker"`
	Date       string  `parquet:"date"` // YYYY-MM-DD
	Open       float64 `parquet:"open"`
	Close      float64 `parquet:"close"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	ExDividend float64 `parquet:"ex-dividend"`
}

// loadPriceParquet reads price rows from a Parquet file and validates them
// with the same rules as the text format. Row numbers in errors are 1-based.
func (l *Loader) loadPriceParquet(path string) ([]domain.Price, error) {
	rows, err := parquet.ReadFile[PriceRow](path)
	if err != nil {
		return nil, fmt.Errorf("reading parquet %s: %w", path, err)
	}

	prices := make([]domain.Price, 0, len(rows))
	for i, r := range rows {
		vals := []string{
			r.Ticker,
			r.Date,
			formatFloat(r.Open),
			formatFloat(r.Close),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.ExDividend),
		}
		p, err := l.priceFromFields(path, i+1, vals)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Package merge joins the message table onto the price table.
package merge

import (
	"math"

	"sentiments/internal/domain"
)

// Columns is the output column set of a merged row, key columns first.
var Columns = []string{"ticker", "date", "tweets", "positive", "open", "close", "high", "low", "ex-dividend"}

// Result is the outcome of LeftJoin.
type Result struct {
	Rows []domain.Merged
	// Count is len(Rows), reported after the merge.
	Count int
	// Unmatched counts message rows with no price on the same (ticker, date).
	Unmatched int
	// DuplicatePrices counts price rows shadowed by a later row with the same
	// (ticker, date).
	DuplicatePrices int
}

// LeftJoin returns one merged row per message, in message order, filling the
// price columns from the price row with the same (ticker, date). When several
// price rows share a key the last one wins. Messages without a matching price
// keep NaN price columns.
func LeftJoin(messages []domain.Message, prices []domain.Price) Result {
	byKey := make(map[domain.Key]domain.Price, len(prices))
	dupes := 0
	for _, p := range prices {
		k := p.Key()
		if _, ok := byKey[k]; ok {
			dupes++
		}
		byKey[k] = p
	}

	nan := math.NaN()
	rows := make([]domain.Merged, 0, len(messages))
	unmatched := 0
	for _, m := range messages {
		row := domain.Merged{
			Ticker:     m.Ticker,
			Date:       m.Date,
			Tweets:     m.Tweets,
			Positive:   m.Positive,
			Open:       nan,
			Close:      nan,
			High:       nan,
			Low:        nan,
			ExDividend: nan,
		}
		if p, ok := byKey[m.Key()]; ok {
			row.Open = p.Open
			row.Close = p.Close
			row.High = p.High
			row.Low = p.Low
			row.ExDividend = p.ExDividend
		} else {
			unmatched++
		}
		rows = append(rows, row)
	}

	return Result{
		Rows:            rows,
		Count:           len(rows),
		Unmatched:       unmatched,
		DuplicatePrices: dupes,
	}
}

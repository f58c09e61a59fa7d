// Package store persists the merged fact table and answers read queries
// against it.
package store

import (
	"context"
	"time"

	"sentiments/internal/domain"
)

// TableName is the single output table.
const TableName = "sms_price_merge"

// MergeWriter replaces the stored fact table.
type MergeWriter interface {
	// ReplaceTable drops any existing table and writes rows in its place.
	ReplaceTable(ctx context.Context, rows []domain.Merged) error
}

// MergeReader answers queries against the stored fact table. Results are
// ordered by (ticker, date).
type MergeReader interface {
	// QueryByDate returns every row stored for the given day.
	QueryByDate(ctx context.Context, date time.Time) ([]domain.Merged, error)

	// QueryByTickerRange returns the rows for ticker whose date falls within
	// [start, end].
	QueryByTickerRange(ctx context.Context, ticker string, start, end time.Time) ([]domain.Merged, error)

	// Count returns the number of rows in the whole table.
	Count(ctx context.Context) (int, error)
}

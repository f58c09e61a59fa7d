// Package pipeline runs the rebuild: load prices and messages, merge them,
// and replace the stored fact table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"sentiments/internal/config"
	"sentiments/internal/ingest"
	"sentiments/internal/merge"
	"sentiments/internal/store"
)

// Summary reports what a rebuild produced.
type Summary struct {
	RunID           string
	StorePath       string
	Count           int
	Prices          int
	Messages        ingest.MessageStats
	Unmatched       int
	DuplicatePrices int
}

// Rebuild loads the price file and the message directory, left-joins them,
// and replaces the store at cfg.Storage.SQLitePath with the result. Parse
// errors abort before the store is touched.
func Rebuild(ctx context.Context, cfg config.Config, priceFile, messageDir string, log *slog.Logger) (Summary, error) {
	runID := uuid.NewString()
	log = log.With("run_id", runID)
	log.Info("begin rebuild", "price_data", priceFile, "sms_data_dir", messageDir)

	loader := ingest.NewLoader(cfg.Ingest, log)

	prices, err := loader.LoadPrices(priceFile)
	if err != nil {
		return Summary{}, fmt.Errorf("loading prices: %w", err)
	}

	messages, stats, err := loader.LoadMessages(ctx, messageDir)
	if err != nil {
		return Summary{}, fmt.Errorf("loading messages: %w", err)
	}
	log.Info("loaded messages", "files", stats.Files, "rows", stats.Rows, "dropped", stats.Dropped)

	log.Info("start merge")
	res := merge.LeftJoin(messages, prices)
	if res.DuplicatePrices > 0 {
		log.Warn("duplicate price rows; last row per (ticker, date) kept", "duplicates", res.DuplicatePrices)
	}
	log.Info("finish merge", "rows", res.Count, "unmatched", res.Unmatched)

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	log.Info("start write", "path", cfg.Storage.SQLitePath, "table", store.TableName)
	s, err := store.Rebuild(ctx, cfg.Storage.SQLitePath, res.Rows)
	if err != nil {
		return Summary{}, fmt.Errorf("writing store: %w", err)
	}
	if err := s.Close(); err != nil {
		return Summary{}, fmt.Errorf("closing store: %w", err)
	}
	log.Info("finish write", "path", cfg.Storage.SQLitePath)

	return Summary{
		RunID:           runID,
		StorePath:       cfg.Storage.SQLitePath,
		Count:           res.Count,
		Prices:          len(prices),
		Messages:        stats,
		Unmatched:       res.Unmatched,
		DuplicatePrices: res.DuplicatePrices,
	}, nil
}

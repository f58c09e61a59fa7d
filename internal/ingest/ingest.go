// Package ingest parses the raw price file and the directory of per-ticker
// message files into typed, sorted record slices.
package ingest

import (
	"log/slog"
	"sort"

	"sentiments/internal/config"
	"sentiments/internal/domain"
)

// Loader reads and normalizes input files according to an ingest
// configuration.
type Loader struct {
	cfg      config.Ingest
	log      *slog.Logger
	repairer *Repairer
	tickers  map[string]string
}

// NewLoader creates a Loader. The configuration is copied and never mutated.
func NewLoader(cfg config.Ingest, log *slog.Logger) *Loader {
	return &Loader{
		cfg:      cfg,
		log:      log,
		repairer: NewRepairer(cfg),
		tickers:  make(map[string]string),
	}
}

// intern returns a canonical copy of a ticker so that every row referencing
// the same ticker shares one string.
func (l *Loader) intern(s string) string {
	if c, ok := l.tickers[s]; ok {
		return c
	}
	l.tickers[s] = s
	return s
}

func delimiter(s string) rune {
	for _, r := range s {
		return r
	}
	return ','
}

func sortPrices(prices []domain.Price) {
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Key().Less(prices[j].Key())
	})
}

func sortMessages(msgs []domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Key().Less(msgs[j].Key())
	})
}

package ingest

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"sentiments/internal/domain"
)

// MessageStats summarises a LoadMessages run.
type MessageStats struct {
	Files   int // files read
	Rows    int // rows kept
	Dropped int // rows dropped for a null tweets field
}

// LoadMessages walks dir, repairs and parses every file with the configured
// extension, and returns all kept rows sorted by (ticker, date). Files are
// visited like a top-down directory walk: the files of a directory in name
// order, then each subdirectory in name order. Rows whose tweets field is
// null are dropped, including rows too short to reach the tweets column. The
// first invalid file aborts the load; files repaired before it stay repaired.
func (l *Loader) LoadMessages(ctx context.Context, dir string) ([]domain.Message, MessageStats, error) {
	var stats MessageStats

	files, err := walkFiles(dir, l.cfg.MessageExt)
	if err != nil {
		return nil, stats, err
	}

	var msgs []domain.Message
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		l.log.Info("start cleaning", "path", path)
		changed, err := l.repairer.RepairFile(path)
		if err != nil {
			return nil, stats, err
		}
		l.log.Info("finish cleaning", "path", path, "lines_changed", changed)

		l.log.Info("start reading", "path", path)
		rows, dropped, err := l.loadMessageFile(path)
		if err != nil {
			return nil, stats, err
		}
		l.log.Info("finish reading", "path", path, "rows", len(rows), "dropped", dropped)

		msgs = append(msgs, rows...)
		stats.Files++
		stats.Dropped += dropped
	}

	sortMessages(msgs)
	stats.Rows = len(msgs)
	return msgs, stats, nil
}

// loadMessageFile parses a single repaired message file. It returns the kept
// rows and the number of rows dropped for a null tweets field.
func (l *Loader) loadMessageFile(path string) ([]domain.Message, int, error) {
	t, err := readTable(path, delimiter(l.cfg.MessageDelimiter), true)
	if err != nil {
		return nil, 0, err
	}
	idx, err := t.require("date", "ticker")
	if err != nil {
		return nil, 0, err
	}
	dateCol, tickerCol := idx[0], idx[1]
	tweetsCol := t.optional("tweets")
	positiveCol := t.optional("positive")

	layout := ""
	for _, r := range t.rows {
		if v := r.field(dateCol); !isNull(v) {
			layout, err = detectLayout(v, l.cfg.DateFormat, l.cfg.AltDateFormat)
			if err != nil {
				return nil, 0, fmt.Errorf("%s:%d: %w", path, r.line, err)
			}
			break
		}
	}
	if layout != "" {
		l.log.Debug("detected date layout", "path", path, "layout", layout)
	}

	var (
		msgs    []domain.Message
		dropped int
	)
	for _, r := range t.rows {
		rawTweets := r.field(tweetsCol)
		if isNull(rawTweets) {
			dropped++
			continue
		}
		colErr := func(col, val string, err error) error {
			return &ColumnError{Path: path, Line: r.line, Column: col, Value: val, Err: err}
		}

		ticker := r.field(tickerCol)
		if isNull(ticker) {
			return nil, 0, colErr("ticker", ticker, errEmptyValue)
		}
		rawDate := r.field(dateCol)
		if layout == "" || isNull(rawDate) {
			return nil, 0, colErr("date", rawDate, errEmptyValue)
		}
		date, err := parseDate(rawDate, layout)
		if err != nil {
			return nil, 0, colErr("date", rawDate, err)
		}
		tweets, err := parseCount(rawTweets)
		if err != nil {
			return nil, 0, colErr("tweets", rawTweets, err)
		}
		positive := math.NaN()
		if raw := r.field(positiveCol); !isNull(raw) {
			positive, err = parseFinite(raw)
			if err != nil {
				return nil, 0, colErr("positive", raw, err)
			}
		}

		msgs = append(msgs, domain.Message{
			Ticker:   l.intern(ticker),
			Date:     date,
			Tweets:   tweets,
			Positive: positive,
		})
	}
	return msgs, dropped, nil
}

// walkFiles returns every regular file under dir whose name ends in ext.
func walkFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files, subdirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			subdirs = append(subdirs, path)
		case e.Type().IsRegular() && strings.HasSuffix(e.Name(), ext):
			files = append(files, path)
		}
	}

	for _, sub := range subdirs {
		nested, err := walkFiles(sub, ext)
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	return files, nil
}

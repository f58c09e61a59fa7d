package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sentiments/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ MergeWriter = (*SQLiteStore)(nil)
var _ MergeReader = (*SQLiteStore)(nil)

// ErrStoreNotFound is returned by OpenReadOnly when no store file exists.
var ErrStoreNotFound = errors.New("store not found; run a rebuild first")

// SQLiteStore implements MergeWriter and MergeReader backed by a SQLite
// database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns
// a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return open(dbPath, fileDSN(dbPath, ""))
}

// OpenReadOnly opens an existing store for queries. It never creates a file.
func OpenReadOnly(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, dbPath)
		}
		return nil, err
	}
	return open(dbPath, fileDSN(dbPath, "mode=ro"))
}

// dsnEscaper percent-encodes the characters that would otherwise start URI
// syntax inside a file path.
var dsnEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// fileDSN builds a SQLite URI filename for dbPath with an optional query.
func fileDSN(dbPath, query string) string {
	dsn := "file:" + dsnEscaper.Replace(dbPath)
	if query != "" {
		dsn += "?" + query
	}
	return dsn
}

func open(dbPath, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Rebuild deletes any existing store file at dbPath, creates a fresh one, and
// writes rows into it. The old file is gone before the new one is populated,
// so a failed rebuild can leave no table at all. The returned store is open
// for further queries and must be closed by the caller.
func Rebuild(ctx context.Context, dbPath string, rows []domain.Merged) (*SQLiteStore, error) {
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing %s: %w", dbPath+suffix, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.ReplaceTable(ctx, rows); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// MergeWriter implementation
// ---------------------------------------------------------------------------

const createTable = `CREATE TABLE ` + TableName + ` (
	ticker        TEXT NOT NULL,
	date          TEXT NOT NULL,
	tweets        INTEGER NOT NULL,
	positive      REAL,
	open          REAL,
	close         REAL,
	high          REAL,
	low           REAL,
	"ex-dividend" REAL
)`

const insertRow = `INSERT INTO ` + TableName + `
	(ticker, date, tweets, positive, open, close, high, low, "ex-dividend")
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ReplaceTable drops and recreates the output table and inserts rows inside a
// single transaction.
func (s *SQLiteStore) ReplaceTable(ctx context.Context, rows []domain.Merged) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS ` + TableName,
		createTable,
		`CREATE INDEX idx_` + TableName + `_ticker_date ON ` + TableName + ` (ticker, date)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating %s: %w", TableName, err)
		}
	}

	ins, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	for _, r := range rows {
		if _, err := ins.ExecContext(ctx,
			r.Ticker,
			domain.FormatDate(r.Date),
			r.Tweets,
			nullable(r.Positive),
			nullable(r.Open),
			nullable(r.Close),
			nullable(r.High),
			nullable(r.Low),
			nullable(r.ExDividend),
		); err != nil {
			return fmt.Errorf("inserting %s %s: %w", r.Ticker, domain.FormatDate(r.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", TableName, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// MergeReader implementation
// ---------------------------------------------------------------------------

const selectRows = `SELECT ticker, date, tweets, positive, open, close, high, low, "ex-dividend"
	FROM ` + TableName

// QueryByDate returns every row stored for the given day.
func (s *SQLiteStore) QueryByDate(ctx context.Context, date time.Time) ([]domain.Merged, error) {
	return s.query(ctx, selectRows+` WHERE date = ? ORDER BY ticker, date`, domain.FormatDate(date))
}

// QueryByTickerRange returns the rows for ticker whose date falls within
// [start, end]. Dates are stored as YYYY-MM-DD text, so the comparison is
// chronological.
func (s *SQLiteStore) QueryByTickerRange(ctx context.Context, ticker string, start, end time.Time) ([]domain.Merged, error) {
	return s.query(ctx, selectRows+` WHERE ticker = ? AND date >= ? AND date <= ? ORDER BY ticker, date`,
		ticker, domain.FormatDate(start), domain.FormatDate(end))
}

// Count returns the number of rows in the whole table.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", TableName, err)
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.Merged, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", TableName, err)
	}
	defer rows.Close()

	var out []domain.Merged
	for rows.Next() {
		var (
			m                                     domain.Merged
			date                                  string
			positive, open, cls, high, low, exDiv sql.NullFloat64
		)
		if err := rows.Scan(&m.Ticker, &date, &m.Tweets, &positive, &open, &cls, &high, &low, &exDiv); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", TableName, err)
		}
		d, err := parseStoredDate(date)
		if err != nil {
			return nil, err
		}
		m.Date = d
		m.Positive = orNaN(positive)
		m.Open = orNaN(open)
		m.Close = orNaN(cls)
		m.High = orNaN(high)
		m.Low = orNaN(low)
		m.ExDividend = orNaN(exDiv)
		out = append(out, m)
	}
	return out, rows.Err()
}

func parseStoredDate(s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date %q: %w", s, err)
	}
	return d, nil
}

// nullable maps NaN to SQL NULL.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

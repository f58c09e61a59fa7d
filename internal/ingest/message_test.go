package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadMessages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "date,ticker,positive,tweets\n2020-01-03,AAPL,0.6,20\n2020-01-02,AAPL,0.8,12\n")
	// Compact dates, a different column order, and an extra column.
	writeFile(t, dir, "MSFT.csv", "ticker, tweets, daet, positive, source\nMSFT, 5, 20200102, 0.1, st\nMSFT, , 20200103, 0.2, st\n")
	// Ignored: wrong extension.
	writeFile(t, dir, "notes.txt", "not,a,message,file\n")

	msgs, stats, err := newTestLoader().LoadMessages(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}

	if stats.Files != 2 {
		t.Errorf("stats.Files = %d, want 2", stats.Files)
	}
	if stats.Rows != 3 || len(msgs) != 3 {
		t.Errorf("rows = %d (stats %d), want 3", len(msgs), stats.Rows)
	}
	if stats.Dropped != 1 {
		t.Errorf("stats.Dropped = %d, want 1", stats.Dropped)
	}

	want := []struct {
		ticker   string
		date     time.Time
		tweets   int32
		positive float64
	}{
		{"AAPL", day(2020, 1, 2), 12, 0.8},
		{"AAPL", day(2020, 1, 3), 20, 0.6},
		{"MSFT", day(2020, 1, 2), 5, 0.1},
	}
	for i, w := range want {
		m := msgs[i]
		if m.Ticker != w.ticker || !m.Date.Equal(w.date) || m.Tweets != w.tweets || m.Positive != w.positive {
			t.Errorf("msgs[%d] = %+v, want %+v", i, m, w)
		}
	}

	repaired, err := os.ReadFile(filepath.Join(dir, "MSFT.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(repaired[:len("ticker, tweets, date")]); got != "ticker, tweets, date" {
		t.Errorf("header not repaired on disk: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "MSFT.csv.bak")); err != nil {
		t.Errorf("backup missing: %v", err)
	}
}

func TestLoadMessagesDropsNullTweets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,ticker,positive,tweets\n"+
		"2020-01-02,AAPL,0.8,\n"+
		"2020-01-03,AAPL,0.8,NaN\n"+
		"2020-01-04,AAPL,0.8,NA\n"+
		"2020-01-05,AAPL,0.8,3\n")
	// No tweets column at all: every row is null.
	writeFile(t, dir, "b.csv", "date,ticker,positive\n2020-01-02,GOOG,0.5\n")

	msgs, stats, err := newTestLoader().LoadMessages(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("kept %d rows, want 1", len(msgs))
	}
	if stats.Dropped != 4 {
		t.Errorf("stats.Dropped = %d, want 4", stats.Dropped)
	}
	if msgs[0].Tweets != 3 {
		t.Errorf("kept row = %+v", msgs[0])
	}
}

func TestLoadMessagesShortRowDropped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "date,ticker,positive,tweets\n"+
		"2020-01-02,AAPL,0.8,12\n"+
		"2020-01-03,AAPL,0.4\n")

	msgs, stats, err := newTestLoader().LoadMessages(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Tweets != 12 {
		t.Fatalf("kept rows = %+v, want the 2020-01-02 row only", msgs)
	}
	if stats.Dropped != 1 {
		t.Errorf("stats.Dropped = %d, want 1", stats.Dropped)
	}
}

func TestLoadMessagesFractionalTweets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,ticker,positive,tweets\n2020-01-02,AAPL,0.8,12.5\n")

	msgs, _, err := newTestLoader().LoadMessages(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if msgs[0].Tweets != 12 {
		t.Errorf("Tweets = %d, want 12", msgs[0].Tweets)
	}
}

func TestLoadMessagesNullPositive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,ticker,positive,tweets\n2020-01-02,AAPL,,4\n")

	msgs, _, err := newTestLoader().LoadMessages(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if !math.IsNaN(msgs[0].Positive) {
		t.Errorf("Positive = %v, want NaN", msgs[0].Positive)
	}
}

func TestLoadMessagesQuotedThousands(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,ticker,positive,tweets\n2020-01-02,AAPL,0.25,\"12,345\"\n")

	msgs, _, err := newTestLoader().LoadMessages(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if msgs[0].Tweets != 12345 {
		t.Errorf("Tweets = %d, want 12345", msgs[0].Tweets)
	}
}

func TestLoadMessagesWalkOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "date,ticker,positive,tweets\n")
	writeFile(t, dir, "a.csv", "date,ticker,positive,tweets\n")
	writeFile(t, dir, "0sub/c.csv", "date,ticker,positive,tweets\n")
	writeFile(t, dir, "z.csv.bak", "junk\n")

	files, err := walkFiles(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "0sub", "c.csv"),
	}
	if len(files) != len(want) {
		t.Fatalf("walkFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestLoadMessagesDateDrift(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,ticker,positive,tweets\n20200102,AAPL,0.8,1\n2020-01-03,AAPL,0.8,1\n")

	_, _, err := newTestLoader().LoadMessages(context.Background(), dir)
	var ce *ColumnError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ColumnError", err)
	}
	if ce.Column != "date" || ce.Line != 3 {
		t.Errorf("ColumnError = %+v, want date on line 3", ce)
	}
}

func TestLoadMessagesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{
			name:    "unknown date format",
			content: "date,ticker,positive,tweets\n01/02/2020,AAPL,0.8,1\n",
			check:   func(err error) bool { return errors.Is(err, ErrUnknownDateFormat) },
		},
		{
			name:    "non-numeric tweets",
			content: "date,ticker,positive,tweets\n2020-01-02,AAPL,0.8,many\n",
			check: func(err error) bool {
				var ce *ColumnError
				return errors.As(err, &ce) && ce.Column == "tweets"
			},
		},
		{
			name:    "non-numeric positive",
			content: "date,ticker,positive,tweets\n2020-01-02,AAPL,high,1\n",
			check: func(err error) bool {
				var ce *ColumnError
				return errors.As(err, &ce) && ce.Column == "positive"
			},
		},
		{
			name:    "row longer than header",
			content: "date,ticker,positive,tweets\n2020-01-02,AAPL,0.8,1,extra\n",
			check:   func(err error) bool { return errors.Is(err, csv.ErrFieldCount) },
		},
		{
			name:    "missing ticker column",
			content: "date,positive,tweets\n2020-01-02,0.8,1\n",
			check:   func(err error) bool { return errors.Is(err, ErrMissingColumn) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "a.csv", tt.content)
			_, _, err := newTestLoader().LoadMessages(context.Background(), dir)
			if err == nil || !tt.check(err) {
				t.Errorf("LoadMessages error = %v", err)
			}
		})
	}
}

func TestLoadMessagesCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,ticker,positive,tweets\n2020-01-02,AAPL,0.8,1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := newTestLoader().LoadMessages(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestLoadMessagesMissingDir(t *testing.T) {
	_, _, err := newTestLoader().LoadMessages(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("LoadMessages should fail for a missing directory")
	}
}

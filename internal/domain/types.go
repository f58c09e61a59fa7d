// Package domain defines the record types shared by the ingest, merge, store,
// and query packages.
package domain

import (
	"math"
	"time"
)

// DateLayout is the canonical calendar-date layout used on disk and in the
// store.
const DateLayout = "2006-01-02"

// Key identifies a row by ticker and trading date.
type Key struct {
	Ticker string
	Date   time.Time
}

// Less orders keys by ticker, then date.
func (k Key) Less(o Key) bool {
	if k.Ticker != o.Ticker {
		return k.Ticker < o.Ticker
	}
	return k.Date.Before(o.Date)
}

// Price is one row of the daily price series.
type Price struct {
	Ticker     string
	Date       time.Time
	Open       float64
	Close      float64
	High       float64
	Low        float64
	ExDividend float64
}

// Key returns the (ticker, date) key of the price row.
func (p Price) Key() Key { return Key{Ticker: p.Ticker, Date: p.Date} }

// Message is one row of aggregated social-message activity for a ticker on a
// given day. Positive is NaN when the source left it empty.
type Message struct {
	Ticker   string
	Date     time.Time
	Tweets   int32
	Positive float64
}

// Key returns the (ticker, date) key of the message row.
func (m Message) Key() Key { return Key{Ticker: m.Ticker, Date: m.Date} }

// Merged is one row of the denormalized fact table. Float fields are NaN when
// the value is null, which is always the case for the price columns of a
// message row without a matching price.
type Merged struct {
	Ticker     string
	Date       time.Time
	Tweets     int32
	Positive   float64
	Open       float64
	Close      float64
	High       float64
	Low        float64
	ExDividend float64
}

// HasPrice reports whether the row was matched to a price record.
func (m Merged) HasPrice() bool {
	return !math.IsNaN(m.Open)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t using DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

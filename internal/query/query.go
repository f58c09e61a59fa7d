// Package query parses the two supported query shapes and renders their
// results.
package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sentiments/internal/domain"
)

// ErrBadQuery is returned for a query string that does not have the expected
// shape.
var ErrBadQuery = errors.New("invalid query")

// Range selects one ticker over an inclusive date range.
type Range struct {
	Ticker string
	Start  time.Time
	End    time.Time
}

func (r Range) String() string {
	return r.Ticker + ":" + domain.FormatDate(r.Start) + ":" + domain.FormatDate(r.End)
}

// ParseDate parses a single-day query of the form YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrBadQuery, s)
	}
	return d, nil
}

// ParseRange parses a range query of the form TICKER:YYYY-MM-DD:YYYY-MM-DD.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Range{}, fmt.Errorf("%w: %q must be TICKER:YYYY-MM-DD:YYYY-MM-DD", ErrBadQuery, s)
	}
	if parts[0] == "" {
		return Range{}, fmt.Errorf("%w: %q has an empty ticker", ErrBadQuery, s)
	}
	start, err := ParseDate(parts[1])
	if err != nil {
		return Range{}, err
	}
	end, err := ParseDate(parts[2])
	if err != nil {
		return Range{}, err
	}
	if end.Before(start) {
		return Range{}, fmt.Errorf("%w: end %s is before start %s", ErrBadQuery, parts[2], parts[1])
	}
	return Range{Ticker: parts[0], Start: start, End: end}, nil
}

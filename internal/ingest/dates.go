package ingest

import (
	"fmt"
	"strings"
	"time"

	"sentiments/internal/domain"
)

// parseDate parses s with layout and returns midnight UTC of that day.
func parseDate(s, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return domain.Day(t), nil
}

// detectLayout picks the date layout for a whole file from a sample value.
// The primary layout wins unless it fails to parse; a sample that parses
// under both layouts to different days is rejected rather than guessed.
func detectLayout(sample, primary, alt string) (string, error) {
	p, perr := parseDate(sample, primary)
	a, aerr := parseDate(sample, alt)
	switch {
	case perr == nil && aerr == nil && !p.Equal(a):
		return "", fmt.Errorf("%w: %q", ErrAmbiguousDateFormat, sample)
	case perr == nil:
		return primary, nil
	case aerr == nil:
		return alt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDateFormat, sample)
	}
}

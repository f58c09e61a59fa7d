package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a required column is absent from a
	// file's header.
	ErrMissingColumn = errors.New("missing required column")

	// ErrUnknownDateFormat is returned when the first record of a message file
	// matches neither the primary nor the alternate date layout.
	ErrUnknownDateFormat = errors.New("date matches no supported format")

	// ErrAmbiguousDateFormat is returned when the first record of a message
	// file parses under both layouts to different dates.
	ErrAmbiguousDateFormat = errors.New("date is ambiguous between supported formats")

	errEmptyValue = errors.New("empty value")
	errNotFinite  = errors.New("not a finite number")
	errOutOfRange = errors.New("count out of range")
)

// ColumnError describes a single invalid field. Line is the 1-based line
// number in a text file, or the 1-based row number in a Parquet file.
type ColumnError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s:%d: column %q: invalid value %q: %v", e.Path, e.Line, e.Column, e.Value, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

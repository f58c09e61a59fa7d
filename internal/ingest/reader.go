package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// nullTokens are field values treated as missing, in addition to the empty
// string.
var nullTokens = map[string]struct{}{
	"na": {}, "n/a": {}, "nan": {}, "-nan": {}, "null": {}, "none": {},
	"#n/a": {}, "<na>": {},
}

// isNull reports whether a raw field value denotes a missing value.
func isNull(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, ok := nullTokens[strings.ToLower(s)]
	return ok
}

// row is one data record together with the line it started on.
type row struct {
	line   int
	fields []string
}

// table is a delimited text file read fully into memory.
type table struct {
	path    string
	columns map[string]int
	rows    []row
}

// readTable reads a delimited text file with a header row. Leading whitespace
// in every field is dropped and header names are trimmed. A record may never
// have more fields than the header; with allowShort, a record with fewer
// fields is kept and its missing trailing fields read as empty.
func readTable(path string, delim rune, allowShort bool) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %s: empty file", path)
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	t := &table{path: path, columns: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		if len(rec) > len(header) || (!allowShort && len(rec) < len(header)) {
			return nil, fmt.Errorf("reading %s: record on line %d: %w", path, line, csv.ErrFieldCount)
		}
		t.rows = append(t.rows, row{line: line, fields: rec})
	}
	return t, nil
}

// require returns the field indexes of the named columns, in order.
func (t *table) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := t.columns[n]
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", t.path, ErrMissingColumn, n)
		}
		idx[i] = j
	}
	return idx, nil
}

// optional returns the field index of the named column, or -1.
func (t *table) optional(name string) int {
	if j, ok := t.columns[name]; ok {
		return j
	}
	return -1
}

// field returns the trimmed value at idx, or "" for idx < 0.
func (r row) field(idx int) string {
	if idx < 0 || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

// parseFinite parses a float64 and rejects NaN and infinities.
func parseFinite(s string) (float64, error) {
	if s == "" {
		return 0, errEmptyValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// parseCount parses a 32-bit count. A fractional value such as "12.5" is
// truncated toward zero.
func parseCount(s string) (int32, error) {
	if s == "" {
		return 0, errEmptyValue
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(n), nil
	}
	v, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	v = math.Trunc(v)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, errOutOfRange
	}
	return int32(v), nil
}

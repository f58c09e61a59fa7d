package query

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"sentiments/internal/domain"
	"sentiments/internal/merge"
)

// FormatFloat formats a value with the shortest exact representation, or
// "NaN" for a null.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render writes rows as a right-aligned table with a leading row index. Every
// row and column is printed.
func Render(w io.Writer, rows []domain.Merged) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "Empty result\nColumns: [%s]\nIndex: []\n", strings.Join(merge.Columns, ", "))
		return err
	}

	cells := make([][]string, 0, len(rows))
	for i, r := range rows {
		cells = append(cells, []string{
			strconv.Itoa(i),
			r.Ticker,
			domain.FormatDate(r.Date),
			strconv.Itoa(int(r.Tweets)),
			FormatFloat(r.Positive),
			FormatFloat(r.Open),
			FormatFloat(r.Close),
			FormatFloat(r.High),
			FormatFloat(r.Low),
			FormatFloat(r.ExDividend),
		})
	}
	return writeTable(w, append([]string{""}, merge.Columns...), cells)
}

// RenderCount writes the whole-table row count.
func RenderCount(w io.Writer, n int) error {
	return writeTable(w, []string{"", "COUNT(*)"}, [][]string{{"0", strconv.Itoa(n)}})
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	writeLine := func(cells []string) {
		for _, c := range cells {
			fmt.Fprint(tw, c, "\t")
		}
		fmt.Fprint(tw, "\n")
	}
	writeLine(header)
	for _, r := range rows {
		writeLine(r)
	}
	return tw.Flush()
}

// Package tabular holds the rows-by-named-columns dataset shape handed to the
// normalizer. Upstream file readers (encoding detection, Excel conversion)
// produce this; the pipeline never touches raw files beyond the CSV glue here.
package tabular

import "strings"

// Table is a parsed tabular dataset: one header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Index returns the position of the given header, matched case-insensitively
// after trimming, or -1 when absent.
func (t Table) Index(header string) int {
	want := strings.ToLower(strings.TrimSpace(header))
	for i, h := range t.Headers {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at (row, col), or "" when the row is shorter
// than col or col is negative.
func (t Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

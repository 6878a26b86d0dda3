package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/boshu2/taskguard/internal/finding"
)

// Table lays out report rows in aligned columns under a dashed header rule.
// Rows are buffered until Render; a table without rows writes nothing.
type Table struct {
	out      io.Writer
	headers  []string
	maxWidth map[int]int // column index -> max runes
	rows     [][]string
}

// NewTable creates a table that writes to w with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{out: w, headers: headers, maxWidth: make(map[int]int)}
}

// SetMaxWidth caps column col at width runes. Longer values are shortened
// with finding.Truncate.
func (t *Table) SetMaxWidth(col, width int) *Table {
	t.maxWidth[col] = width
	return t
}

// AddRow buffers a row. Values past the last header are dropped and missing
// ones are left empty.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	for i := 0; i < len(row) && i < len(values); i++ {
		row[i] = t.fit(i, values[i])
	}
	t.rows = append(t.rows, row)
}

// Render writes the header, its rule and every buffered row.
func (t *Table) Render() error {
	if len(t.rows) == 0 {
		return nil
	}

	rule := make([]string, len(t.headers))
	for i, h := range t.headers {
		rule[i] = strings.Repeat("-", utf8.RuneCountInString(h))
	}

	tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	for _, row := range append([][]string{t.headers, rule}, t.rows...) {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// fit flattens a value and applies the column cap.
func (t *Table) fit(col int, s string) string {
	s = flatten(s)
	if max, ok := t.maxWidth[col]; ok {
		return finding.Truncate(s, max)
	}
	return s
}

// flatten puts a value on one line so it cannot break a row.
func flatten(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}

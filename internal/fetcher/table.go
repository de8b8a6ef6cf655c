// Package fetcher reads and writes the flat tabular files the pipeline
// exchanges with its collaborators: delimited text and tracker workbooks.
// Everything is header-addressed because the upstream curators reorder and
// rename columns between vintages.
package fetcher

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is an in-memory tabular file with header-based column access.
type Table struct {
	Header []string
	Rows   [][]string
	cols   map[string]int
}

func newTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows, cols: make(map[string]int, len(header))}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := t.cols[key]; !dup {
			t.cols[key] = i
		}
	}
	return t
}

// Col resolves a column by case-insensitive header name.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.cols[strings.ToLower(name)]
	return i, ok
}

// ColContaining resolves the first column whose header contains the given
// substring, case-insensitively. Tracker vintages rename columns ("Parent"
// vs "Parent [formula]"), so substring resolution is the stable way in.
func (t *Table) ColContaining(sub string) (int, bool) {
	sub = strings.ToLower(sub)
	for i, h := range t.Header {
		if strings.Contains(strings.ToLower(h), sub) {
			return i, true
		}
	}
	return 0, false
}

// MustCol is Col with an error for required columns.
func (t *Table) MustCol(name string) (int, error) {
	if i, ok := t.Col(name); ok {
		return i, nil
	}
	return 0, eris.Errorf("fetcher: required column %q not found", name)
}

// Field returns the trimmed cell at a column, empty when the row is short.
func Field(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// FloatField parses a numeric cell. Empty cells and curator placeholders
// ("N/A", ">0", "unknown") come back as (0, false), not as errors: absent
// data is normal in these sources.
func FloatField(row []string, col int) (float64, bool) {
	s := Field(row, col)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IntField parses an integer cell with the same placeholder tolerance.
func IntField(row []string, col int) (int, bool) {
	v, ok := FloatField(row, col)
	if !ok {
		return 0, false
	}
	return int(v), true
}

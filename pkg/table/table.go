// Package table turns CSV response bodies into small indexed tables.
//
// It is the tabular collaborator behind the client's "df" output format:
// the client requests CSV on the wire and hands the text here together with
// the index column(s) appropriate to the content kind. Empty input yields
// an empty table rather than an error, matching services that answer an
// empty body for projects with no data.
package table

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is an ordered, column-named view over parsed CSV rows with an
// optional index of one or more key columns.
type Table struct {
	columns []string
	index   []string
	rows    [][]string
	colPos  map[string]int
}

// FromCSV parses CSV text into a Table indexed by the given columns.
// The first row is taken as the header. Quoting is lenient and rows with a
// deviating field count are tolerated; missing cells read as "". Index
// columns absent from the header are rejected.
func FromCSV(text string, index ...string) (*Table, error) {
	if strings.TrimSpace(text) == "" {
		return &Table{colPos: map[string]int{}}, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Allow variable field counts

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: parsing csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{colPos: map[string]int{}}, nil
	}

	header := records[0]
	colPos := make(map[string]int, len(header))
	for i, name := range header {
		colPos[name] = i
	}
	for _, name := range index {
		if _, ok := colPos[name]; !ok {
			return nil, fmt.Errorf("table: index column %q not in header", name)
		}
	}

	return &Table{
		columns: header,
		index:   index,
		rows:    records[1:],
		colPos:  colPos,
	}, nil
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the header names in file order.
func (t *Table) Columns() []string {
	return t.columns
}

// Index returns the index column names, in composite-key order.
func (t *Table) Index() []string {
	return t.index
}

// Row returns row i as a column-name to cell map. Cells missing from a
// short row read as "".
func (t *Table) Row(i int) map[string]string {
	row := t.rows[i]
	out := make(map[string]string, len(t.columns))
	for name, pos := range t.colPos {
		out[name] = t.cell(row, pos)
	}
	return out
}

// Col returns every value of the named column in row order. The second
// return value reports whether the column exists.
func (t *Table) Col(name string) ([]string, bool) {
	pos, ok := t.colPos[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = t.cell(row, pos)
	}
	return out, true
}

// Lookup returns every row whose index columns equal key. The number of key
// parts must match the number of index columns; a table without an index
// matches nothing.
func (t *Table) Lookup(key ...string) []map[string]string {
	if len(t.index) == 0 || len(key) != len(t.index) {
		return nil
	}
	var out []map[string]string
	for i, row := range t.rows {
		match := true
		for j, name := range t.index {
			if t.cell(row, t.colPos[name]) != key[j] {
				match = false
				break
			}
		}
		if match {
			out = append(out, t.Row(i))
		}
	}
	return out
}

func (t *Table) cell(row []string, pos int) string {
	if pos >= len(row) {
		return ""
	}
	return row[pos]
}

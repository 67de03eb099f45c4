// Package schema turns raw tabular uploads into normalized account batches.
// It is deliberately forgiving: real bank exports disagree on header naming,
// date formats and missing-value markers, and none of that should abort a
// scan.
package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyDataset is returned when the input has no header row at all.
var ErrEmptyDataset = errors.New("dataset has no header row")

// Table is a raw dataset: a header row plus data rows in file order. Rows may
// be ragged; consumers index columns defensively.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadCSV parses a CSV stream into a Table. Ragged rows are tolerated, a
// leading UTF-8 byte order mark is stripped, and fully empty lines are
// dropped. The only fatal condition is a stream with no header.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, ErrEmptyDataset
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := Table{Columns: header}
	for _, record := range records[1:] {
		if isBlankRow(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// Cell returns the value at the given row and column index, or "" when the
// row is too short or the column is absent.
func (t Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	record := t.Rows[row]
	if col >= len(record) {
		return ""
	}
	return record[col]
}

func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

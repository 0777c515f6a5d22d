// Package csvutil parses header-row CSV files for the catalog importers.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Read parses a header-row CSV, returning the data rows and a
// lowercase-column-name index. Fails if any required column is absent.
func Read(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("csv is missing required column %q", col)
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return rows, idx, nil
}

// Field returns the trimmed value of an optional column, or "" when the
// column is absent or the row is short.
func Field(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

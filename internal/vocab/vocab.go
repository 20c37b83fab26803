// Package vocab extracts an ordered word list from tabular CSV input.
package vocab

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// DefaultColumn is the header of the word column when none is configured.
const DefaultColumn = "words"

// ParseCSV reads the designated column from CSV data, preserving row order
// and dropping rows with a blank cell. Duplicates are kept; deduplication is
// not this layer's concern.
func ParseCSV(r io.Reader, column string) ([]string, error) {
	if column == "" {
		column = DefaultColumn
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columnIndex := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			columnIndex = i
			break
		}
	}
	if columnIndex == -1 {
		return nil, fmt.Errorf("csv has no %q column", column)
	}

	var words []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if columnIndex >= len(record) {
			continue
		}
		if word := strings.TrimSpace(record[columnIndex]); word != "" {
			words = append(words, word)
		}
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("csv %q column has no values", column)
	}
	return words, nil
}

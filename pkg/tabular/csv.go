package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV parses CSV data whose first row is the header row. Rows shorter than
// the header are padded so column lookups stay in range.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("parse csv: empty input")
	}

	headers := rows[0]
	// Strip a UTF-8 BOM that some vendor exports prepend to the first header.
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}

	return Table{Headers: headers, Rows: data}, nil
}

// ReadCSVFile reads and parses a CSV file from disk.
func ReadCSVFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := ReadCSV(f)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return tbl, nil
}

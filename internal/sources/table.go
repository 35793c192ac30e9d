package sources

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spboyer/pulse/internal/dataset"
)

// formatTable flattens a CSV export into a count line followed by one line per
// record with "column: value" pairs in header order. Empty values are skipped.
func formatTable(raw []byte, location string, opts TableOptions) (string, int, error) {
	table, err := dataset.ParseCSV(bytes.NewReader(raw), filepath.Base(location))
	if err != nil {
		return "", 0, err
	}

	if len(table.Rows) == 0 {
		return "", 0, nil
	}

	rows := table.Rows
	if opts.MaxRecords > 0 && len(rows) > opts.MaxRecords {
		rows = rows[:opts.MaxRecords]
	}

	lines := make([]string, 0, len(rows)+1)
	header := fmt.Sprintf("Total records: %d", len(table.Rows))
	if opts.DisplayName != "" {
		header = opts.DisplayName + " | " + header
	}
	lines = append(lines, header)

	for i, row := range rows {
		var fields fieldList
		for _, h := range table.Headers {
			fields.add(oneLine(h), oneLine(row[h]))
		}
		lines = append(lines, fmt.Sprintf("- Record %d: %s", i+1, strings.Join(fields, "; ")))
	}

	return strings.Join(lines, "\n"), len(table.Rows), nil
}

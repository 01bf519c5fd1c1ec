package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
)

// Export column names synthesized alongside the dynamic field columns.
const (
	exportColEntityType = "Entity Type"
	exportColInfoLeak   = "InfoLeak"
)

// ExportCSV renders records as a CSV document with a dynamic column set:
// "Entity Type", then the lexicographically sorted union of every field name
// across the records, then "InfoLeak". Fields absent from a record render as
// empty strings. Output is comma-separated, newline-terminated UTF-8 with no
// display glyphs.
func ExportCSV(records []EntityRecord) ([]byte, error) {
	seen := make(map[string]bool)
	var fieldNames []string
	for _, rec := range records {
		for _, f := range rec.Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				fieldNames = append(fieldNames, f.Name)
			}
		}
	}
	sort.Strings(fieldNames)

	columns := make([]string, 0, len(fieldNames)+2)
	columns = append(columns, exportColEntityType)
	columns = append(columns, fieldNames...)
	columns = append(columns, exportColInfoLeak)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(columns))
	for _, rec := range records {
		row[0] = rec.EntityType
		for i, name := range fieldNames {
			if v, ok := rec.Fields.Get(name); ok {
				row[i+1] = v.String()
			} else {
				row[i+1] = ""
			}
		}
		row[len(row)-1] = rec.InfoLeak
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vvka-141/pgingest/pkg/ingest"
)

// ConvertRows converts raw staged rows into values for COPY, in ColumnNames order.
// offset is the dataset ordinal of rows[0] and feeds the index column.
// Empty fields become NULL.
func (t *Table) ConvertRows(rows [][]string, offset int64) ([][]any, error) {
	width := len(t.Columns)
	if t.IndexColumn != "" {
		width++
	}

	out := make([][]any, len(rows))
	for r, row := range rows {
		ordinal := offset + int64(r)
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("row %d has %d fields, table %q has %d columns: %w",
				ordinal, len(row), t.Name, len(t.Columns), ingest.ErrSchemaMismatch)
		}

		values := make([]any, 0, width)
		if t.IndexColumn != "" {
			values = append(values, ordinal)
		}
		for i, c := range t.Columns {
			v, err := convertValue(c, row[i])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", ordinal, err)
			}
			values = append(values, v)
		}
		out[r] = values
	}
	return out, nil
}

func convertValue(c Column, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	switch c.Type {
	case Timestamp:
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %v: %w", c.Name, err, ingest.ErrTransformFailed)
		}
		return ts, nil

	case Bigint:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, mismatch(c, raw)
		}
		return v, nil

	case DoublePrecision:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, mismatch(c, raw)
		}
		return v, nil

	case Boolean:
		switch {
		case strings.EqualFold(raw, "true"):
			return true, nil
		case strings.EqualFold(raw, "false"):
			return false, nil
		}
		return nil, mismatch(c, raw)

	default:
		return raw, nil
	}
}

func mismatch(c Column, raw string) error {
	return fmt.Errorf("column %q: value %q is not %s: %w", c.Name, raw, c.Type, ingest.ErrSchemaMismatch)
}

package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// Column is one destination column.
type Column struct {
	Name string
	Type Type
}

// Options controls inference.
type Options struct {
	// DatetimeColumns must be present in the header and are declared as timestamps.
	DatetimeColumns []string

	// IndexColumn, when non-empty, is prepended as a bigint row ordinal.
	IndexColumn string
}

// Table is the layout of the destination table, fixed by the first batch.
type Table struct {
	Name string

	// IndexColumn is empty when no row ordinal column is written.
	IndexColumn string

	// Columns mirrors the staged header, in order, without the index column.
	Columns []Column
}

// Infer derives a Table from the staged header and the rows of the first batch.
// With no rows, every non-datetime column is declared text.
func Infer(name string, header []string, rows [][]string, opts Options) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("staged header has no columns: %w", ingest.ErrSchemaMismatch)
	}

	for _, dt := range opts.DatetimeColumns {
		if !slices.Contains(header, dt) {
			return nil, fmt.Errorf("datetime column %q not found in dataset: %w", dt, ingest.ErrTransformFailed)
		}
	}
	if opts.IndexColumn != "" && slices.Contains(header, opts.IndexColumn) {
		return nil, fmt.Errorf("index column %q collides with a dataset column: %w", opts.IndexColumn, ingest.ErrSchemaMismatch)
	}

	t := &Table{
		Name:        name,
		IndexColumn: opts.IndexColumn,
		Columns:     make([]Column, len(header)),
	}

	values := make([]string, len(rows))
	for i, col := range header {
		t.Columns[i].Name = col

		switch {
		case slices.Contains(opts.DatetimeColumns, col):
			t.Columns[i].Type = Timestamp
		case len(rows) == 0:
			t.Columns[i].Type = Text
		default:
			for r, row := range rows {
				values[r] = row[i]
			}
			t.Columns[i].Type = inferType(values)
		}
	}

	return t, nil
}

// Identifier returns the table name as a pgx identifier.
func (t *Table) Identifier() pgx.Identifier {
	return pgx.Identifier{t.Name}
}

// ColumnNames returns the destination column names in COPY order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns)+1)
	if t.IndexColumn != "" {
		names = append(names, t.IndexColumn)
	}
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// CreateSQL returns the CREATE TABLE statement for the table.
func (t *Table) CreateSQL(ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(t.Identifier().Sanitize())
	b.WriteString(" (")

	first := true
	writeCol := func(name string, typ Type) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(pgx.Identifier{name}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(string(typ))
	}

	if t.IndexColumn != "" {
		writeCol(t.IndexColumn, Bigint)
	}
	for _, c := range t.Columns {
		writeCol(c.Name, c.Type)
	}
	b.WriteString(")")
	return b.String()
}

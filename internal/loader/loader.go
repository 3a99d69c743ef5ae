// Package loader writes a staged CSV file into PostgreSQL in bounded batches.
//
// The first batch fixes the table layout. The table is then prepared according
// to the IfExists mode, and every batch, the first included, is appended with
// one COPY in source order. Batches already written stay written when a later
// batch fails.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgingest/internal/schema"
	"github.com/vvka-141/pgingest/internal/staging"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// Loader implements ingest.Loader.
type Loader struct {
	tables   ingest.TableManager
	approver ingest.Approver
	logger   ingest.Logger
}

// New creates a Loader. Panics if any dependency is nil.
func New(tables ingest.TableManager, approver ingest.Approver, logger ingest.Logger) *Loader {
	if tables == nil {
		panic("tables cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Loader{tables: tables, approver: approver, logger: logger}
}

// Load reads opts.StagingPath batch by batch and appends every batch to opts.Table.
func (l *Loader) Load(ctx context.Context, conn ingest.DBConn, opts ingest.LoadOptions) (ingest.LoadResult, error) {
	result := ingest.LoadResult{Table: opts.Table}

	if opts.BatchSize <= 0 {
		return result, fmt.Errorf("batch size must be positive, got %d: %w", opts.BatchSize, ingest.ErrInvalidConfig)
	}

	r, err := staging.Open(opts.StagingPath, opts.BatchSize)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ingest.ErrTransformFailed, err)
	}
	defer r.Close()

	start := time.Now()
	first := r.Next()
	if err := r.Err(); err != nil {
		return result, fmt.Errorf("%w: %w", ingest.ErrTransformFailed, err)
	}

	var sample [][]string
	if first {
		sample = r.Batch().Rows
	}

	table, err := schema.Infer(opts.Table, r.Header(), sample, schema.Options{
		DatetimeColumns: opts.DatetimeColumns,
		IndexColumn:     opts.IndexColumn,
	})
	if err != nil {
		return result, err
	}

	if err := l.prepareTable(ctx, conn, table, opts.IfExists); err != nil {
		return result, err
	}

	columns := table.ColumnNames()
	for ok := first; ok; ok = r.Next() {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("load interrupted after %d batches: %w", result.Batches, err)
		}

		batch := r.Batch()
		values, err := table.ConvertRows(batch.Rows, batch.Offset)
		if err != nil {
			return result, fmt.Errorf("batch %d: %w", batch.Number, err)
		}

		n, err := conn.CopyFrom(ctx, table.Identifier(), columns, pgx.CopyFromRows(values))
		if err != nil {
			return result, fmt.Errorf("%w: batch %d (rows %d-%d): %w",
				ingest.ErrWriteFailed, batch.Number, batch.Offset, batch.Offset+int64(batch.Len())-1, err)
		}
		result.Batches++
		result.Rows += n

		if batch.Number == 1 {
			l.logger.Info("inserted first chunk (%d rows)", n)
		} else {
			l.logger.Info("inserted another chunk, took %.3f second", time.Since(start).Seconds())
		}
		start = time.Now()
	}

	if err := r.Err(); err != nil {
		return result, fmt.Errorf("%w: %w", ingest.ErrTransformFailed, err)
	}

	l.logger.Info("completed")
	return result, nil
}

// prepareTable leaves an empty or compatible table named table.Name in place.
func (l *Loader) prepareTable(ctx context.Context, conn ingest.DBConn, table *schema.Table, mode ingest.IfExistsMode) error {
	switch mode {
	case ingest.IfExistsReplace, "":
		exists, err := l.tables.Exists(ctx, conn, table.Name)
		if err != nil {
			return err
		}
		// Approval is only needed when there is something to drop.
		if exists {
			approved, err := l.approver.RequestApproval(ctx, table.Name)
			if err != nil {
				return err
			}
			if !approved {
				return fmt.Errorf("replace of table %q: %w", table.Name, ingest.ErrApprovalDenied)
			}
			if err := l.tables.Drop(ctx, conn, table.Name); err != nil {
				return err
			}
		}
		return l.create(ctx, conn, table, false)

	case ingest.IfExistsAppend:
		return l.create(ctx, conn, table, true)

	case ingest.IfExistsFail:
		exists, err := l.tables.Exists(ctx, conn, table.Name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("table %q: %w", table.Name, ingest.ErrTableExists)
		}
		return l.create(ctx, conn, table, false)

	default:
		return fmt.Errorf("unknown if-exists mode %q: %w", mode, ingest.ErrInvalidConfig)
	}
}

func (l *Loader) create(ctx context.Context, conn ingest.DBConn, table *schema.Table, ifNotExists bool) error {
	ddl := table.CreateSQL(ifNotExists)
	l.logger.Verbose("%s", ddl)
	return l.tables.Create(ctx, conn, ddl)
}

var _ ingest.Loader = (*Loader)(nil)

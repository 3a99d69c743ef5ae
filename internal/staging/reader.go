// Package staging reads the row-oriented staging CSV in bounded batches.
//
// A Reader is a lazy, finite, single-pass sequence: each call to Next reads at
// most BatchSize records from disk, and only the current batch is held in memory.
// Exhaustion is reported by Next returning false with a nil Err.
package staging

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoHeader is returned by Open when the staging file is empty.
var ErrNoHeader = errors.New("staging file has no header row")

// Batch is a contiguous slice of staged records.
type Batch struct {
	// Header holds the column names, shared by every batch of a Reader.
	Header []string

	// Rows holds raw text fields; an empty field is a null value.
	Rows [][]string

	// Offset is the zero-based ordinal of Rows[0] in the dataset.
	Offset int64

	// Number is the one-based position of the batch in the sequence.
	Number int
}

// Len returns the number of rows in the batch.
func (b *Batch) Len() int {
	return len(b.Rows)
}

// Reader yields the staged dataset as consecutive batches.
type Reader struct {
	file      *os.File
	csv       *csv.Reader
	header    []string
	batchSize int

	batch  *Batch
	offset int64
	number int
	done   bool
	err    error
}

// Open opens the staging CSV at path and reads its header.
func Open(path string, batchSize int) (*Reader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staging file: %w", err)
	}

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoHeader)
		}
		return nil, fmt.Errorf("read staging header: %w", err)
	}

	return &Reader{
		file:      f,
		csv:       cr,
		header:    header,
		batchSize: batchSize,
	}, nil
}

// Header returns the column names of the staged dataset.
func (r *Reader) Header() []string {
	return r.header
}

// Next reads the next batch. It returns false when the data is exhausted or
// a read error occurred; Err distinguishes the two.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}

	rows := make([][]string, 0, min(r.batchSize, 1024))
	for len(rows) < r.batchSize {
		rec, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			r.done = true
			break
		}
		if err != nil {
			r.err = fmt.Errorf("read staging row %d: %w", r.offset+int64(len(rows))+1, err)
			r.done = true
			r.batch = nil
			return false
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		r.batch = nil
		return false
	}

	r.number++
	r.batch = &Batch{
		Header: r.header,
		Rows:   rows,
		Offset: r.offset,
		Number: r.number,
	}
	r.offset += int64(len(rows))
	return true
}

// Batch returns the batch read by the last successful call to Next.
func (r *Reader) Batch() *Batch {
	return r.batch
}

// Err returns the first read error, or nil if the reader was exhausted normally.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

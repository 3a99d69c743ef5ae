package fetch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/parquet-go/parquet-go/format"
	"github.com/vvka-141/pgingest/internal/schema"
)

const readBatchRows = 1024

// julianUnixEpoch is the Julian day number of 1970-01-01, the INT96 day origin.
const julianUnixEpoch = 2440588

type renderFunc func(parquet.Value) string

// writeCSV decodes the Parquet file in r and writes its header and rows as CSV.
func writeCSV(ctx context.Context, r io.ReaderAt, size int64, w io.Writer) ([]string, int64, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, 0, fmt.Errorf("open parquet: %w", err)
	}

	header, renderers, err := leafColumns(f.Schema())
	if err != nil {
		return nil, 0, err
	}

	cw := csv.NewWriter(w)
	if err := writeRecord(cw, w, header); err != nil {
		return nil, 0, err
	}

	var total int64
	record := make([]string, len(header))
	buf := make([]parquet.Row, readBatchRows)

	for _, rg := range f.RowGroups() {
		n, err := copyRowGroup(ctx, rg, buf, record, renderers, cw, w)
		total += n
		if err != nil {
			return header, total, err
		}
	}

	cw.Flush()
	return header, total, cw.Error()
}

func copyRowGroup(ctx context.Context, rg parquet.RowGroup, buf []parquet.Row, record []string, renderers []renderFunc, cw *csv.Writer, w io.Writer) (int64, error) {
	rows := rg.Rows()
	defer rows.Close()

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			clear(record)
			for _, v := range row {
				c := v.Column()
				if c < 0 || c >= len(record) || v.IsNull() {
					continue
				}
				record[c] = renderers[c](v)
			}
			if werr := writeRecord(cw, w, record); werr != nil {
				return total, werr
			}
			total++
		}

		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("read rows: %w", err)
		}
	}
}

// writeRecord writes record through cw. A record holding one empty field is
// written as a quoted empty string: csv.Writer would emit a blank line, which
// csv.Reader skips, losing the row.
func writeRecord(cw *csv.Writer, w io.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return cw.Write(record)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"\"\n")
	return err
}

// leafColumns returns the dotted leaf column names and a renderer per column index.
// Repeated fields have no single-field CSV form and are rejected.
func leafColumns(s *parquet.Schema) ([]string, []renderFunc, error) {
	paths := s.Columns()
	header := make([]string, len(paths))
	renderers := make([]renderFunc, len(paths))

	for _, path := range paths {
		leaf, ok := s.Lookup(path...)
		if !ok {
			return nil, nil, fmt.Errorf("column %s not found in schema", strings.Join(path, "."))
		}
		if leaf.MaxRepetitionLevel > 0 {
			return nil, nil, fmt.Errorf("repeated column %s is not supported", strings.Join(path, "."))
		}
		header[leaf.ColumnIndex] = strings.Join(path, ".")
		renderers[leaf.ColumnIndex] = rendererFor(leaf.Node.Type())
	}
	return header, renderers, nil
}

func rendererFor(t parquet.Type) renderFunc {
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.Timestamp != nil:
			return renderTimestamp(timeUnit(lt.Timestamp.Unit))
		case lt.Date != nil:
			return renderDate
		case lt.Decimal != nil:
			return renderDecimal(lt.Decimal.Scale)
		case lt.Integer != nil && !lt.Integer.IsSigned:
			return renderUnsigned
		}
	}

	if ct := t.ConvertedType(); ct != nil {
		switch *ct {
		case deprecated.TimestampMillis:
			return renderTimestamp(time.Millisecond)
		case deprecated.TimestampMicros:
			return renderTimestamp(time.Microsecond)
		case deprecated.Date:
			return renderDate
		}
	}

	switch t.Kind() {
	case parquet.Boolean:
		return func(v parquet.Value) string { return strconv.FormatBool(v.Boolean()) }
	case parquet.Int32:
		return func(v parquet.Value) string { return strconv.FormatInt(int64(v.Int32()), 10) }
	case parquet.Int64:
		return func(v parquet.Value) string { return strconv.FormatInt(v.Int64(), 10) }
	case parquet.Int96:
		return renderInt96
	case parquet.Float:
		return func(v parquet.Value) string { return formatFloat(float64(v.Float()), 32) }
	case parquet.Double:
		return func(v parquet.Value) string { return formatFloat(v.Double(), 64) }
	default:
		return func(v parquet.Value) string { return string(v.ByteArray()) }
	}
}

func timeUnit(u format.TimeUnit) time.Duration {
	switch {
	case u.Millis != nil:
		return time.Millisecond
	case u.Micros != nil:
		return time.Microsecond
	default:
		return time.Nanosecond
	}
}

func renderTimestamp(unit time.Duration) renderFunc {
	return func(v parquet.Value) string {
		n := v.Int64()
		var t time.Time
		switch unit {
		case time.Millisecond:
			t = time.UnixMilli(n)
		case time.Microsecond:
			t = time.UnixMicro(n)
		default:
			t = time.Unix(0, n)
		}
		return schema.FormatTimestamp(t)
	}
}

func renderDate(v parquet.Value) string {
	return time.Unix(int64(v.Int32())*86400, 0).UTC().Format(schema.DateLayout)
}

func renderUnsigned(v parquet.Value) string {
	if v.Kind() == parquet.Int32 {
		return strconv.FormatUint(uint64(uint32(v.Int32())), 10)
	}
	return strconv.FormatUint(uint64(v.Int64()), 10)
}

// renderInt96 decodes the legacy Impala timestamp: nanoseconds of the day in the
// low 64 bits and the Julian day number in the high 32 bits.
func renderInt96(v parquet.Value) string {
	i := v.Int96()
	nanos := int64(uint64(i[1])<<32 | uint64(i[0]))
	days := int64(i[2]) - julianUnixEpoch
	t := time.Unix(days*86400, 0).Add(time.Duration(nanos))
	return schema.FormatTimestamp(t)
}

func renderDecimal(scale int32) renderFunc {
	return func(v parquet.Value) string {
		var unscaled *big.Int
		switch v.Kind() {
		case parquet.Int32:
			unscaled = big.NewInt(int64(v.Int32()))
		case parquet.Int64:
			unscaled = big.NewInt(v.Int64())
		default:
			unscaled = twosComplement(v.ByteArray())
		}
		return formatDecimal(unscaled, int(scale))
	}
}

// twosComplement interprets b as a big-endian signed integer.
func twosComplement(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}

func formatDecimal(unscaled *big.Int, scale int) string {
	if scale <= 0 {
		return unscaled.String()
	}

	digits := new(big.Int).Abs(unscaled).String()
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}

	point := len(digits) - scale
	s := digits[:point] + "." + digits[point:]
	if unscaled.Sign() < 0 {
		s = "-" + s
	}
	return s
}

// formatFloat renders floats so that they always read back as floats:
// whole numbers keep a ".0" suffix, NaN becomes a null field.
func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) {
		return ""
	}
	if math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}

	abs := math.Abs(f)
	fmtByte := byte('f')
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		fmtByte = 'e'
	}

	s := strconv.FormatFloat(f, fmtByte, -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

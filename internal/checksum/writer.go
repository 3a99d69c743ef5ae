package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Writer accumulates a SHA-256 digest and a byte count of everything written to it.
// Not safe for concurrent use.
type Writer struct {
	h hash.Hash
	n int64
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{h: sha256.New()}
}

// Write implements io.Writer. It never returns an error.
func (w *Writer) Write(p []byte) (int, error) {
	n, _ := w.h.Write(p)
	w.n += int64(n)
	return n, nil
}

// Sum returns the lowercase hex SHA-256 of the bytes written so far.
func (w *Writer) Sum() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 {
	return w.n
}

// Copy copies src to dst and returns the digest and size of the copied bytes.
func Copy(dst io.Writer, src io.Reader) (sum string, size int64, err error) {
	w := NewWriter()
	if _, err := io.Copy(io.MultiWriter(dst, w), src); err != nil {
		return "", w.Size(), err
	}
	return w.Sum(), w.Size(), nil
}

// Bytes returns the lowercase hex SHA-256 of content.
func Bytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

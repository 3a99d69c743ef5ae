// Package checksum computes content checksums of fetched source files.
//
// The Writer type is an io.Writer meant to sit beside the destination of an
// io.Copy through io.MultiWriter, so that the digest and byte count of a
// download are known without a second pass over the data.
package checksum

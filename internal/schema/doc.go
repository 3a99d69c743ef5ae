// Package schema derives the destination table layout from the first staged
// batch and converts raw staged text into values matching that layout.
//
// Inference runs once per load. Every later batch is converted against the
// same Table; a value that no longer fits its column type is a schema mismatch,
// and a malformed value in a datetime column is a transform failure.
package schema

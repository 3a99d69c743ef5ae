// Package manager provides lifecycle operations on the destination table:
// existence check, drop and create.
//
// Table names are quoted with pgx.Identifier.Sanitize(), so names containing
// upper case, spaces or quotes reach the server verbatim and cannot inject SQL.
package manager

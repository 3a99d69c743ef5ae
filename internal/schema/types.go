package schema

import (
	"strconv"
	"strings"
)

// Type is a PostgreSQL column type produced by inference.
type Type string

const (
	Bigint          Type = "bigint"
	DoublePrecision Type = "double precision"
	Boolean         Type = "boolean"
	Text            Type = "text"
	Timestamp       Type = "timestamp without time zone"
)

// inferType picks the narrowest type that accepts every non-empty value.
// A column without any non-empty value is treated as an all-null numeric column.
func inferType(values []string) Type {
	isInt, isFloat, isBool := true, true, true
	seen := false

	for _, v := range values {
		if v == "" {
			continue
		}
		seen = true

		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool && !isBoolLiteral(v) {
			isBool = false
		}
		if !isInt && !isFloat && !isBool {
			return Text
		}
	}

	switch {
	case !seen:
		return DoublePrecision
	case isInt:
		return Bigint
	case isFloat:
		return DoublePrecision
	case isBool:
		return Boolean
	default:
		return Text
	}
}

func isBoolLiteral(v string) bool {
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "false")
}

package schema

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TimestampLayout is the canonical text form of a timestamp in the staging file.
	// Trailing fractional zeros are omitted.
	TimestampLayout = "2006-01-02 15:04:05.999999999"

	// DateLayout is the canonical text form of a date in the staging file.
	DateLayout = "2006-01-02"
)

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	DateLayout,
}

// ParseTimestamp parses a staged datetime value. Values carrying a zone offset
// are normalized to UTC; values without one are taken as UTC wall-clock time.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", s)
}

// FormatTimestamp renders t in TimestampLayout after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

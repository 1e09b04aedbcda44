package core

import (
	"fmt"
	"strings"
	"time"
)

// Date columns are ISO 8601 text. Plain dates are the common case; the
// transaction column default produces a local datetime.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate parses an ISO 8601 date or datetime string.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate renders t the way date columns store plain dates.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

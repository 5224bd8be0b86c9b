package sales

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var minutePrecision = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`)

// NormalizeDateTime pads minute-precision date-times ("2024-03-05T14:30")
// with seconds. Dates and full date-times pass through trimmed.
func NormalizeDateTime(s string) string {
	s = strings.TrimSpace(s)
	if minutePrecision.MatchString(s) {
		return s + ":00"
	}
	return s
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a backend timestamp. Zoned values (RFC 3339) keep
// their instant; zoneless values are read as wall time in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

package fields

import (
	"strings"
	"time"
)

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Date parses a calendar date ("2024-05-27"). The zero time is returned when
// the value cannot be parsed.
func Date(value string) time.Time {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}

	return date
}

// DateTime parses the creation and modification stamps carried on feed
// elements, which appear with and without a zone offset.
func DateTime(value string) time.Time {
	value = strings.TrimSpace(value)

	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}

	return time.Time{}
}

// ClockTime normalises a departure time to HH:MM:SS.
func ClockTime(value string) string {
	value = strings.TrimSpace(value)

	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(time.TimeOnly)
		}
	}

	return ""
}

package fields

import (
	"strings"
	"time"

	iso8601 "github.com/senseyeio/duration"
)

// Durations are shifted from a fixed instant so that month and year
// components resolve the same way on every run.
var durationReference = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Seconds converts an ISO-8601 duration such as "PT2M30S" into whole
// seconds. Absent or unparseable durations are zero.
func Seconds(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0
	}

	return int(duration.Shift(durationReference).Sub(durationReference) / time.Second)
}

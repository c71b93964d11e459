package aggregator

import (
	"fmt"
	"time"
)

// AbsoluteDateLayout formats timestamps older than 30 days
const AbsoluteDateLayout = "Jan 2, 2006"

// RelativeTime formats t against the current wall clock. Calls near a
// threshold may differ from one another.
func RelativeTime(t time.Time) string {
	return FormatRelativeTime(t, time.Now())
}

// FormatRelativeTime formats t relative to now: "just now" under a minute,
// then minutes, hours and days; from 30 days on an absolute local date.
func FormatRelativeTime(t, now time.Time) string {
	diffSec := int64(now.Sub(t) / time.Second)
	diffMin := diffSec / 60
	diffHour := diffMin / 60
	diffDay := diffHour / 24

	switch {
	case diffSec < 60:
		return "just now"
	case diffMin < 60:
		return fmt.Sprintf("%dm ago", diffMin)
	case diffHour < 24:
		return fmt.Sprintf("%dh ago", diffHour)
	case diffDay < 30:
		return fmt.Sprintf("%dd ago", diffDay)
	}
	return t.Local().Format(AbsoluteDateLayout)
}

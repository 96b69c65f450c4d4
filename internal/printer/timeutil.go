package printer

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimeAgo returns a human-readable relative time string in UTC.
// Examples: "5 seconds ago (UTC)", "2 minutes ago (UTC)", "3 hours ago (UTC)".
func TimeAgo(t time.Time) string {
	return TimeAgoFrom(t, time.Now())
}

// TimeAgoFrom is like TimeAgo using now as the reference time.
func TimeAgoFrom(t, now time.Time) string {
	now = now.UTC()
	t = t.UTC()

	if t.After(now) {
		return "in the future (UTC)"
	}

	return humanize.RelTime(t, now, "ago", "from now") + " (UTC)"
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatClock returns the time of the day of a timestamp in UTC.
func FormatClock(t time.Time) string {
	return t.UTC().Format("15:04:05")
}

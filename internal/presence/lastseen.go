package presence

import (
	"time"

	"github.com/dustin/go-humanize"
)

var lastSeenMagnitudes = []humanize.RelTimeMagnitude{
	{D: 5 * time.Second, Format: "just now", DivBy: time.Second},
	{D: time.Minute, Format: "%ds %s", DivBy: time.Second},
	{D: time.Hour, Format: "%dm %s", DivBy: time.Minute},
	{D: humanize.Day, Format: "%dh %s", DivBy: time.Hour},
	{D: humanize.Week, Format: "%dd %s", DivBy: humanize.Day},
}

// LastSeen formats how long ago t was, relative to now.
func LastSeen(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if t.After(now) {
		return "just now"
	}
	if now.Sub(t) >= humanize.Week {
		return t.Format("Jan 2, 2006")
	}
	return humanize.CustomRelTime(t, now, "ago", "from now", lastSeenMagnitudes)
}

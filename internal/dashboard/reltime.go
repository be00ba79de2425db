package dashboard

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// feedMagnitudes renders compact feed times: "now", "5m ago", "2h ago", "3d ago".
var feedMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "now", DivBy: time.Second},
	{D: time.Hour, Format: "%dm %s", DivBy: time.Minute},
	{D: 24 * time.Hour, Format: "%dh %s", DivBy: time.Hour},
	{D: math.MaxInt64, Format: "%dd %s", DivBy: 24 * time.Hour},
}

// RelativeTime renders t relative to now for the activity feed.
func RelativeTime(t, now time.Time) string {
	return humanize.CustomRelTime(t, now, "ago", "from now", feedMagnitudes)
}

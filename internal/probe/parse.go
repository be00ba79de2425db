package probe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vesaa/patchdeck/internal/models"
)

// ParseProcUptime turns the contents of /proc/uptime ("350735.47 234388.90")
// into the display form, e.g. "4 days".
func ParseProcUptime(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty /proc/uptime")
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || secs < 0 {
		return "", fmt.Errorf("malformed /proc/uptime %q", strings.TrimSpace(raw))
	}
	return models.FormatUptime(time.Duration(secs * float64(time.Second))), nil
}

// ParsePendingCount reads the last non-empty line of out as a count.
func ParsePendingCount(out string) (int, bool) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	n, err := strconv.Atoi(last)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Package agent implements the Patchdeck agent daemon. It reads host facts
// with gopsutil and reports them to the server data plane as check-ins.
package agent

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/vesaa/patchdeck/internal/models"
	"github.com/vesaa/patchdeck/internal/probe"
)

// Collector gathers the facts a check-in carries.
type Collector struct {
	hostInfo func(ctx context.Context) (*host.InfoStat, error)
	pending  func(ctx context.Context) (int, bool)
}

// NewCollector creates a Collector reading the local host.
func NewCollector() *Collector {
	return &Collector{
		hostInfo: host.InfoWithContext,
		pending:  pendingFromPackageManager,
	}
}

// Collect returns the current report. Kernel and uptime come from the OS;
// a failing package manager only drops pending_updates from the report.
func (c *Collector) Collect(ctx context.Context) (models.CheckIn, error) {
	info, err := c.hostInfo(ctx)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("host info: %w", err)
	}

	report := models.CheckIn{
		KernelVersion: info.KernelVersion,
		AgentVersion:  Version,
		Uptime:        models.FormatUptime(time.Duration(info.Uptime) * time.Second),
		OSType:        detailedOS(info),
	}
	if n, ok := c.pending(ctx); ok {
		report.PendingUpdates = &n
	}
	return report, nil
}

// detailedOS returns a descriptive OS version string, or runtime.GOOS as fallback.
func detailedOS(info *host.InfoStat) string {
	if info.Platform != "" {
		if info.PlatformVersion != "" {
			return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion) // e.g., "ubuntu 22.04"
		}
		return info.Platform
	}
	if info.OS != "" {
		return info.OS
	}
	return runtime.GOOS
}

// pendingFromPackageManager runs the same count the SSH probe uses, locally.
func pendingFromPackageManager(ctx context.Context) (int, bool) {
	if runtime.GOOS != "linux" {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	// grep -c exits 1 on a zero count; the output is still valid.
	out, _ := exec.CommandContext(ctx, "sh", "-c", probe.PendingUpdatesCommand).Output()
	return probe.ParsePendingCount(string(out))
}

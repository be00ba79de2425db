package models

import "time"

// FleetStats holds the four fleet-wide counters shared by the dashboard and
// the patch page.
type FleetStats struct {
	TotalServers   int64 `json:"total_servers"`
	OnlineServers  int64 `json:"online_servers"`
	OfflineServers int64 `json:"offline_servers"`
	PendingUpdates int64 `json:"pending_updates"`
}

// PatchActivityEntry is one chart point as the dashboard renders it.
type PatchActivityEntry struct {
	Date     string `json:"date"`
	Patches  int    `json:"patches"`
	Critical int    `json:"critical"`
}

// EntryFromPoint renders a stored point with the chart's "Oct 15" date label.
func EntryFromPoint(p PatchActivityPoint) PatchActivityEntry {
	return PatchActivityEntry{
		Date:     p.Date.Format("Jan 2"),
		Patches:  p.TotalPatches,
		Critical: p.CriticalPatches,
	}
}

// RecentActivity is one row of the dashboard activity feed.
type RecentActivity struct {
	Action string       `json:"action"`
	Server string       `json:"server"`
	Type   ActivityType `json:"type"`
	Time   string       `json:"time"`
}

// LastSyncLayout renders DashboardSummary.LastSync.
const LastSyncLayout = "2006-01-02 15:04:05"

// LastSyncUnknown is reported when no server has ever checked in.
const LastSyncUnknown = "N/A"

// DashboardSummary is the composite read model behind GET /api/dashboard.
type DashboardSummary struct {
	TotalServers     int64                `json:"total_servers"`
	OnlineServers    int64                `json:"online_servers"`
	OfflineServers   int64                `json:"offline_servers"`
	PendingPatches   int64                `json:"pending_patches"`
	CriticalPatches  int                  `json:"critical_patches"`
	LastSync         string               `json:"last_sync"`
	PatchActivity    []PatchActivityEntry `json:"patch_activity"`
	RecentActivities []RecentActivity     `json:"recent_activities"`
}

// FormatLastSync renders the newest check-in time, or LastSyncUnknown.
func FormatLastSync(t *time.Time) string {
	if t == nil || t.IsZero() {
		return LastSyncUnknown
	}
	return t.Format(LastSyncLayout)
}

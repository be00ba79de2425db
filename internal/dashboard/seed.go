package dashboard

import "github.com/vesaa/patchdeck/internal/models"

// Seed is the illustrative data the aggregator serves when nothing better is
// available: the chart series of the static source and the activity feed
// shown when the activity table is empty or unreadable.
type Seed struct {
	Series     []models.PatchActivityEntry
	Activities []models.RecentActivity
}

// DefaultSeed returns the week of sample patch activity and the six sample
// activity entries the dashboard ships with.
func DefaultSeed() Seed {
	return Seed{
		Series: []models.PatchActivityEntry{
			{Date: "Oct 15", Patches: 24, Critical: 8},
			{Date: "Oct 16", Patches: 18, Critical: 5},
			{Date: "Oct 17", Patches: 32, Critical: 12},
			{Date: "Oct 18", Patches: 28, Critical: 9},
			{Date: "Oct 19", Patches: 15, Critical: 4},
			{Date: "Oct 20", Patches: 22, Critical: 7},
			{Date: "Oct 21", Patches: 35, Critical: 11},
		},
		Activities: []models.RecentActivity{
			{Action: "Security patches deployed", Server: "Server-01", Type: models.ActivitySuccess, Time: "5m ago"},
			{Action: "Agent sync completed", Server: "Server-03", Type: models.ActivityInfo, Time: "12m ago"},
			{Action: "Critical updates available", Server: "Server-05", Type: models.ActivityWarning, Time: "23m ago"},
			{Action: "Patch deployment successful", Server: "Server-02", Type: models.ActivitySuccess, Time: "1h ago"},
			{Action: "New agent connected", Server: "Server-08", Type: models.ActivityInfo, Time: "2h ago"},
			{Action: "Scheduled scan completed", Server: "Server-04", Type: models.ActivitySuccess, Time: "3h ago"},
		},
	}
}

func (s Seed) series() []models.PatchActivityEntry {
	out := make([]models.PatchActivityEntry, len(s.Series))
	copy(out, s.Series)
	return out
}

func (s Seed) activities() []models.RecentActivity {
	out := make([]models.RecentActivity, len(s.Activities))
	copy(out, s.Activities)
	return out
}

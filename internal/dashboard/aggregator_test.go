package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
	"go.uber.org/mock/gomock"
)

var testNow = time.Date(2025, 10, 21, 14, 30, 0, 0, time.UTC)

type fixture struct {
	fleet      *MockFleetReader
	activities *MockActivityReader
	series     *MockSeriesSource
}

func newFixture(t *testing.T) (*fixture, *Aggregator) {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		fleet:      NewMockFleetReader(ctrl),
		activities: NewMockActivityReader(ctrl),
		series:     NewMockSeriesSource(ctrl),
	}
	agg := New(f.fleet, f.activities, f.series, DefaultSeed(), WithClock(func() time.Time { return testNow }))
	return f, agg
}

func (f *fixture) expectFleet(stats models.FleetStats, last *time.Time) {
	f.fleet.EXPECT().FleetStats(gomock.Any()).Return(stats, nil)
	f.fleet.EXPECT().LastSync(gomock.Any()).Return(last, nil)
}

func TestSummaryEmptyFleet(t *testing.T) {
	f, agg := newFixture(t)
	f.expectFleet(models.FleetStats{}, nil)
	f.series.EXPECT().Series(gomock.Any()).Return(DefaultSeed().Series, nil)
	f.activities.EXPECT().RecentActivities(gomock.Any(), RecentLimit).Return([]models.Activity{}, nil)

	sum, err := agg.Summary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, sum.TotalServers)
	assert.Zero(t, sum.OnlineServers)
	assert.Zero(t, sum.OfflineServers)
	assert.Zero(t, sum.PendingPatches)
	assert.Equal(t, "N/A", sum.LastSync)
	assert.Equal(t, 56, sum.CriticalPatches)
	assert.Len(t, sum.PatchActivity, 7)
	assert.Equal(t, DefaultSeed().Activities, sum.RecentActivities)
}

func TestSummaryPopulatedFleet(t *testing.T) {
	f, agg := newFixture(t)
	last := time.Date(2025, 10, 21, 14, 3, 22, 0, time.UTC)
	f.expectFleet(models.FleetStats{TotalServers: 3, OnlineServers: 2, OfflineServers: 1, PendingUpdates: 10}, &last)
	f.series.EXPECT().Series(gomock.Any()).Return([]models.PatchActivityEntry{
		{Date: "Oct 20", Patches: 4, Critical: 1},
		{Date: "Oct 21", Patches: 9, Critical: 3},
	}, nil)
	f.activities.EXPECT().RecentActivities(gomock.Any(), RecentLimit).Return([]models.Activity{
		{Action: "New agent connected", ServerName: "web-1", ActivityType: models.ActivityInfo, CreatedAt: testNow.Add(-5 * time.Minute)},
		{Action: "Agent connection lost", ServerName: "db-1", ActivityType: models.ActivityWarning, CreatedAt: testNow.Add(-2 * time.Hour)},
	}, nil)

	sum, err := agg.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), sum.TotalServers)
	assert.Equal(t, int64(2), sum.OnlineServers)
	assert.Equal(t, int64(1), sum.OfflineServers)
	assert.Equal(t, int64(10), sum.PendingPatches)
	assert.Equal(t, "2025-10-21 14:03:22", sum.LastSync)
	assert.Equal(t, 4, sum.CriticalPatches)
	assert.Equal(t, []models.RecentActivity{
		{Action: "New agent connected", Server: "web-1", Type: models.ActivityInfo, Time: "5m ago"},
		{Action: "Agent connection lost", Server: "db-1", Type: models.ActivityWarning, Time: "2h ago"},
	}, sum.RecentActivities)
}

func TestSummaryMandatoryFailures(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("fleet stats", func(t *testing.T) {
		f, agg := newFixture(t)
		f.fleet.EXPECT().FleetStats(gomock.Any()).Return(models.FleetStats{}, cause)

		sum, err := agg.Summary(context.Background())
		assert.Nil(t, sum)
		require.ErrorIs(t, err, apperr.ErrInfrastructure)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("last sync", func(t *testing.T) {
		f, agg := newFixture(t)
		f.fleet.EXPECT().FleetStats(gomock.Any()).Return(models.FleetStats{TotalServers: 1}, nil)
		f.fleet.EXPECT().LastSync(gomock.Any()).Return(nil, apperr.Infrastructure(cause))

		sum, err := agg.Summary(context.Background())
		assert.Nil(t, sum)
		require.ErrorIs(t, err, apperr.ErrInfrastructure)
		assert.ErrorIs(t, err, cause)
	})
}

func TestSummaryActivityFailureUsesFallback(t *testing.T) {
	f, agg := newFixture(t)
	f.expectFleet(models.FleetStats{TotalServers: 1, OnlineServers: 1}, nil)
	f.series.EXPECT().Series(gomock.Any()).Return(DefaultSeed().Series, nil)
	f.activities.EXPECT().RecentActivities(gomock.Any(), RecentLimit).Return(nil, errors.New("no such table: activities"))

	sum, err := agg.Summary(context.Background())
	require.NoError(t, err)

	require.Len(t, sum.RecentActivities, 6)
	assert.Equal(t, models.RecentActivity{
		Action: "Security patches deployed", Server: "Server-01", Type: models.ActivitySuccess, Time: "5m ago",
	}, sum.RecentActivities[0])
	assert.Equal(t, "Scheduled scan completed", sum.RecentActivities[5].Action)
	assert.Equal(t, int64(1), sum.TotalServers)
}

func TestSummarySeriesDegradesToSeed(t *testing.T) {
	for name, ret := range map[string]struct {
		entries []models.PatchActivityEntry
		err     error
	}{
		"error": {err: errors.New("no such table: patch_activities")},
		"empty": {entries: []models.PatchActivityEntry{}},
	} {
		t.Run(name, func(t *testing.T) {
			f, agg := newFixture(t)
			f.expectFleet(models.FleetStats{}, nil)
			f.series.EXPECT().Series(gomock.Any()).Return(ret.entries, ret.err)
			f.activities.EXPECT().RecentActivities(gomock.Any(), RecentLimit).Return(nil, nil)

			sum, err := agg.Summary(context.Background())
			require.NoError(t, err)
			assert.Equal(t, DefaultSeed().Series, sum.PatchActivity)
			assert.Equal(t, 56, sum.CriticalPatches)
		})
	}
}

func TestSummaryDoesNotMutateSeed(t *testing.T) {
	seed := DefaultSeed()
	ctrl := gomock.NewController(t)
	fleet := NewMockFleetReader(ctrl)
	activities := NewMockActivityReader(ctrl)
	fleet.EXPECT().FleetStats(gomock.Any()).Return(models.FleetStats{}, nil)
	fleet.EXPECT().LastSync(gomock.Any()).Return(nil, nil)
	activities.EXPECT().RecentActivities(gomock.Any(), RecentLimit).Return(nil, nil)

	agg := New(fleet, activities, nil, seed)
	sum, err := agg.Summary(context.Background())
	require.NoError(t, err)

	sum.RecentActivities[0].Action = "changed"
	sum.PatchActivity[0].Patches = 0
	assert.Equal(t, "Security patches deployed", seed.Activities[0].Action)
	assert.Equal(t, 24, seed.Series[0].Patches)
}

// Package dashboard composes fleet, patch and activity reads into the single
// summary behind GET /api/dashboard.
//
// Sub-queries fall into two tiers. The fleet counters and the last sync time
// are mandatory: if any of them fails the whole summary fails. The activity
// feed and a history-backed chart are optional: on failure, or when they
// have nothing to show, the seed data stands in and the summary still
// succeeds.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/models"
)

const (
	// SeriesDays is the length of the patch activity chart.
	SeriesDays = 7
	// RecentLimit is the size of the activity feed.
	RecentLimit = 6
)

// Aggregator builds dashboard summaries. It holds no per-request state and is
// safe for concurrent use.
type Aggregator struct {
	fleet      FleetReader
	activities ActivityReader
	series     SeriesSource
	seed       Seed
	now        func() time.Time
	log        *logrus.Entry
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides time.Now for relative feed times.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger; entries are tagged component=dashboard.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Aggregator) { a.log = logging.Component(l, "dashboard") }
}

// New returns an Aggregator. A nil series falls back to the seed's static series.
func New(fleet FleetReader, activities ActivityReader, series SeriesSource, seed Seed, opts ...Option) *Aggregator {
	if series == nil {
		series = NewStaticSeries(seed.Series)
	}
	a := &Aggregator{
		fleet:      fleet,
		activities: activities,
		series:     series,
		seed:       seed,
		now:        time.Now,
		log:        logging.Component(logging.Discard(), "dashboard"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summary assembles the dashboard. Errors are infrastructure errors from the
// mandatory tier; nothing is returned alongside them.
func (a *Aggregator) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	stats, err := a.fleet.FleetStats(ctx)
	if err != nil {
		return nil, apperr.Infrastructure(errors.Wrap(err, "dashboard fleet stats"))
	}
	lastSync, err := a.fleet.LastSync(ctx)
	if err != nil {
		return nil, apperr.Infrastructure(errors.Wrap(err, "dashboard last sync"))
	}

	series := a.patchActivity(ctx)
	critical := 0
	for _, e := range series {
		critical += e.Critical
	}

	return &models.DashboardSummary{
		TotalServers:     stats.TotalServers,
		OnlineServers:    stats.OnlineServers,
		OfflineServers:   stats.OfflineServers,
		PendingPatches:   stats.PendingUpdates,
		CriticalPatches:  critical,
		LastSync:         models.FormatLastSync(lastSync),
		PatchActivity:    series,
		RecentActivities: a.recentActivities(ctx),
	}, nil
}

func (a *Aggregator) patchActivity(ctx context.Context) []models.PatchActivityEntry {
	series, err := a.series.Series(ctx)
	switch {
	case err != nil:
		a.log.WithError(err).Warn("patch activity unavailable, serving seed series")
		return a.seed.series()
	case len(series) == 0:
		a.log.Debug("patch activity empty, serving seed series")
		return a.seed.series()
	}
	return series
}

func (a *Aggregator) recentActivities(ctx context.Context) []models.RecentActivity {
	rows, err := a.activities.RecentActivities(ctx, RecentLimit)
	switch {
	case err != nil:
		a.log.WithError(err).Warn("recent activities unavailable, serving fallback feed")
		return a.seed.activities()
	case len(rows) == 0:
		return a.seed.activities()
	}

	now := a.now()
	feed := make([]models.RecentActivity, 0, len(rows))
	for _, r := range rows {
		feed = append(feed, models.RecentActivity{
			Action: r.Action,
			Server: r.ServerName,
			Type:   r.ActivityType,
			Time:   RelativeTime(r.CreatedAt, now),
		})
	}
	return feed
}

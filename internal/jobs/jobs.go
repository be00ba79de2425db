// Package jobs runs the scheduled maintenance work: the daily patch activity
// snapshot that feeds the history chart, and the sweeper that marks servers
// offline once their agent stops checking in.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/patchdeck/internal/config"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/models"
)

// ActionConnectionLost is recorded for every server the sweeper flips offline.
const ActionConnectionLost = "Agent connection lost"

const (
	jobTimeout    = time.Minute
	minSweepEvery = 30 * time.Second
)

// Store is what the jobs write through.
type Store interface {
	SnapshotPatchActivity(ctx context.Context, day time.Time) (models.PatchActivityPoint, error)
	MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]models.Server, error)
	RecordActivity(ctx context.Context, action, serverName string, typ models.ActivityType) error
}

// Scheduler owns the cron runner and the registered jobs.
type Scheduler struct {
	cron         *cron.Cron
	store        Store
	offlineAfter time.Duration
	now          func() time.Time
	log          *logrus.Entry
}

// New registers the jobs enabled in cfg: the snapshot when patch_snapshot_cron
// is set, the sweeper when offline_after_seconds > 0.
func New(store Store, cfg *config.Config, log logrus.FieldLogger) (*Scheduler, error) {
	entry := logging.Component(log, "jobs")
	cronLog := cron.PrintfLogger(entry)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		store:        store,
		offlineAfter: cfg.OfflineThreshold(),
		now:          time.Now,
		log:          entry,
	}

	if cfg.PatchSnapshotCron != "" {
		if _, err := s.cron.AddFunc(cfg.PatchSnapshotCron, s.snapshotJob); err != nil {
			return nil, fmt.Errorf("patch_snapshot_cron %q: %w", cfg.PatchSnapshotCron, err)
		}
	}
	if s.offlineAfter > 0 {
		every := s.offlineAfter / 2
		if every < minSweepEvery {
			every = minSweepEvery
		}
		s.cron.Schedule(cron.Every(every), cron.FuncJob(s.sweepJob))
	}
	return s, nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("scheduler started with %d job(s)", s.Jobs())
}

// Stop stops scheduling and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunSnapshot records today's patch activity point.
func (s *Scheduler) RunSnapshot(ctx context.Context) error {
	point, err := s.store.SnapshotPatchActivity(ctx, s.now())
	if err != nil {
		return err
	}
	s.log.Infof("patch snapshot %s: %d pending, %d critical",
		point.Date.Format("2006-01-02"), point.TotalPatches, point.CriticalPatches)
	return nil
}

// RunSweep marks servers that have been silent longer than offline_after
// as offline and records one warning activity per server.
func (s *Scheduler) RunSweep(ctx context.Context) error {
	if s.offlineAfter <= 0 {
		return nil
	}
	stale, err := s.store.MarkStaleOffline(ctx, s.now().Add(-s.offlineAfter))
	if err != nil {
		return err
	}
	for _, srv := range stale {
		s.log.WithField("server_id", srv.ID).Warnf("%s has not checked in for %s, marked offline", srv.Name, s.offlineAfter)
		if err := s.store.RecordActivity(ctx, ActionConnectionLost, srv.Name, models.ActivityWarning); err != nil {
			s.log.WithError(err).Warn("could not record activity")
		}
	}
	return nil
}

func (s *Scheduler) snapshotJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := s.RunSnapshot(ctx); err != nil {
		s.log.WithError(err).Error("patch snapshot failed")
	}
}

func (s *Scheduler) sweepJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := s.RunSweep(ctx); err != nil {
		s.log.WithError(err).Error("offline sweep failed")
	}
}

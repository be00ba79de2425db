package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
)

// FleetStats runs the four independent fleet counters. They are not wrapped
// in one transaction, so under concurrent writes the counts may disagree
// with each other by the writes that landed in between.
func (s *Store) FleetStats(ctx context.Context) (models.FleetStats, error) {
	db, release := s.p.Session(ctx)
	defer release()

	var st models.FleetStats
	if err := db.Model(&models.Server{}).Count(&st.TotalServers).Error; err != nil {
		return models.FleetStats{}, apperr.Infrastructure(errors.Wrap(err, "count servers"))
	}
	if err := db.Model(&models.Server{}).Where("status = ?", models.StatusOnline).Count(&st.OnlineServers).Error; err != nil {
		return models.FleetStats{}, apperr.Infrastructure(errors.Wrap(err, "count online servers"))
	}
	if err := db.Model(&models.Server{}).Where("status = ?", models.StatusOffline).Count(&st.OfflineServers).Error; err != nil {
		return models.FleetStats{}, apperr.Infrastructure(errors.Wrap(err, "count offline servers"))
	}

	var pending sql.NullInt64
	if err := db.Model(&models.Server{}).Select("SUM(pending_updates)").Row().Scan(&pending); err != nil {
		return models.FleetStats{}, apperr.Infrastructure(errors.Wrap(err, "sum pending updates"))
	}
	if pending.Valid {
		st.PendingUpdates = pending.Int64
	}
	return st, nil
}

// LastSync returns the newest last_check_in across the fleet, or nil when no
// server has one.
func (s *Store) LastSync(ctx context.Context) (*time.Time, error) {
	db, release := s.p.Session(ctx)
	defer release()

	var ts nullTimestamp
	if err := db.Model(&models.Server{}).Select("MAX(last_check_in)").Row().Scan(&ts); err != nil {
		return nil, apperr.Infrastructure(errors.Wrap(err, "max last check-in"))
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PatchActivity returns the newest days points of the patch history in
// chronological order.
func (s *Store) PatchActivity(ctx context.Context, days int) ([]models.PatchActivityPoint, error) {
	db, release := s.p.Session(ctx)
	defer release()

	points := make([]models.PatchActivityPoint, 0, days)
	if err := db.Order("date desc").Limit(days).Find(&points).Error; err != nil {
		return nil, apperr.Infrastructure(errors.Wrap(err, "patch activity history"))
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// SnapshotPatchActivity records the day's point from the current patch table:
// all pending patches, and the critical ones among them. Re-running it for
// the same day overwrites that day's point.
func (s *Store) SnapshotPatchActivity(ctx context.Context, day time.Time) (models.PatchActivityPoint, error) {
	db, release := s.p.Session(ctx)
	defer release()

	var total, critical int64
	if err := db.Model(&models.Patch{}).Where("status = ?", models.PatchPending).Count(&total).Error; err != nil {
		return models.PatchActivityPoint{}, apperr.Infrastructure(errors.Wrap(err, "count pending patches"))
	}
	if err := db.Model(&models.Patch{}).
		Where("status = ? AND severity = ?", models.PatchPending, models.SeverityCritical).
		Count(&critical).Error; err != nil {
		return models.PatchActivityPoint{}, apperr.Infrastructure(errors.Wrap(err, "count critical patches"))
	}

	point := models.PatchActivityPoint{
		Date:            calendarDay(day),
		TotalPatches:    int(total),
		CriticalPatches: int(critical),
	}
	if err := upsertPoints(db, []models.PatchActivityPoint{point}); err != nil {
		return models.PatchActivityPoint{}, apperr.Infrastructure(err)
	}
	return point, nil
}

// SavePatchActivity upserts points by date.
func (s *Store) SavePatchActivity(ctx context.Context, points []models.PatchActivityPoint) error {
	if len(points) == 0 {
		return nil
	}
	db, release := s.p.Session(ctx)
	defer release()

	return apperr.Infrastructure(upsertPoints(db, points))
}

func upsertPoints(db *gorm.DB, points []models.PatchActivityPoint) error {
	rows := make([]models.PatchActivityPoint, len(points))
	for i, p := range points {
		rows[i] = models.PatchActivityPoint{
			Date:            calendarDay(p.Date),
			TotalPatches:    p.TotalPatches,
			CriticalPatches: p.CriticalPatches,
		}
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_patches", "critical_patches"}),
	}).Create(&rows).Error
	return errors.Wrap(err, "save patch activity")
}

// calendarDay keeps the date of t and drops the clock, pinned to UTC so the
// unique date column compares equal across writers.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

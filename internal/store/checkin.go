package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
	"gorm.io/gorm"
)

// CheckIn applies an agent or probe report to a server: it goes online, its
// last_check_in moves to now and the reported fields replace the stored ones.
// first is true when the server had never reported an agent version before.
func (s *Store) CheckIn(ctx context.Context, id uint, report models.CheckIn) (srv *models.Server, first bool, err error) {
	if report.PendingUpdates != nil && *report.PendingUpdates < 0 {
		return nil, false, apperr.Validation("pending_updates must be >= 0")
	}

	db, release := s.p.Session(ctx)
	defer release()

	var current models.Server
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("server")
			}
			return errors.Wrapf(err, "get server %d", id)
		}
		first = current.AgentVersion == "" || current.AgentVersion == models.DefaultVersion

		updates := map[string]any{
			"status":        string(models.StatusOnline),
			"last_check_in": s.checkInStamp(),
		}
		if report.KernelVersion != "" {
			updates["kernel_version"] = report.KernelVersion
		}
		if report.AgentVersion != "" {
			updates["agent_version"] = report.AgentVersion
		}
		if report.Uptime != "" {
			updates["uptime"] = report.Uptime
		}
		if report.OSType != "" {
			updates["os_type"] = report.OSType
		}
		if report.PendingUpdates != nil {
			updates["pending_updates"] = *report.PendingUpdates
		}
		if err := tx.Model(&models.Server{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return errors.Wrapf(err, "check in server %d", id)
		}
		return errors.Wrapf(tx.First(&current, id).Error, "reload server %d", id)
	})
	if err != nil {
		return nil, false, apperr.Infrastructure(err)
	}
	return &current, first, nil
}

// MarkStaleOffline flips online servers whose last check-in is older than
// cutoff to offline and returns them. cutoff may be in any zone.
func (s *Store) MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]models.Server, error) {
	db, release := s.p.Session(ctx)
	defer release()

	stale := make([]models.Server, 0)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ? AND last_check_in < ?", models.StatusOnline, cutoff.UTC()).
			Order("id asc").Find(&stale).Error; err != nil {
			return errors.Wrap(err, "find stale servers")
		}
		if len(stale) == 0 {
			return nil
		}
		ids := make([]uint, len(stale))
		for i := range stale {
			ids[i] = stale[i].ID
			stale[i].Status = models.StatusOffline
		}
		return errors.Wrap(
			tx.Model(&models.Server{}).Where("id IN ?", ids).Update("status", string(models.StatusOffline)).Error,
			"mark servers offline",
		)
	})
	if err != nil {
		return nil, apperr.Infrastructure(err)
	}
	return stale, nil
}

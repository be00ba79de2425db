package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
	"gorm.io/gorm"
)

// ListServers returns every server ordered by id; an empty fleet is an empty slice.
func (s *Store) ListServers(ctx context.Context) ([]models.Server, error) {
	db, release := s.p.Session(ctx)
	defer release()

	servers := make([]models.Server, 0)
	if err := db.Order("id asc").Find(&servers).Error; err != nil {
		return nil, apperr.Infrastructure(errors.Wrap(err, "list servers"))
	}
	return servers, nil
}

// GetServer fetches one server by id.
func (s *Store) GetServer(ctx context.Context, id uint) (*models.Server, error) {
	db, release := s.p.Session(ctx)
	defer release()

	var srv models.Server
	if err := db.First(&srv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("server")
		}
		return nil, apperr.Infrastructure(errors.Wrapf(err, "get server %d", id))
	}
	return &srv, nil
}

// CreateServer inserts a new, not yet seen server and returns its id.
// Agent-reported fields start at their placeholders until the first check-in.
func (s *Store) CreateServer(ctx context.Context, in models.NewServer) (uint, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.IPAddress = strings.TrimSpace(in.IPAddress)
	in.OSType = strings.TrimSpace(in.OSType)
	if err := s.check(in); err != nil {
		return 0, err
	}

	now := s.checkInStamp()
	srv := models.Server{
		Name:           in.Name,
		IPAddress:      in.IPAddress,
		OSType:         in.OSType,
		KernelVersion:  models.DefaultVersion,
		AgentVersion:   models.DefaultVersion,
		Status:         models.StatusOffline,
		LastCheckIn:    &now,
		Description:    deref(in.Description),
		AuthToken:      deref(in.AuthToken),
		Uptime:         models.DefaultUptime,
		PendingUpdates: 0,
	}

	db, release := s.p.Session(ctx)
	defer release()

	if err := db.Create(&srv).Error; err != nil {
		return 0, apperr.Infrastructure(errors.Wrap(err, "create server"))
	}
	s.log.WithField("server_id", srv.ID).Infof("server %s (%s) added", srv.Name, srv.IPAddress)
	return srv.ID, nil
}

// UpdateServer overwrites the editable fields of a server. Optional fields
// the caller leaves out are reset (description "", status offline, pending 0)
// rather than merged with the stored row.
func (s *Store) UpdateServer(ctx context.Context, id uint, in models.ServerUpdate) error {
	in.Name = strings.TrimSpace(in.Name)
	in.IPAddress = strings.TrimSpace(in.IPAddress)
	in.OSType = strings.TrimSpace(in.OSType)
	if in.Status != nil && *in.Status == "" {
		in.Status = nil
	}
	if err := s.check(in); err != nil {
		return err
	}

	status := models.StatusOffline
	if in.Status != nil {
		status = *in.Status
	}
	pending := 0
	if in.PendingUpdates != nil {
		pending = *in.PendingUpdates
	}

	db, release := s.p.Session(ctx)
	defer release()

	err := db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Server{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return apperr.Infrastructure(errors.Wrapf(err, "look up server %d", id))
		}
		if n == 0 {
			return apperr.NotFound("server")
		}
		err := tx.Model(&models.Server{}).Where("id = ?", id).Updates(map[string]any{
			"name":            in.Name,
			"ip_address":      in.IPAddress,
			"os_type":         in.OSType,
			"description":     deref(in.Description),
			"status":          string(status),
			"pending_updates": pending,
		}).Error
		if err != nil {
			return apperr.Infrastructure(errors.Wrapf(err, "update server %d", id))
		}
		return nil
	})
	if err != nil {
		return apperr.Infrastructure(err)
	}
	s.log.WithField("server_id", id).Info("server updated")
	return nil
}

// DeleteServer removes a server and, in the same transaction, its patches.
// Deleting an id that does not exist is not an error.
func (s *Store) DeleteServer(ctx context.Context, id uint) error {
	db, release := s.p.Session(ctx)
	defer release()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("server_id = ?", id).Delete(&models.Patch{}).Error; err != nil {
			return errors.Wrapf(err, "delete patches of server %d", id)
		}
		res := tx.Where("id = ?", id).Delete(&models.Server{})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "delete server %d", id)
		}
		if res.RowsAffected > 0 {
			s.log.WithField("server_id", id).Info("server deleted")
		}
		return nil
	})
	return apperr.Infrastructure(err)
}

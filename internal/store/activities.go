package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
)

// RecentActivities returns up to limit activities, newest first.
func (s *Store) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	db, release := s.p.Session(ctx)
	defer release()

	activities := make([]models.Activity, 0, limit)
	if err := db.Order("created_at desc").Order("id desc").Limit(limit).Find(&activities).Error; err != nil {
		return nil, apperr.Infrastructure(errors.Wrap(err, "recent activities"))
	}
	return activities, nil
}

// RecordActivity appends an event. created_at is stamped here, never taken
// from the caller.
func (s *Store) RecordActivity(ctx context.Context, action, serverName string, typ models.ActivityType) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return apperr.Validation("activity action is required")
	}
	a := models.Activity{
		Action:       action,
		ServerName:   serverName,
		ActivityType: typ,
		CreatedAt:    s.now(),
	}

	db, release := s.p.Session(ctx)
	defer release()

	if err := db.Create(&a).Error; err != nil {
		return apperr.Infrastructure(errors.Wrap(err, "record activity"))
	}
	return nil
}

package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
)

// GetPatchesForServer lists the patches recorded for serverID. It does not
// check that the server exists: an unknown id yields an empty list.
func (s *Store) GetPatchesForServer(ctx context.Context, serverID uint) (models.ServerPatches, error) {
	db, release := s.p.Session(ctx)
	defer release()

	patches := make([]models.Patch, 0)
	if err := db.Where("server_id = ?", serverID).Order("id asc").Find(&patches).Error; err != nil {
		return models.ServerPatches{}, apperr.Infrastructure(errors.Wrapf(err, "list patches of server %d", serverID))
	}
	return models.ServerPatches{ServerID: serverID, Patches: patches}, nil
}

// CreatePatch records a patch for an existing server. Only presence of the
// server id is checked here; the foreign key does the rest.
func (s *Store) CreatePatch(ctx context.Context, p models.Patch) (uint, error) {
	p.PackageName = strings.TrimSpace(p.PackageName)
	if p.ServerID == 0 || p.PackageName == "" {
		return 0, apperr.Validation(MsgMissingFields)
	}
	if p.Status == "" {
		p.Status = models.PatchPending
	}
	p.ID = 0
	p.Server = nil

	db, release := s.p.Session(ctx)
	defer release()

	if err := db.Create(&p).Error; err != nil {
		return 0, apperr.Infrastructure(errors.Wrapf(err, "create patch for server %d", p.ServerID))
	}
	return p.ID, nil
}

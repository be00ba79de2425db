package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/models"
	"gorm.io/gorm"
)

// SeedServer is a server together with the patches to attach to it.
type SeedServer struct {
	Server  models.Server
	Patches []models.Patch
}

// SeedData is a full demo data set.
type SeedData struct {
	Servers       []SeedServer
	PatchActivity []models.PatchActivityPoint
	Activities    []models.Activity
}

// DemoData is the small demo fleet: two servers, two patches, a week of
// patch activity and two activity entries.
func DemoData(now time.Time) SeedData {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return SeedData{
		Servers: []SeedServer{
			{
				Server: models.Server{
					Name: "Server-01", IPAddress: "10.0.0.1", OSType: "Ubuntu",
					Status: models.StatusOnline, LastCheckIn: &now, PendingUpdates: 1,
				},
				Patches: []models.Patch{{
					PackageName: "openssl", CurrentVersion: "3.0.2", AvailableVersion: "3.0.13",
					Description: "OpenSSL security update",
					Severity:    models.SeverityCritical, Status: models.PatchPending,
				}},
			},
			{
				Server: models.Server{
					Name: "Server-02", IPAddress: "10.0.0.2", OSType: "Rocky",
					Status: models.StatusOffline, LastCheckIn: &now,
				},
				Patches: []models.Patch{{
					PackageName: "nginx", CurrentVersion: "1.20.1", AvailableVersion: "1.24.0",
					Description: "nginx stable update",
					Severity:    models.SeverityHigh, Status: models.PatchApplied,
				}},
			},
		},
		PatchActivity: []models.PatchActivityPoint{
			{Date: day("2025-10-15"), TotalPatches: 24, CriticalPatches: 8},
			{Date: day("2025-10-16"), TotalPatches: 18, CriticalPatches: 5},
			{Date: day("2025-10-17"), TotalPatches: 32, CriticalPatches: 12},
			{Date: day("2025-10-18"), TotalPatches: 28, CriticalPatches: 9},
			{Date: day("2025-10-19"), TotalPatches: 15, CriticalPatches: 4},
			{Date: day("2025-10-20"), TotalPatches: 22, CriticalPatches: 7},
			{Date: day("2025-10-21"), TotalPatches: 35, CriticalPatches: 11},
		},
		Activities: []models.Activity{
			{Action: "Patch deployment successful", ServerName: "Server-01", ActivityType: models.ActivitySuccess},
			{Action: "Critical updates available", ServerName: "Server-02", ActivityType: models.ActivityWarning},
		},
	}
}

// Seed loads data in one transaction. With reset, all four tables are
// emptied first.
func (s *Store) Seed(ctx context.Context, data SeedData, reset bool) error {
	db, release := s.p.Session(ctx)
	defer release()

	err := db.Transaction(func(tx *gorm.DB) error {
		if reset {
			all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
			for _, m := range []any{&models.Patch{}, &models.Server{}, &models.Activity{}, &models.PatchActivityPoint{}} {
				if err := all.Delete(m).Error; err != nil {
					return errors.Wrap(err, "reset tables")
				}
			}
		}

		for _, ss := range data.Servers {
			srv := ss.Server
			srv.ID = 0
			fillServerDefaults(&srv)
			if srv.LastCheckIn != nil {
				utc := srv.LastCheckIn.UTC()
				srv.LastCheckIn = &utc
			}
			if err := tx.Create(&srv).Error; err != nil {
				return errors.Wrapf(err, "seed server %s", srv.Name)
			}
			for _, p := range ss.Patches {
				p.ID = 0
				p.ServerID = srv.ID
				p.Server = nil
				if err := tx.Create(&p).Error; err != nil {
					return errors.Wrapf(err, "seed patch %s", p.PackageName)
				}
			}
		}

		if len(data.PatchActivity) > 0 {
			if err := upsertPoints(tx, data.PatchActivity); err != nil {
				return err
			}
		}

		now := s.now()
		for _, a := range data.Activities {
			a.ID = 0
			a.CreatedAt = now
			if err := tx.Create(&a).Error; err != nil {
				return errors.Wrap(err, "seed activity")
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Infrastructure(err)
	}
	s.log.Infof("seeded %d servers, %d activity points, %d activities",
		len(data.Servers), len(data.PatchActivity), len(data.Activities))
	return nil
}

func fillServerDefaults(srv *models.Server) {
	if srv.KernelVersion == "" {
		srv.KernelVersion = models.DefaultVersion
	}
	if srv.AgentVersion == "" {
		srv.AgentVersion = models.DefaultVersion
	}
	if srv.Uptime == "" {
		srv.Uptime = models.DefaultUptime
	}
	if !srv.Status.Valid() {
		srv.Status = models.StatusOffline
	}
}

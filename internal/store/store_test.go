package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/config"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/models"
)

// tickClock advances one second per call so ordering by timestamp is stable.
type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) (*Store, *tickClock) {
	t.Helper()

	cfg := &config.Config{
		DBDriver:       "sqlite",
		DBPath:         filepath.Join(t.TempDir(), "patchdeck.db"),
		DBQueryTimeout: 5,
		DBMaxOpenConns: 1,
	}
	db, err := Open(cfg, logging.Discard())
	require.NoError(t, err)

	p := NewProvider(db, cfg.QueryTimeout())
	t.Cleanup(func() { _ = p.Close() })

	clk := &tickClock{t: time.Date(2025, 10, 21, 9, 0, 0, 0, time.UTC)}
	return New(p, WithClock(clk.Now), WithLogger(logging.Discard())), clk
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func statusPtr(s models.ServerStatus) *models.ServerStatus { return &s }

func mustCreate(t *testing.T, s *Store, name string) uint {
	t.Helper()
	id, err := s.CreateServer(context.Background(), models.NewServer{
		Name: name, IPAddress: "10.0.0.9", OSType: "Ubuntu",
	})
	require.NoError(t, err)
	return id
}

func TestCreateServerAppliesDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateServer(ctx, models.NewServer{
		Name:      "Server-09",
		IPAddress: "10.0.0.9",
		OSType:    "Ubuntu",
		AuthToken: strPtr("tok-09"),
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	srv, err := s.GetServer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Server-09", srv.Name)
	assert.Equal(t, models.StatusOffline, srv.Status)
	assert.Equal(t, 0, srv.PendingUpdates)
	assert.Equal(t, "N/A", srv.KernelVersion)
	assert.Equal(t, "N/A", srv.AgentVersion)
	assert.Equal(t, "0 days", srv.Uptime)
	assert.Equal(t, "", srv.Description)
	assert.Equal(t, "tok-09", srv.AuthToken)
	require.NotNil(t, srv.LastCheckIn)
}

func TestCreateServerValidation(t *testing.T) {
	tests := []struct {
		name  string
		input models.NewServer
	}{
		{"missing name", models.NewServer{IPAddress: "10.0.0.1", OSType: "Ubuntu"}},
		{"missing ip", models.NewServer{Name: "s", OSType: "Ubuntu"}},
		{"missing os", models.NewServer{Name: "s", IPAddress: "10.0.0.1"}},
		{"blank name", models.NewServer{Name: "   ", IPAddress: "10.0.0.1", OSType: "Ubuntu"}},
		{"all missing", models.NewServer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			ctx := context.Background()

			_, err := s.CreateServer(ctx, tt.input)
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, MsgMissingFields, err.Error())

			servers, err := s.ListServers(ctx)
			require.NoError(t, err)
			assert.Empty(t, servers)
		})
	}
}

func TestListServersOrderedByID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	servers, err := s.ListServers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, servers)
	assert.Empty(t, servers)

	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")
	c := mustCreate(t, s, "c")

	servers, err = s.ListServers(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 3)
	assert.Equal(t, []uint{a, b, c}, []uint{servers[0].ID, servers[1].ID, servers[2].ID})
}

func TestGetServerNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetServer(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateServerOverwritesOmittedFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, "web-1")

	err := s.UpdateServer(ctx, id, models.ServerUpdate{
		Name:           "web-1",
		IPAddress:      "10.0.0.10",
		OSType:         "Debian",
		Description:    strPtr("frontend"),
		Status:         statusPtr(models.StatusOnline),
		PendingUpdates: intPtr(4),
	})
	require.NoError(t, err)

	srv, err := s.GetServer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, srv.Status)
	assert.Equal(t, 4, srv.PendingUpdates)
	assert.Equal(t, "frontend", srv.Description)
	assert.Equal(t, "10.0.0.10", srv.IPAddress)

	err = s.UpdateServer(ctx, id, models.ServerUpdate{
		Name:      "web-1",
		IPAddress: "10.0.0.10",
		OSType:    "Debian",
	})
	require.NoError(t, err)

	srv, err = s.GetServer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffline, srv.Status)
	assert.Equal(t, 0, srv.PendingUpdates)
	assert.Equal(t, "", srv.Description)
	assert.Equal(t, "N/A", srv.KernelVersion, "agent fields are not part of the overwrite")
}

func TestUpdateServerErrors(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, "db-1")

	valid := func() models.ServerUpdate {
		return models.ServerUpdate{Name: "db-1", IPAddress: "10.0.0.11", OSType: "Rocky"}
	}

	t.Run("not found", func(t *testing.T) {
		err := s.UpdateServer(ctx, id+100, valid())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("missing required", func(t *testing.T) {
		in := valid()
		in.OSType = ""
		err := s.UpdateServer(ctx, id, in)
		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, MsgMissingFields, err.Error())
	})

	t.Run("unknown status", func(t *testing.T) {
		in := valid()
		in.Status = statusPtr("maintenance")
		err := s.UpdateServer(ctx, id, in)
		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Contains(t, err.Error(), "status")
	})

	t.Run("negative pending updates", func(t *testing.T) {
		in := valid()
		in.PendingUpdates = intPtr(-1)
		err := s.UpdateServer(ctx, id, in)
		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Contains(t, err.Error(), "pending_updates")
	})

	t.Run("empty status means default", func(t *testing.T) {
		in := valid()
		in.Status = statusPtr("")
		require.NoError(t, s.UpdateServer(ctx, id, in))
		srv, err := s.GetServer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOffline, srv.Status)
	})
}

func TestDeleteServerIsIdempotentAndCascades(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, "old-box")
	keep := mustCreate(t, s, "keeper")

	_, err := s.CreatePatch(ctx, models.Patch{ServerID: id, PackageName: "openssl", Severity: models.SeverityCritical})
	require.NoError(t, err)
	_, err = s.CreatePatch(ctx, models.Patch{ServerID: keep, PackageName: "curl", Severity: models.SeverityLow})
	require.NoError(t, err)

	require.NoError(t, s.DeleteServer(ctx, id))
	require.NoError(t, s.DeleteServer(ctx, id), "second delete must also succeed")
	require.NoError(t, s.DeleteServer(ctx, 9999))

	_, err = s.GetServer(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	gone, err := s.GetPatchesForServer(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, gone.Patches)

	kept, err := s.GetPatchesForServer(ctx, keep)
	require.NoError(t, err)
	assert.Len(t, kept.Patches, 1)
}

func TestGetPatchesForServer(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, "app-1")

	empty, err := s.GetPatchesForServer(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, uint(77), empty.ServerID)
	assert.NotNil(t, empty.Patches)
	assert.Empty(t, empty.Patches)

	_, err = s.CreatePatch(ctx, models.Patch{
		ServerID: id, PackageName: "nginx", CurrentVersion: "1.20.1", AvailableVersion: "1.24.0",
		Severity: models.SeverityHigh,
	})
	require.NoError(t, err)

	got, err := s.GetPatchesForServer(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Patches, 1)
	assert.Equal(t, "nginx", got.Patches[0].PackageName)
	assert.Equal(t, models.PatchPending, got.Patches[0].Status)
}

func TestCreatePatchRequiresServerAndPackage(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.CreatePatch(context.Background(), models.Patch{PackageName: "bash"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreatePatch(context.Background(), models.Patch{ServerID: 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFleetStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	st, err := s.FleetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FleetStats{}, st)

	for i, pending := range []int{3, 0, 7} {
		id := mustCreate(t, s, "srv")
		status := models.StatusOffline
		if i != 1 {
			status = models.StatusOnline
		}
		require.NoError(t, s.UpdateServer(ctx, id, models.ServerUpdate{
			Name: "srv", IPAddress: "10.0.0.1", OSType: "Ubuntu",
			Status: statusPtr(status), PendingUpdates: intPtr(pending),
		}))
	}

	st, err = s.FleetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalServers)
	assert.Equal(t, int64(2), st.OnlineServers)
	assert.Equal(t, int64(1), st.OfflineServers)
	assert.Equal(t, int64(10), st.PendingUpdates)
	assert.Equal(t, st.TotalServers, st.OnlineServers+st.OfflineServers)
}

func TestLastSync(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	ts, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.Nil(t, ts)

	mustCreate(t, s, "a")
	mustCreate(t, s, "b")
	newest := clk.t

	ts, err = s.LastSync(ctx)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, newest.Equal(*ts), "want %s got %s", newest, ts)
}

func TestRecentActivitiesNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	empty, err := s.RecentActivities(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 1; i <= 8; i++ {
		require.NoError(t, s.RecordActivity(ctx, "event", "Server-0"+string(rune('0'+i)), models.ActivityInfo))
	}

	got, err := s.RecentActivities(ctx, 6)
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, "Server-08", got[0].ServerName)
	assert.Equal(t, "Server-03", got[5].ServerName)
	assert.True(t, got[0].CreatedAt.After(got[5].CreatedAt))

	assert.ErrorIs(t, s.RecordActivity(ctx, " ", "x", models.ActivityInfo), apperr.ErrValidation)
}

func TestSnapshotPatchActivity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, "app-1")

	for _, p := range []models.Patch{
		{ServerID: id, PackageName: "openssl", Severity: models.SeverityCritical},
		{ServerID: id, PackageName: "kernel", Severity: models.SeverityCritical},
		{ServerID: id, PackageName: "vim", Severity: models.SeverityLow},
		{ServerID: id, PackageName: "nginx", Severity: models.SeverityCritical, Status: models.PatchApplied},
	} {
		_, err := s.CreatePatch(ctx, p)
		require.NoError(t, err)
	}

	day := time.Date(2025, 10, 22, 17, 30, 0, 0, time.UTC)
	point, err := s.SnapshotPatchActivity(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, point.TotalPatches)
	assert.Equal(t, 2, point.CriticalPatches)

	// same day again overwrites instead of duplicating
	_, err = s.SnapshotPatchActivity(ctx, day.Add(time.Hour))
	require.NoError(t, err)

	history, err := s.PatchActivity(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Oct 22", models.EntryFromPoint(history[0]).Date)
}

func TestPatchActivityReturnsNewestDaysAscending(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	points := DemoData(time.Now()).PatchActivity
	extra := models.PatchActivityPoint{Date: time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC), TotalPatches: 1}
	require.NoError(t, s.SavePatchActivity(ctx, append([]models.PatchActivityPoint{extra}, points...)))

	history, err := s.PatchActivity(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 7)
	assert.Equal(t, "Oct 15", models.EntryFromPoint(history[0]).Date)
	assert.Equal(t, "Oct 21", models.EntryFromPoint(history[6]).Date)
	assert.Equal(t, 35, history[6].TotalPatches)
}

func TestCheckIn(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, "edge-1")

	srv, first, err := s.CheckIn(ctx, id, models.CheckIn{
		KernelVersion:  "6.8.0-45-generic",
		AgentVersion:   "v0.2.0",
		Uptime:         "3 days",
		PendingUpdates: intPtr(12),
	})
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, models.StatusOnline, srv.Status)
	assert.Equal(t, "6.8.0-45-generic", srv.KernelVersion)
	assert.Equal(t, "v0.2.0", srv.AgentVersion)
	assert.Equal(t, "3 days", srv.Uptime)
	assert.Equal(t, 12, srv.PendingUpdates)
	assert.Equal(t, "Ubuntu", srv.OSType)

	srv, first, err = s.CheckIn(ctx, id, models.CheckIn{AgentVersion: "v0.2.0", Uptime: "4 days"})
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, 12, srv.PendingUpdates, "pending updates kept when not reported")

	_, _, err = s.CheckIn(ctx, id+1, models.CheckIn{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = s.CheckIn(ctx, id, models.CheckIn{PendingUpdates: intPtr(-2)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMarkStaleOffline(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	stale := mustCreate(t, s, "stale")
	_, _, err := s.CheckIn(ctx, stale, models.CheckIn{AgentVersion: "v1"})
	require.NoError(t, err)

	clk.t = clk.t.Add(time.Hour)
	fresh := mustCreate(t, s, "fresh")
	_, _, err = s.CheckIn(ctx, fresh, models.CheckIn{AgentVersion: "v1"})
	require.NoError(t, err)

	flipped, err := s.MarkStaleOffline(ctx, clk.t.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Len(t, flipped, 1)
	assert.Equal(t, stale, flipped[0].ID)

	srv, err := s.GetServer(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffline, srv.Status)

	srv, err = s.GetServer(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, srv.Status)
}

func TestMarkStaleOfflineAcrossZones(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	clk.t = time.Date(2025, 10, 21, 11, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	id := mustCreate(t, s, "berlin")
	srv, _, err := s.CheckIn(ctx, id, models.CheckIn{AgentVersion: "v1"})
	require.NoError(t, err)
	require.NotNil(t, srv.LastCheckIn)
	checked := *srv.LastCheckIn
	assert.Equal(t, 9, checked.UTC().Hour())

	est := time.FixedZone("EST", -5*60*60)

	flipped, err := s.MarkStaleOffline(ctx, checked.Add(-time.Second).In(est))
	require.NoError(t, err)
	assert.Empty(t, flipped)

	flipped, err = s.MarkStaleOffline(ctx, checked.Add(time.Second).In(est))
	require.NoError(t, err)
	require.Len(t, flipped, 1)
	assert.Equal(t, id, flipped[0].ID)
}

func TestSeedDemoData(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "leftover")
	require.NoError(t, s.Seed(ctx, DemoData(time.Now()), true))

	servers, err := s.ListServers(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "Server-01", servers[0].Name)
	assert.Equal(t, "N/A", servers[0].KernelVersion)

	patches, err := s.GetPatchesForServer(ctx, servers[0].ID)
	require.NoError(t, err)
	require.Len(t, patches.Patches, 1)
	assert.Equal(t, "openssl", patches.Patches[0].PackageName)

	history, err := s.PatchActivity(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, history, 7)

	activities, err := s.RecentActivities(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, activities, 2)
}

func TestNullTimestampScan(t *testing.T) {
	ref := time.Date(2025, 10, 21, 14, 3, 22, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{"nil", nil, false},
		{"time", ref, true},
		{"sqlite text", "2025-10-21 14:03:22+00:00", true},
		{"sqlite text with nanos", "2025-10-21 14:03:22.000000000+00:00", true},
		{"mysql bytes", []byte("2025-10-21T14:03:22Z"), true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts nullTimestamp
			require.NoError(t, ts.Scan(tt.value))
			assert.Equal(t, tt.valid, ts.Valid)
			if tt.valid {
				assert.True(t, ref.Equal(ts.Time), "got %s", ts.Time)
			}
		})
	}

	var ts nullTimestamp
	assert.Error(t, ts.Scan(42))
	assert.Error(t, ts.Scan("yesterday"))
}

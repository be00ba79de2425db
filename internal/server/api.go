// Package server provides the Patchdeck gin-based REST API.
// Routes are split into two groups:
//   - Control plane (port 5000): dashboard, server and patch API for the UI.
//   - Data plane    (port 5001): agent check-ins, Bearer JWT protected.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/models"
	"github.com/vesaa/patchdeck/internal/probe"
)

// Response messages the UI matches on.
const (
	MsgRunning        = "Patch Management API is running"
	MsgServerAdded    = "Server added successfully"
	MsgServerUpdated  = "Server updated successfully"
	MsgServerDeleted  = "Server deleted successfully"
	MsgServerNotFound = "Server not found"
)

// Activity actions recorded by the API.
const (
	ActionAgentConnected = "New agent connected"
	ActionAgentSynced    = "Agent sync completed"
	ActionResynced       = "Server resync completed"
)

// Fleet is the repository surface the handlers use.
type Fleet interface {
	ListServers(ctx context.Context) ([]models.Server, error)
	GetServer(ctx context.Context, id uint) (*models.Server, error)
	CreateServer(ctx context.Context, in models.NewServer) (uint, error)
	UpdateServer(ctx context.Context, id uint, in models.ServerUpdate) error
	DeleteServer(ctx context.Context, id uint) error
	GetPatchesForServer(ctx context.Context, serverID uint) (models.ServerPatches, error)
	FleetStats(ctx context.Context) (models.FleetStats, error)
	CheckIn(ctx context.Context, id uint, report models.CheckIn) (*models.Server, bool, error)
	RecordActivity(ctx context.Context, action, serverName string, typ models.ActivityType) error
	Ping(ctx context.Context) error
}

// Summarizer builds the dashboard summary.
type Summarizer interface {
	Summary(ctx context.Context) (*models.DashboardSummary, error)
}

// API holds the handler dependencies. It keeps no state between requests.
type API struct {
	fleet       Fleet
	dash        Summarizer
	prober      probe.Prober
	agentSecret string
	log         *logrus.Entry
}

// NewAPI wires the handlers. prober may be nil, in which case resync
// answers 501.
func NewAPI(fleet Fleet, dash Summarizer, prober probe.Prober, agentSecret string, log logrus.FieldLogger) *API {
	return &API{
		fleet:       fleet,
		dash:        dash,
		prober:      prober,
		agentSecret: agentSecret,
		log:         logging.Component(log, "http"),
	}
}

// RegisterControlRoutes wires up the control-plane API on the given engine.
// Call this on the engine bound to the control port.
func (a *API) RegisterControlRoutes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": MsgRunning})
	})

	api := r.Group("/api")
	{
		api.GET("/dashboard", a.handleDashboard)

		api.GET("/servers", a.handleListServers)
		api.GET("/servers/:id", a.handleGetServer)
		api.POST("/servers", a.handleCreateServer)
		api.PUT("/servers/:id", a.handleUpdateServer)
		api.DELETE("/servers/:id", a.handleDeleteServer)
		api.POST("/servers/:id/resync", a.handleResync)

		api.GET("/patches/stats", a.handlePatchStats)
		api.GET("/patches/:server_id", a.handleServerPatches)
	}
}

// RegisterDataRoutes wires up the data-plane API on the given engine.
// Every /api route requires a valid agent token; limiter runs before auth.
func (a *API) RegisterDataRoutes(r *gin.Engine, limiter gin.HandlerFunc) {
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	api := r.Group("/api", limiter, AgentAuthMiddleware(a.agentSecret))
	{
		api.POST("/agent/checkin", a.handleCheckIn)
	}

	// Data-plane health (no auth, used by load balancers); includes the database.
	r.GET("/healthz", a.handleHealth)
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func (a *API) handleHealth(c *gin.Context) {
	if err := a.fleet.Ping(c.Request.Context()); err != nil {
		a.log.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (a *API) handleDashboard(c *gin.Context) {
	sum, err := a.dash.Summary(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (a *API) handleListServers(c *gin.Context) {
	servers, err := a.fleet.ListServers(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, servers)
}

func (a *API) handleGetServer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	srv, err := a.fleet.GetServer(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, srv)
}

// handleCreateServer adds a server.
//
//	POST /api/servers
//	Body: { "name": "Server-09", "ip_address": "10.0.0.9", "os_type": "Ubuntu" }
func (a *API) handleCreateServer(c *gin.Context) {
	var in models.NewServer
	if !bindBody(c, &in) {
		return
	}
	id, err := a.fleet.CreateServer(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": MsgServerAdded, "id": id})
}

// handleUpdateServer overwrites a server. Omitted optional fields reset.
func (a *API) handleUpdateServer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.ServerUpdate
	if !bindBody(c, &in) {
		return
	}
	if err := a.fleet.UpdateServer(c.Request.Context(), id, in); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": MsgServerUpdated})
}

func (a *API) handleDeleteServer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := a.fleet.DeleteServer(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": MsgServerDeleted})
}

// handleResync refreshes an agentless server over SSH and applies the result
// like a check-in.
func (a *API) handleResync(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if a.prober == nil {
		a.fail(c, apperr.Unsupported("resync is not configured (set ssh_key_path or ssh_password)"))
		return
	}

	ctx := c.Request.Context()
	srv, err := a.fleet.GetServer(ctx, id)
	if err != nil {
		a.fail(c, err)
		return
	}
	report, err := a.prober.Probe(ctx, srv.IPAddress)
	if err != nil {
		a.fail(c, apperr.Unavailable("ssh probe "+srv.IPAddress, err))
		return
	}
	updated, _, err := a.fleet.CheckIn(ctx, id, report)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.record(ctx, ActionResynced, updated.Name, models.ActivitySuccess)
	c.JSON(http.StatusOK, updated)
}

func (a *API) handlePatchStats(c *gin.Context) {
	stats, err := a.fleet.FleetStats(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *API) handleServerPatches(c *gin.Context) {
	id, ok := pathID(c, "server_id")
	if !ok {
		return
	}
	patches, err := a.fleet.GetPatchesForServer(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, patches)
}

// handleCheckIn accepts an agent report (data plane only). The server id
// comes from the token, never from the body.
//
//	POST /api/agent/checkin
//	Body: { "kernel_version": "6.8.0-45-generic", "agent_version": "v0.2.0", "uptime": "3 days" }
func (a *API) handleCheckIn(c *gin.Context) {
	id := c.MustGet(ctxServerID).(uint)

	var report models.CheckIn
	if !bindBody(c, &report) {
		return
	}
	ctx := c.Request.Context()
	srv, first, err := a.fleet.CheckIn(ctx, id, report)
	if err != nil {
		a.fail(c, err)
		return
	}

	action := ActionAgentSynced
	if first {
		action = ActionAgentConnected
	}
	a.record(ctx, action, srv.Name, models.ActivityInfo)
	c.JSON(http.StatusOK, srv)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// fail writes err with the status of its kind. Missing servers use the
// message body the UI expects.
func (a *API) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(status, gin.H{"message": MsgServerNotFound})
		return
	case apperr.KindInfrastructure, apperr.KindUnavailable:
		a.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// record appends an activity; a failure is logged and does not fail the request.
func (a *API) record(ctx context.Context, action, serverName string, typ models.ActivityType) {
	if err := a.fleet.RecordActivity(ctx, action, serverName, typ); err != nil {
		a.log.WithError(err).Warnf("could not record activity %q", action)
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// bindBody decodes a JSON body into dst. An empty body leaves dst zero so
// the store's validation reports the missing fields.
func bindBody(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vesaa/patchdeck/internal/config"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/models"
)

// Version is reported as agent_version on every check-in.
const Version = "v0.1.0"

// Agent posts check-ins to the data plane on a fixed interval.
// Every request carries: Authorization: Bearer <agent token>
type Agent struct {
	base      string
	token     string
	serverID  uint
	interval  time.Duration
	collector *Collector
	client    *http.Client
	log       *logrus.Entry
}

// New builds an agent from config. cfg.AgentJoinAddr is the data-plane
// address, e.g. "10.0.0.1:5001"; cfg.AgentToken is issued by `patchdeck token`.
func New(cfg *config.Config, log logrus.FieldLogger) (*Agent, error) {
	if cfg.AgentJoinAddr == "" {
		return nil, fmt.Errorf("agent_join_addr is required")
	}
	if cfg.AgentToken == "" {
		return nil, fmt.Errorf("agent token is required (issue one with: patchdeck token --server-id N)")
	}
	interval := time.Duration(cfg.AgentInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	base := cfg.AgentJoinAddr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Agent{
		base:      strings.TrimRight(base, "/"),
		token:     cfg.AgentToken,
		serverID:  cfg.AgentServerID,
		interval:  interval,
		collector: NewCollector(),
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       logging.Component(log, "agent"),
	}, nil
}

// Run checks in immediately, then on every tick until ctx is cancelled.
// Failed check-ins are logged and retried on the next tick.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Infof("reporting to %s every %s", a.base, a.interval)
	a.tick(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("agent stopped")
			return nil
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Agent) tick(ctx context.Context) {
	srv, err := a.CheckIn(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.log.WithError(err).Warn("check-in failed")
		}
		return
	}
	if a.serverID != 0 && srv.ID != a.serverID {
		a.log.Warnf("token belongs to server %d, configured server id is %d", srv.ID, a.serverID)
	}
	a.log.WithField("server_id", srv.ID).Debugf("checked in as %s", srv.Name)
}

// CheckIn collects one report and posts it.
func (a *Agent) CheckIn(ctx context.Context) (*models.Server, error) {
	report, err := a.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	var srv models.Server
	if err := a.postJSON(ctx, a.base+"/api/agent/checkin", report, &srv); err != nil {
		return nil, err
	}
	return &srv, nil
}

// postJSON sends v as JSON with the Bearer token and decodes the reply into out.
func (a *Agent) postJSON(ctx context.Context, url string, v, out any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("server rejected token (401): check --token or agent_token in config")
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("server unknown to the control plane (404): was it deleted?")
	case resp.StatusCode >= 400:
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

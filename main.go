// Patchdeck: fleet patch tracking backend for the operations dashboard.
// Author: vesaa | License: MIT | https://github.com/vesaa/patchdeck
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vesaa/patchdeck/internal/agent"
	"github.com/vesaa/patchdeck/internal/config"
	"github.com/vesaa/patchdeck/internal/dashboard"
	"github.com/vesaa/patchdeck/internal/jobs"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/probe"
	"github.com/vesaa/patchdeck/internal/server"
	"github.com/vesaa/patchdeck/internal/store"
)

const version = "v0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "patchdeck",
		Short: "Patchdeck: fleet patch status and activity backend",
		Long: `Patchdeck tracks a fleet of servers, their pending OS patches and recent
operational activity, and serves it to the operations dashboard.`,
		SilenceUsage: true,
	}

	root.AddCommand(serverCmd(), agentCmd(), tokenCmd(), seedCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads config and builds the shared logger.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}

func openStore(cfg *config.Config, log *logrus.Logger) (*store.Store, error) {
	db, err := store.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return store.New(store.NewProvider(db, cfg.QueryTimeout()), store.WithLogger(log)), nil
}

// ── server subcommand ─────────────────────────────────────────────────────────

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the Patchdeck server (control plane 5000 + data plane 5001)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer st.Provider().Close()

			seed := dashboard.DefaultSeed()
			series, err := dashboard.NewSeriesSource(cfg.DashboardSeriesSource, seed, st)
			if err != nil {
				return err
			}
			agg := dashboard.New(st, st, series, seed, dashboard.WithLogger(log))

			var prober probe.Prober
			if p, err := probe.NewSSHProber(cfg, log); err == nil {
				prober = p
			} else {
				log.WithError(err).Info("SSH resync disabled")
			}

			api := server.NewAPI(st, agg, prober, cfg.AgentSecret, log)
			httpLog := logging.Component(log, "http")

			gin.SetMode(gin.ReleaseMode)

			// ── Control-plane engine (5000) ────────────────────────────────────
			ctrlEngine := gin.New()
			if err := server.TrustProxies(ctrlEngine, cfg.TrustedProxies); err != nil {
				return fmt.Errorf("trusted_proxies: %w", err)
			}
			ctrlEngine.Use(gin.Recovery(), server.RequestLogger(httpLog), server.CORS())
			api.RegisterControlRoutes(ctrlEngine)

			// ── Data-plane engine (5001) ───────────────────────────────────────
			dataEngine := gin.New()
			if err := server.TrustProxies(dataEngine, cfg.TrustedProxies); err != nil {
				return fmt.Errorf("trusted_proxies: %w", err)
			}
			dataEngine.Use(gin.Recovery(), server.RequestLogger(httpLog))
			api.RegisterDataRoutes(dataEngine, server.RateLimit(cfg.AgentRateLimit, cfg.AgentRateBurst))

			scheduler, err := jobs.New(st, cfg, log)
			if err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			ctrlAddr := net.JoinHostPort(cfg.ServerHost, strconv.Itoa(cfg.ControlPort))
			dataAddr := net.JoinHostPort(cfg.ServerHost, strconv.Itoa(cfg.DataPort))
			log.Infof("Patchdeck %s: control plane on http://%s, data plane on http://%s", version, ctrlAddr, dataAddr)

			// Run both servers concurrently; shut down gracefully on SIGINT/SIGTERM.
			ctrlSrv := &http.Server{Addr: ctrlAddr, Handler: ctrlEngine, ReadHeaderTimeout: 10 * time.Second}
			dataSrv := &http.Server{Addr: dataAddr, Handler: dataEngine, ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 2)
			go func() { errCh <- ctrlSrv.ListenAndServe() }()
			go func() { errCh <- dataSrv.ListenAndServe() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				log.Info("shutting down gracefully")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = ctrlSrv.Shutdown(shutdownCtx)
				_ = dataSrv.Shutdown(shutdownCtx)
				return nil
			}
		},
	}
}

// ── agent subcommand ──────────────────────────────────────────────────────────

func agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the Patchdeck agent on this server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			// CLI flags override config values.
			if join, _ := cmd.Flags().GetString("join"); join != "" {
				if _, _, err := net.SplitHostPort(join); err != nil {
					join = net.JoinHostPort(join, strconv.Itoa(cfg.DataPort))
				}
				cfg.AgentJoinAddr = join
			}
			if token, _ := cmd.Flags().GetString("token"); token != "" {
				cfg.AgentToken = token
			}
			if id, _ := cmd.Flags().GetUint("server-id"); id != 0 {
				cfg.AgentServerID = id
			}

			a, err := agent.New(cfg, log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
	cmd.Flags().String("join", "", "Data-plane address, e.g. 10.0.0.1 or 10.0.0.1:5001")
	cmd.Flags().String("token", "", "Agent token issued by `patchdeck token` (overrides config)")
	cmd.Flags().Uint("server-id", 0, "Server id the token was issued for")
	return cmd
}

// ── token subcommand ──────────────────────────────────────────────────────────

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an agent token for a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			id, _ := cmd.Flags().GetUint("server-id")
			token, err := server.GenerateAgentToken(cfg.AgentSecret, id, cfg.TokenTTL())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Uint("server-id", 0, "Server id the agent reports for")
	_ = cmd.MarkFlagRequired("server-id")
	return cmd
}

// ── seed subcommand ───────────────────────────────────────────────────────────

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo fleet, patches and activity history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer st.Provider().Close()

			reset, _ := cmd.Flags().GetBool("reset")
			return st.Seed(cmd.Context(), store.DemoData(time.Now()), reset)
		},
	}
	cmd.Flags().Bool("reset", false, "Empty all tables before seeding")
	return cmd
}

// ── version subcommand ────────────────────────────────────────────────────────

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Patchdeck version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Patchdeck %s (agent %s)\n", version, agent.Version)
		},
	}
}

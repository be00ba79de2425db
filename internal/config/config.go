// Package config provides configuration management for Patchdeck.
// It uses Viper to load settings from files and environment variables, after
// an optional .env file has been folded into the process environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for Patchdeck.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────────────
	ServerHost string `mapstructure:"server_host"`
	// TrustedProxies: peers whose X-Forwarded-For is honoured; empty = none
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	// ControlPort: dashboard API consumed by the UI
	ControlPort int `mapstructure:"control_port"`
	// DataPort: agent check-ins, Bearer JWT protected
	DataPort int `mapstructure:"data_port"`

	// ── Database ─────────────────────────────────────────────────────────────
	DBDriver string `mapstructure:"db_driver"` // "sqlite", "mysql" or "postgres"
	DBPath   string `mapstructure:"db_path"`   // used when db_driver = sqlite
	DBDSN    string `mapstructure:"db_dsn"`    // used when db_driver = mysql | postgres
	// DBQueryTimeout bounds every unit of work against the store.
	DBQueryTimeout    int `mapstructure:"db_query_timeout_seconds"`
	DBMaxOpenConns    int `mapstructure:"db_max_open_conns"`
	DBConnMaxLifetime int `mapstructure:"db_conn_max_lifetime_seconds"`

	// ── Logging ──────────────────────────────────────────────────────────────
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "text" or "json"

	// ── Agent channel ────────────────────────────────────────────────────────
	// AgentSecret: HS256 key for agent check-in tokens. Change it in production.
	AgentSecret    string  `mapstructure:"agent_secret"`
	AgentTokenTTL  int     `mapstructure:"agent_token_ttl_hours"` // 0 = no expiry
	AgentRateLimit float64 `mapstructure:"agent_rate_limit"`      // check-ins per second, 0 = unlimited
	AgentRateBurst int     `mapstructure:"agent_rate_burst"`
	AgentJoinAddr  string  `mapstructure:"agent_join_addr"`
	AgentInterval  int     `mapstructure:"agent_interval_seconds"`
	AgentServerID  uint    `mapstructure:"agent_server_id"`
	AgentToken     string  `mapstructure:"agent_token"`

	// ── SSH resync ───────────────────────────────────────────────────────────
	SSHUser       string `mapstructure:"ssh_user"`
	SSHKeyPath    string `mapstructure:"ssh_key_path"`
	SSHPassword   string `mapstructure:"ssh_password"`
	SSHKnownHosts string `mapstructure:"ssh_known_hosts"` // empty = accept any host key
	SSHTimeout    int    `mapstructure:"ssh_timeout_seconds"`

	// ── Dashboard & jobs ─────────────────────────────────────────────────────
	// DashboardSeriesSource: "static" (seed series) or "history" (patch_activities table)
	DashboardSeriesSource string `mapstructure:"dashboard_series_source"`
	// PatchSnapshotCron records one patch_activities point per run; empty disables it.
	PatchSnapshotCron string `mapstructure:"patch_snapshot_cron"`
	// OfflineAfter marks servers offline when they have not checked in for this
	// many seconds; 0 disables the sweeper.
	OfflineAfter int `mapstructure:"offline_after_seconds"`
}

// QueryTimeout returns DBQueryTimeout as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.DBQueryTimeout) * time.Second
}

// ConnMaxLifetime returns DBConnMaxLifetime as a duration.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetime) * time.Second
}

// TokenTTL returns AgentTokenTTL as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AgentTokenTTL) * time.Hour
}

// SSHDialTimeout returns SSHTimeout as a duration.
func (c *Config) SSHDialTimeout() time.Duration {
	return time.Duration(c.SSHTimeout) * time.Second
}

// OfflineThreshold returns OfflineAfter as a duration.
func (c *Config) OfflineThreshold() time.Duration {
	return time.Duration(c.OfflineAfter) * time.Second
}

// Load reads config from file (./config.yaml or ~/.patchdeck/config.yaml)
// and falls back to smart defaults. Environment variables with prefix
// PATCHDECK_ override file values; a .env file in the working directory is
// loaded into the environment first.
func Load() (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// --- Config file ---
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.patchdeck")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional; ignore "not found" errors
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// --- Environment Variables ---
	v.SetEnvPrefix("PATCHDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("control_port", 5000) // dashboard API
	v.SetDefault("data_port", 5001)    // agent check-ins

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_path", "patchdeck.db")
	v.SetDefault("db_dsn", "")
	v.SetDefault("db_query_timeout_seconds", 10)
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_conn_max_lifetime_seconds", 300)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Security default: MUST be overridden in production via config.yaml or env vars.
	v.SetDefault("agent_secret", "pd-Wq8#vN3!kT6$yR1@zL4^mB9&cX2")
	v.SetDefault("agent_token_ttl_hours", 0)
	v.SetDefault("agent_rate_limit", 20)
	v.SetDefault("agent_rate_burst", 40)
	v.SetDefault("agent_join_addr", "127.0.0.1:5001")
	v.SetDefault("agent_interval_seconds", 60)
	v.SetDefault("agent_server_id", 0)
	v.SetDefault("agent_token", "")

	v.SetDefault("ssh_user", "root")
	v.SetDefault("ssh_key_path", "")
	v.SetDefault("ssh_password", "")
	v.SetDefault("ssh_known_hosts", "")
	v.SetDefault("ssh_timeout_seconds", 15)

	v.SetDefault("dashboard_series_source", "static")
	v.SetDefault("patch_snapshot_cron", "@daily")
	v.SetDefault("offline_after_seconds", 0)
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported db_driver %q (use 'sqlite', 'mysql' or 'postgres')", c.DBDriver)
	}
	switch c.DashboardSeriesSource {
	case "static", "history":
	default:
		return fmt.Errorf("unsupported dashboard_series_source %q (use 'static' or 'history')", c.DashboardSeriesSource)
	}
	if c.DBQueryTimeout < 0 || c.OfflineAfter < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Package models defines the GORM models and API views for Patchdeck.
package models

import (
	"fmt"
	"time"
)

// ServerStatus is the reachability state of a managed host.
type ServerStatus string

const (
	StatusOnline  ServerStatus = "online"
	StatusOffline ServerStatus = "offline"
)

// Valid reports whether s is one of the known statuses.
func (s ServerStatus) Valid() bool {
	return s == StatusOnline || s == StatusOffline
}

// Defaults applied to freshly created servers until an agent reports in.
const (
	DefaultVersion = "N/A"
	DefaultUptime  = "0 days"
)

// FormatUptime renders an uptime the way the server list shows it: whole
// days, e.g. "15 days".
func FormatUptime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// Server is one managed host. Rows are deleted physically; there is no soft delete.
type Server struct {
	ID            uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string       `gorm:"size:100;not null" json:"name"`
	IPAddress     string       `gorm:"size:50;not null" json:"ip_address"`
	OSType        string       `gorm:"size:50;not null" json:"os_type"`
	KernelVersion string       `gorm:"size:100" json:"kernel_version"`
	AgentVersion  string       `gorm:"size:50" json:"agent_version"`
	Status        ServerStatus `gorm:"size:10;index;not null" json:"status"`
	// LastCheckIn is nil until the server has been seen at least once.
	LastCheckIn    *time.Time `json:"last_check_in"`
	Description    string     `gorm:"size:255" json:"description"`
	AuthToken      string     `gorm:"size:255" json:"auth_token"`
	Uptime         string     `gorm:"size:50" json:"uptime"`
	PendingUpdates int        `gorm:"not null" json:"pending_updates"`
}

func (Server) TableName() string { return "servers" }

// NewServer is the input of a create. Description and AuthToken are optional.
type NewServer struct {
	Name        string  `json:"name" validate:"required"`
	IPAddress   string  `json:"ip_address" validate:"required"`
	OSType      string  `json:"os_type" validate:"required"`
	Description *string `json:"description"`
	AuthToken   *string `json:"auth_token"`
}

// ServerUpdate is the input of a full overwrite. Omitted optional fields are
// reset to their defaults, not preserved.
type ServerUpdate struct {
	Name           string        `json:"name" validate:"required"`
	IPAddress      string        `json:"ip_address" validate:"required"`
	OSType         string        `json:"os_type" validate:"required"`
	Description    *string       `json:"description"`
	Status         *ServerStatus `json:"status" validate:"omitempty,oneof=online offline"`
	PendingUpdates *int          `json:"pending_updates" validate:"omitempty,gte=0"`
}

// CheckIn is what an agent (or an SSH probe) reports about a host.
type CheckIn struct {
	KernelVersion  string `json:"kernel_version"`
	AgentVersion   string `json:"agent_version"`
	Uptime         string `json:"uptime"`
	OSType         string `json:"os_type,omitempty"`
	PendingUpdates *int   `json:"pending_updates,omitempty"`
}

package models

// Severity is the vendor-assigned urgency of a patch.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PatchStatus tracks whether a patch has been installed.
type PatchStatus string

const (
	PatchPending PatchStatus = "pending"
	PatchApplied PatchStatus = "applied"
)

// Patch is one package update for one server. The JSON keys follow the
// camelCase shape the dashboard UI consumes.
type Patch struct {
	ID               uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ServerID         uint        `gorm:"index;not null" json:"serverId"`
	Server           *Server     `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE" json:"-"`
	PackageName      string      `gorm:"size:150;not null" json:"packageName"`
	CurrentVersion   string      `gorm:"size:100" json:"currentVersion"`
	AvailableVersion string      `gorm:"size:100" json:"availableVersion"`
	Description      string      `gorm:"size:500" json:"description"`
	Severity         Severity    `gorm:"size:20;index" json:"severity"`
	Status           PatchStatus `gorm:"size:20;index" json:"status"`
}

func (Patch) TableName() string { return "patches" }

// ServerPatches is the response of the per-server patch listing.
type ServerPatches struct {
	ServerID uint    `json:"server_id"`
	Patches  []Patch `json:"patches"`
}

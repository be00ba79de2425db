package models

import "time"

// ActivityType is the severity badge of an activity entry.
type ActivityType string

const (
	ActivitySuccess ActivityType = "success"
	ActivityInfo    ActivityType = "info"
	ActivityWarning ActivityType = "warning"
)

// Activity is an append-only operational event. ServerName is denormalized
// so entries survive the deletion of the server they mention.
type Activity struct {
	ID           uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Action       string       `gorm:"size:255;not null" json:"action"`
	ServerName   string       `gorm:"size:100" json:"server_name"`
	ActivityType ActivityType `gorm:"size:20" json:"activity_type"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }

// PatchActivityPoint is one day of the patch activity chart.
type PatchActivityPoint struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date            time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	TotalPatches    int       `gorm:"not null" json:"total_patches"`
	CriticalPatches int       `gorm:"not null" json:"critical_patches"`
}

func (PatchActivityPoint) TableName() string { return "patch_activities" }

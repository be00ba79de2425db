package dashboard

import (
	"context"
	"time"

	"github.com/vesaa/patchdeck/internal/models"
)

//go:generate mockgen -destination=mock_dashboard.go -package=dashboard github.com/vesaa/patchdeck/internal/dashboard FleetReader,ActivityReader,SeriesSource,HistoryReader

// FleetReader serves the mandatory scalar queries of the summary.
type FleetReader interface {
	FleetStats(ctx context.Context) (models.FleetStats, error)
	LastSync(ctx context.Context) (*time.Time, error)
}

// ActivityReader returns activities newest first.
type ActivityReader interface {
	RecentActivities(ctx context.Context, limit int) ([]models.Activity, error)
}

// SeriesSource produces the patch activity chart.
type SeriesSource interface {
	Series(ctx context.Context) ([]models.PatchActivityEntry, error)
}

// HistoryReader reads stored daily patch activity, oldest first.
type HistoryReader interface {
	PatchActivity(ctx context.Context, days int) ([]models.PatchActivityPoint, error)
}

package dashboard

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vesaa/patchdeck/internal/models"
)

// Series source names accepted by NewSeriesSource.
const (
	SourceStatic  = "static"
	SourceHistory = "history"
)

// StaticSeries always returns the same entries.
type StaticSeries struct {
	entries []models.PatchActivityEntry
}

// NewStaticSeries serves entries unchanged.
func NewStaticSeries(entries []models.PatchActivityEntry) *StaticSeries {
	return &StaticSeries{entries: entries}
}

func (s *StaticSeries) Series(context.Context) ([]models.PatchActivityEntry, error) {
	out := make([]models.PatchActivityEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// HistorySeries reads the last days points of the stored patch history.
type HistorySeries struct {
	reader HistoryReader
	days   int
}

// NewHistorySeries returns a source over reader, newest days points.
func NewHistorySeries(reader HistoryReader, days int) *HistorySeries {
	if days <= 0 {
		days = SeriesDays
	}
	return &HistorySeries{reader: reader, days: days}
}

func (h *HistorySeries) Series(ctx context.Context) ([]models.PatchActivityEntry, error) {
	points, err := h.reader.PatchActivity(ctx, h.days)
	if err != nil {
		return nil, errors.Wrap(err, "read patch history")
	}
	out := make([]models.PatchActivityEntry, 0, len(points))
	for _, p := range points {
		out = append(out, models.EntryFromPoint(p))
	}
	return out, nil
}

// NewSeriesSource picks the chart source by name. An unknown name is an error.
func NewSeriesSource(name string, seed Seed, history HistoryReader) (SeriesSource, error) {
	switch name {
	case SourceStatic, "":
		return NewStaticSeries(seed.Series), nil
	case SourceHistory:
		if history == nil {
			return nil, errors.New("history series needs a history reader")
		}
		return NewHistorySeries(history, SeriesDays), nil
	default:
		return nil, errors.Errorf("unknown series source %q", name)
	}
}

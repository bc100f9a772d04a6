package services

import (
	"log/slog"
	"time"

	"retail-dashboard/internal/models"
)

// Dashboard recomputes the filtered view and every aggregate for one
// interaction. Nothing is carried over between calls.
type Dashboard struct {
	logger *slog.Logger
}

func NewDashboard(logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{logger: logger}
}

func (d *Dashboard) View(ds *models.Dataset, sel models.FilterSelection) models.DashboardView {
	start := time.Now()

	resolved := Resolve(sel, ds)
	records := Apply(ds, resolved)
	view := models.DashboardView{
		Dataset:   ds,
		Options:   Options(ds),
		Selection: resolved,
		Summary:   Summarize(records),
		Records:   records,
	}

	d.logger.Debug("dashboard view computed",
		"rows", ds.Len(),
		"filtered", len(records),
		"duration", time.Since(start),
	)
	return view
}

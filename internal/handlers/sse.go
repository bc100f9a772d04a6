package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/ui/templates"
)

// filterSignals is the part of the page's signal store the filter endpoint
// cares about. Chart signals sent along by the browser are ignored.
type filterSignals struct {
	Filters models.FilterSelection `json:"filters"`
}

type SSEHandlers struct {
	Deps
}

func NewSSEHandlers(deps Deps) *SSEHandlers {
	return &SSEHandlers{Deps: deps}
}

// HandleFilter recomputes the dashboard for the filter signals and patches
// the KPI tiles, the raw table and the chart signals.
func (h *SSEHandlers) HandleFilter(w http.ResponseWriter, r *http.Request) {
	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.Logger, errors.BadRequestWrap(err, "Invalid filter signals"), observability.GetRequestID(r.Context()))
		return
	}

	h.stream(w, r, signals.Filters)
}

// HandleRefreshAll re-sends every fragment for the default selection.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, models.FilterSelection{})
}

func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, sel models.FilterSelection) {
	logger := observability.LoggerFrom(r.Context(), h.Logger)

	ds, err := h.dataset(r)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == errors.CodeNoDataset {
			sse := datastar.NewSSE(w, r)
			_ = sse.PatchElements(`<div id="records"><p class="info">👈 Please upload an Excel file to begin.</p></div>`)
			return
		}
		errors.WriteError(w, h.Logger, err, observability.GetRequestID(r.Context()))
		return
	}

	view := h.Dashboard.View(ds, sel)

	kpis, err := templates.RenderString(r.Context(), templates.KPIs(view.Summary))
	if err != nil {
		logger.Error("render kpis", "error", err)
		return
	}
	table, err := templates.RenderString(r.Context(), templates.RecordsTable(view.Records, h.Config.Dashboard.MaxTableRows))
	if err != nil {
		logger.Error("render records table", "error", err)
		return
	}
	signals, err := templates.Signals(view)
	if err != nil {
		logger.Error("marshal chart signals", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(kpis); err != nil {
		logger.Debug("patch kpis", "error", err)
		return
	}
	if err := sse.PatchElements(table); err != nil {
		logger.Debug("patch records table", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Debug("patch signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

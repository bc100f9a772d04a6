package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	Deps
}

func NewPageHandlers(deps Deps) *PageHandlers {
	return &PageHandlers{Deps: deps}
}

// HandleDashboard renders the upload prompt, or the dashboard over the
// session's dataset with the default selection.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Store.Current(observability.GetSessionID(r.Context()))
	if err != nil && !stderrors.Is(err, services.ErrNoDataset) {
		errors.WriteError(w, h.Logger, errors.InternalWrap(err, "Failed to load dataset"), observability.GetRequestID(r.Context()))
		return
	}
	h.render(w, r, http.StatusOK, ds, "")
}

// HandleUploadForm is the browser form post. Success redirects back to the
// dashboard; a failure re-renders the prompt with the reason.
func (h *PageHandlers) HandleUploadForm(w http.ResponseWriter, r *http.Request) {
	_, err := h.upload(w, r)
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := http.StatusInternalServerError
	message := "Upload failed"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		status = appErr.StatusCode
		message = appErr.Message
		if appErr.Details != "" {
			message += ": " + appErr.Details
		}
	}

	observability.LoggerFrom(r.Context(), h.Logger).Warn("upload rejected", "error", err)
	h.render(w, r, status, nil, message)
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, ds *models.Dataset, message string) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	data := templates.PageData{Error: message, MaxRows: h.Config.Dashboard.MaxTableRows}
	if ds != nil {
		view := h.Dashboard.View(ds, models.FilterSelection{})
		signals, err := templates.Signals(view)
		if err != nil {
			errors.WriteError(w, h.Logger, errors.InternalWrap(err, "Failed to encode signals"), observability.GetRequestID(ctx))
			return
		}
		data.View = &view
		data.Signals = string(signals)
	}

	html, err := templates.RenderString(ctx, templates.Dashboard(data))
	if err != nil {
		observability.LoggerFrom(ctx, h.Logger).Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

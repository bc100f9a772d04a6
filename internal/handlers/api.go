package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/loader"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
)

const (
	uploadField   = "file"
	uploadTimeout = 30 * time.Second
)

var allowedExtensions = map[string]bool{".xlsx": true, ".xls": true}

// Deps bundles what every handler group needs.
type Deps struct {
	Store     *services.DatasetStore
	Dashboard *services.Dashboard
	Logger    *slog.Logger
	Config    *config.Config
}

type APIHandlers struct {
	Deps
}

func NewAPIHandlers(deps Deps) *APIHandlers {
	return &APIHandlers{Deps: deps}
}

type datasetResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Digest       string               `json:"digest"`
	Rows         int                  `json:"rows"`
	MissingDates int                  `json:"missing_dates"`
	LoadedAt     time.Time            `json:"loaded_at"`
	Options      models.FilterOptions `json:"options"`
}

func newDatasetResponse(ds *models.Dataset) datasetResponse {
	return datasetResponse{
		ID:           ds.ID,
		Name:         ds.Name,
		Digest:       ds.Digest,
		Rows:         ds.Len(),
		MissingDates: ds.MissingDates,
		LoadedAt:     ds.LoadedAt,
		Options:      services.Options(ds),
	}
}

// HandleUpload accepts a workbook and binds it to the caller's session.
func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	ds, err := h.upload(w, r)
	if err != nil {
		errors.WriteError(w, h.Logger, err, requestID)
		return
	}

	errors.WriteSuccessWithStatus(w, http.StatusCreated, newDatasetResponse(ds))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r)
	if err != nil {
		errors.WriteError(w, h.Logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"dataset":   newDatasetResponse(view.Dataset),
		"selection": view.Selection,
		"summary":   view.Summary,
	})
}

// HandleRecords returns the filtered rows, capped by the limit query
// parameter or the configured table size.
func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	limit := h.Config.Dashboard.MaxTableRows
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errors.WriteError(w, h.Logger, errors.Validation("limit must be a non-negative integer"), requestID)
			return
		}
		limit = n
	}

	view, err := h.view(r)
	if err != nil {
		errors.WriteError(w, h.Logger, err, requestID)
		return
	}

	records := view.Records
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	errors.WriteSuccess(w, map[string]any{
		"total":   len(view.Records),
		"records": records,
	})
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r)
	if err != nil {
		errors.WriteError(w, h.Logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"options":  services.Options(ds),
		"defaults": services.DefaultSelection(ds),
	})
}

// HandleInvalidate drops the session's dataset.
func (h *APIHandlers) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	sessionID := observability.GetSessionID(r.Context())
	if !h.Store.Invalidate(sessionID) {
		errors.WriteError(w, h.Logger, errors.NoDataset("No dataset is loaded for this session"), observability.GetRequestID(r.Context()))
		return
	}

	observability.LoggerFrom(r.Context(), h.Logger).Info("session dataset invalidated")
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.Store.Stats())
}

// upload reads the multipart file, enforcing the size and extension limits,
// and hands the bytes to the store.
func (h *Deps) upload(w http.ResponseWriter, r *http.Request) (*models.Dataset, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.Upload.MaxBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, uploadError(err)
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil, errors.UnsupportedMedia("Only .xlsx and .xls files are accepted")
	}

	data, err := readUpload(file)
	if err != nil {
		return nil, uploadError(err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	ds, err := h.Store.Load(ctx, observability.GetSessionID(r.Context()), name, data)
	if err != nil {
		return nil, loadError(err)
	}

	observability.LoggerFrom(r.Context(), h.Logger).Info("dataset uploaded",
		"dataset_id", ds.ID,
		"name", name,
		"rows", ds.Len(),
		"bytes", len(data),
	)
	return ds, nil
}

func readUpload(file multipart.File) ([]byte, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return errors.PayloadTooLarge(fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
	case stderrors.Is(err, http.ErrMissingFile):
		return errors.BadRequest("A file is required in the \"file\" field")
	default:
		return errors.BadRequestWrap(err, "Invalid upload")
	}
}

func loadError(err error) error {
	var parseErr *loader.ParseError
	switch {
	case stderrors.As(err, &parseErr):
		return errors.ParseWrap(parseErr, "Could not read the uploaded workbook")
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.InternalWrap(err, "Workbook took too long to parse")
	default:
		return errors.InternalWrap(err, "Failed to load workbook")
	}
}

// dataset resolves the dataset for a request: the session's current one, or
// the one named by the dataset query parameter.
func (h *Deps) dataset(r *http.Request) (*models.Dataset, error) {
	var (
		ds  *models.Dataset
		err error
	)
	if id := r.URL.Query().Get("dataset"); id != "" {
		ds, err = h.Store.Get(id)
	} else {
		ds, err = h.Store.Current(observability.GetSessionID(r.Context()))
	}
	if stderrors.Is(err, services.ErrNoDataset) {
		return nil, errors.NoDataset("Please upload an Excel file to begin")
	}
	return ds, err
}

func (h *Deps) view(r *http.Request) (models.DashboardView, error) {
	ds, err := h.dataset(r)
	if err != nil {
		return models.DashboardView{}, err
	}
	return h.Dashboard.View(ds, selectionFromQuery(r.URL.Query())), nil
}

// selectionFromQuery reads the five filters from repeated or comma separated
// query parameters. An absent parameter leaves the field at its default; a
// present but empty one selects nothing.
func selectionFromQuery(q url.Values) models.FilterSelection {
	return models.FilterSelection{
		Branch:       setFromQuery(q, "branch"),
		CustomerType: setFromQuery(q, "customer_type"),
		City:         setFromQuery(q, "city"),
		Gender:       setFromQuery(q, "gender"),
		ProductLine:  setFromQuery(q, "product_line"),
	}
}

func setFromQuery(q url.Values, key string) models.Set {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	set := models.NewSet()
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				set[part] = struct{}{}
			}
		}
	}
	return set
}

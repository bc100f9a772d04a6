package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageHandlers_HandleDashboard_Prompt(t *testing.T) {
	h := NewPageHandlers(testDeps(t))

	w := httptest.NewRecorder()
	h.HandleDashboard(w, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Please upload an Excel file to begin.")
	assert.NotContains(t, w.Body.String(), `id="kpis"`)
}

func TestPageHandlers_HandleDashboard_WithDataset(t *testing.T) {
	deps := testDeps(t)
	loadTestDataset(t, deps)
	h := NewPageHandlers(deps)

	w := httptest.NewRecorder()
	h.HandleDashboard(w, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, s := range []string{
		"📊 Retail Sales Dashboard",
		"$200.00",
		"$20.00",
		"6.25 ⭐",
		"Select Customer Type",
		"data-signals=",
		"Showing 3 of 4 rows",
	} {
		assert.Contains(t, body, s)
	}
}

func TestPageHandlers_HandleUploadForm(t *testing.T) {
	deps := testDeps(t)
	h := NewPageHandlers(deps)

	w := httptest.NewRecorder()
	h.HandleUploadForm(w, uploadRequest(t, "/upload", "sales.xlsx", buildWorkbook(t)))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	_, err := deps.Store.Current(testSession)
	assert.NoError(t, err)
}

func TestPageHandlers_HandleUploadForm_ParseError(t *testing.T) {
	deps := testDeps(t)
	h := NewPageHandlers(deps)

	w := httptest.NewRecorder()
	h.HandleUploadForm(w, uploadRequest(t, "/upload", "broken.xlsx", []byte("not a workbook")))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Could not read the uploaded workbook")
	assert.Contains(t, body, "broken.xlsx")
	assert.Contains(t, body, "Please upload an Excel file to begin.")
	assert.False(t, strings.Contains(body, `id="kpis"`), "no metrics are computed for a failed upload")
}

func TestPageHandlers_HandleUploadForm_KeepsPreviousDatasetOnFailure(t *testing.T) {
	deps := testDeps(t)
	id := loadTestDataset(t, deps)
	h := NewPageHandlers(deps)

	w := httptest.NewRecorder()
	h.HandleUploadForm(w, uploadRequest(t, "/upload", "notes.txt", []byte("hello")))
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	current, err := deps.Store.Current(testSession)
	require.NoError(t, err)
	assert.Equal(t, id, current.ID)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/loader"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
)

const testSession = "6f1c2a8e-3b7d-4f0e-9a1c-2d5e8b7f4a10"

var testHeader = []interface{}{"Branch", "City", "Customer_type", "Gender", "Product line", "Payment", "Total", "gross income", "Rating", "Date"}

// testRows mirrors the dataset used by the services tests.
var testRows = [][]interface{}{
	{"A", "Yangon", "Member", "Female", "Health and beauty", "Ewallet", 100, 10, 8, "05/01/2019"},
	{"B", "Mandalay", "Normal", "Male", "Sports and travel", "Cash", 50, 5, 6, "20/01/2019"},
	{"C", "Naypyitaw", "Member", "Female", "Health and beauty", "Cash", 30, 3, 7, "03/02/2019"},
	{"A", "Yangon", "Normal", "Male", "Food and beverages", "Credit card", 20, 2, 4, ""},
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testDeps(t testing.TB) Deps {
	t.Helper()
	cfg := config.Default()
	cfg.Dashboard.MaxTableRows = 3
	logger := testLogger()
	return Deps{
		Store:     services.NewDatasetStore(loader.New(logger), 4, 0, logger),
		Dashboard: services.NewDashboard(logger),
		Logger:    logger,
		Config:    cfg,
	}
}

func buildWorkbook(t testing.TB) []byte {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &testHeader))
	for i, row := range testRows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}

	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// loadTestDataset binds the test workbook to testSession and returns its id.
func loadTestDataset(t testing.TB, deps Deps) string {
	t.Helper()
	ds, err := deps.Store.Load(context.Background(), testSession, "sales.xlsx", buildWorkbook(t))
	require.NoError(t, err)
	return ds.ID
}

func withSession(r *http.Request) *http.Request {
	return r.WithContext(observability.WithSessionID(r.Context(), testSession))
}

func uploadRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, target, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return withSession(r)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env), "body: %s", w.Body.String())
	return env
}

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revlens/internal/config"
	apierrors "revlens/internal/errors"
	"revlens/internal/services"
)

func testConfig() config.DashboardConfig {
	return config.DashboardConfig{
		PageSize:             20,
		TopCustomers:         20,
		LowThresholdDefault:  5000,
		LowThresholdMin:      0,
		LowThresholdMax:      100000,
		HighThresholdDefault: 300000,
		HighThresholdMin:     100000,
		HighThresholdMax:     1000000,
		MaxUploadBytes:       10 << 20,
		CacheCapacity:        4,
	}
}

func newTestHandler(t *testing.T) (*DatasetHandler, *services.DashboardService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := services.NewDashboardService(services.NewDatasetStore(4, logger), testConfig(), logger)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return NewDatasetHandler(svc, logger, errorHandler), svc
}

// multipartUpload builds a multipart body with one file field.
func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func validUploadCSV(rows ...string) string {
	lines := append([]string{
		"Customer Revenue Report",
		"Customer Name,Sales,Sales With Tax",
	}, rows...)
	return strings.Join(lines, "\n")
}

// uploadDataset pushes a dataset through the handler and returns its ID.
func uploadDataset(t *testing.T, handler *DatasetHandler, rows ...string) string {
	t.Helper()

	body, contentType := multipartUpload(t, "revenue.csv", validUploadCSV(rows...))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view services.DatasetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	return view.ID
}

func TestDatasetHandler_Upload(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, contentType := multipartUpload(t, "revenue.csv",
		validUploadCSV("Alice,100,120", "Bob,50,60", "TOTAL,150,180"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var view services.DatasetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "revenue.csv", view.Filename)
	assert.Equal(t, 2, view.Summary.RecordCount)
	assert.InDelta(t, 180, view.Summary.TotalRevenue, 1e-9)
}

func TestDatasetHandler_UploadFormatError(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, contentType := multipartUpload(t, "bad.csv", "title\nWrong,Header\nAlice,100")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/dataset/format", problem["type"])
	// The detail names all three required columns for the user.
	detail, _ := problem["detail"].(string)
	assert.Contains(t, detail, "Customer Name")
	assert.Contains(t, detail, "Sales With Tax")
}

func TestDatasetHandler_UploadMissingFile(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetHandler_Summary(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Alice,100,120", "Bob,50,60")

	req := httptest.NewRequest(http.MethodGet, "/"+id+"/summary", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view services.DatasetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2, view.Summary.CustomerCount)
	assert.InDelta(t, 90, view.Summary.AverageRevenue, 1e-9)
}

func TestDatasetHandler_SummaryNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/deadbeef/summary", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/dataset/not-found", problem["type"])
}

func TestDatasetHandler_Records(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Alice,100,120", "Bob,50,60", "Carol,25,30")

	req := httptest.NewRequest(http.MethodGet, "/"+id+"/records?page=1", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var page services.RecordsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.TotalRecords)
	require.Len(t, page.Records, 3)
	assert.Equal(t, "Alice", page.Records[0].Name)
}

func TestDatasetHandler_RecordsInvalidPage(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Alice,100,120")

	for _, page := range []string{"0", "-2", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/"+id+"/records?page="+page, nil)
		rec := httptest.NewRecorder()
		handler.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "page=%s", page)
	}
}

func TestDatasetHandler_Segments(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Major,50,50", "Mid,30,30", "Small,15,15", "Tail,5,5")

	req := httptest.NewRequest(http.MethodGet, "/"+id+"/segments?segment=A", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view services.SegmentationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Records, 2)

	// Invalid filter is rejected.
	req = httptest.NewRequest(http.MethodGet, "/"+id+"/segments?segment=D", nil)
	rec = httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetHandler_Outliers(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Churn,4999,4999", "Spike,300001,300001")

	req := httptest.NewRequest(http.MethodGet, "/"+id+"/outliers", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report services.OutlierReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	// Defaults apply when no thresholds are given.
	assert.Equal(t, 5000.0, report.LowThreshold)
	assert.Equal(t, 300000.0, report.HighThreshold)
	assert.Len(t, report.LowRevenue, 1)
	assert.Len(t, report.Spikes, 1)
}

func TestDatasetHandler_OutliersOutOfRange(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Alice,100,120")

	tests := []string{
		"low=-1",
		"low=100001",
		"high=99999",
		"high=1000001",
		"low=abc",
	}
	for _, query := range tests {
		req := httptest.NewRequest(http.MethodGet, "/"+id+"/outliers?"+query, nil)
		rec := httptest.NewRecorder()
		handler.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %s", query)
	}
}

func TestDatasetHandler_Export(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Alice,100,120.5")

	req := httptest.NewRequest(http.MethodGet, "/"+id+"/export", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cleaned_revenue_data.csv")
	assert.Contains(t, rec.Body.String(), "Customer Name,Sales,Sales With Tax")
	assert.Contains(t, rec.Body.String(), "Alice,100.00,120.50")
}

func TestDatasetHandler_Delete(t *testing.T) {
	handler, _ := newTestHandler(t)
	id := uploadDataset(t, handler, "Alice,100,120")

	req := httptest.NewRequest(http.MethodDelete, "/"+id, nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Subsequent reads report the dataset as gone.
	req = httptest.NewRequest(http.MethodGet, "/"+id+"/summary", nil)
	rec = httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDatasetHandler_Defaults(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/defaults", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var defaults map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defaults))
	assert.EqualValues(t, 20, defaults["page_size"])
}

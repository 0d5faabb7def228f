package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/repository"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/export"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	registry := catalog.NewDefaultRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(repository.NewMemoryBrandRepository(), registry, sheet.NewSplicer(registry, sheet.UpdateOptions{}), logger)
	r := chi.NewRouter()
	NewBrandHandler(svc, logger).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createBrand(t *testing.T, h http.Handler, name string) brand.Brand {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/brands", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[brand.Brand](t, rec)
}

func tabPath(id uuid.UUID, tab string, suffix string) string {
	return "/api/brands/" + id.String() + "/tabs/" + url.PathEscape(tab) + suffix
}

func TestBrandHandler_CRUD(t *testing.T) {
	h := newTestRouter(t)
	b := createBrand(t, h, "Acme")
	assert.Equal(t, []string{"Campaign 1"}, b.Tabs)

	rec := do(t, h, http.MethodGet, "/api/brands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]brand.Summary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].Name)

	rec = do(t, h, http.MethodPatch, "/api/brands/"+b.ID.String(), map[string]string{"logo": "acme.png"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme.png", decode[brand.Brand](t, rec).Logo)

	rec = do(t, h, http.MethodDelete, "/api/brands/"+b.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/brands/"+b.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"brand not found"}`, rec.Body.String())
}

func TestBrandHandler_Errors(t *testing.T) {
	h := newTestRouter(t)
	b := createBrand(t, h, "Acme")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid brand id", http.MethodGet, "/api/brands/not-a-uuid", nil, http.StatusBadRequest},
		{"empty brand name", http.MethodPost, "/api/brands", map[string]string{"name": " "}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/brands", map[string]string{"title": "x"}, http.StatusBadRequest},
		{"unknown tab", http.MethodGet, tabPath(b.ID, "Nope", ""), nil, http.StatusNotFound},
		{"delete last tab", http.MethodDelete, tabPath(b.ID, "Campaign 1", ""), nil, http.StatusConflict},
		{"negative cell", http.MethodPut, tabPath(b.ID, "Campaign 1", "/cells"), cellRequest{Row: -1}, http.StatusBadRequest},
		{"cell past the metrics", http.MethodPut, tabPath(b.ID, "Campaign 1", "/cells"), cellRequest{Row: 1, Col: 99}, http.StatusBadRequest},
		{"partial metric order", http.MethodPut, tabPath(b.ID, "Campaign 1", "/metrics/order"), orderRequest{Metrics: []string{"Campaign Name", "Bogus Metric"}}, http.StatusBadRequest},
		{"nothing selected", http.MethodPost, tabPath(b.ID, "Campaign 1", "/import"), service.ImportRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestBrandHandler_Tabs(t *testing.T) {
	h := newTestRouter(t)
	b := createBrand(t, h, "Acme")

	rec := do(t, h, http.MethodPost, "/api/brands/"+b.ID.String()+"/tabs", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, tabResponse{Tab: "Campaign 2", Tabs: []string{"Campaign 1", "Campaign 2"}}, decode[tabResponse](t, rec))

	rec = do(t, h, http.MethodPost, "/api/brands/"+b.ID.String()+"/tabs", tabRequest{DuplicateOf: "Campaign 1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Campaign 1 Copy", decode[tabResponse](t, rec).Tab)

	rec = do(t, h, http.MethodPatch, tabPath(b.ID, "Campaign 2", ""), tabRequest{Name: "Retargeting"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Campaign 1", "Retargeting", "Campaign 1 Copy"}, decode[tabResponse](t, rec).Tabs)

	rec = do(t, h, http.MethodDelete, tabPath(b.ID, "Campaign 1", ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tabResponse{Tab: "Retargeting", Tabs: []string{"Retargeting", "Campaign 1 Copy"}}, decode[tabResponse](t, rec))
}

func TestBrandHandler_SheetEdits(t *testing.T) {
	h := newTestRouter(t)
	b := createBrand(t, h, "Acme")

	rec := do(t, h, http.MethodPost, tabPath(b.ID, "Campaign 1", "/import"), map[string]any{
		"mode": "insert",
		"records": []map[string]any{
			{"campaignName": "Ad1", "data": map[string]string{"Impressions": "1000", "Conversions": "4"}},
		},
		"selection": map[string]any{"campaigns": []string{"Ad1"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[service.ImportResult](t, rec)
	assert.Equal(t, []string{"Ad1"}, res.Report.Inserted)
	assert.Equal(t, "1000", res.Sheet.Data[1][res.Sheet.Column("Impressions")])

	rec = do(t, h, http.MethodPut, tabPath(b.ID, "Campaign 1", "/cells"), cellRequest{Row: 2, Col: 0, Value: "Ad2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ad2", decode[sheet.Sheet](t, rec).Data[2][0])

	rec = do(t, h, http.MethodPost, tabPath(b.ID, "Campaign 1", "/metrics/toggle"), toggleRequest{Metric: "Conversions"})
	require.Equal(t, http.StatusOK, rec.Code)
	sh := decode[sheet.Sheet](t, rec)
	col := sh.Column("Conversions")
	require.GreaterOrEqual(t, col, 0)
	assert.Equal(t, "4", sh.Data[1][col])

	order := append([]string{"Conversions"}, slices.DeleteFunc(slices.Clone(sh.Metrics), func(m string) bool { return m == "Conversions" })...)
	rec = do(t, h, http.MethodPut, tabPath(b.ID, "Campaign 1", "/metrics/order"), orderRequest{Metrics: order})
	require.Equal(t, http.StatusOK, rec.Code)
	sh = decode[sheet.Sheet](t, rec)
	assert.Equal(t, order, sh.Metrics)
	assert.Equal(t, []string{"4", "Ad1"}, sh.Data[1][:2])

	rec = do(t, h, http.MethodPost, tabPath(b.ID, "Campaign 1", "/metrics/custom"), catalog.CustomMetric{Name: "Booked Calls", Keywords: []string{"booked"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	custom := decode[customMetricResponse](t, rec)
	assert.Equal(t, "Booked Calls", custom.Metric.Name)
	assert.GreaterOrEqual(t, custom.Sheet.Column("Booked Calls"), 0)

	rec = do(t, h, http.MethodPut, tabPath(b.ID, "Campaign 1", "/sheet"), sheet.Sheet{Data: [][]string{{"Campaign Name"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[sheet.Sheet](t, rec).Metrics, 10)
}

func TestBrandHandler_Export(t *testing.T) {
	h := newTestRouter(t)
	b := createBrand(t, h, "Acme")

	rec := do(t, h, http.MethodGet, tabPath(b.ID, "Campaign 1", "/export"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Acme_Campaign_1_")
	assert.NotZero(t, rec.Body.Len())
}

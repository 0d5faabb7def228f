package handler

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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/repository"
	brandservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/extract"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/mapper"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/parser"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/platform"
	importservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
)

type fixture struct {
	router http.Handler
	brands *brandservice.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	registry := catalog.NewDefaultRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := mapper.New(registry)
	require.NoError(t, err)

	importSvc := importservice.NewImportService(
		parser.NewParser(parser.DefaultConfig()),
		extract.New(platform.NewDetector(), m, 0),
		logger,
	)
	brands := brandservice.NewService(repository.NewMemoryBrandRepository(), registry, sheet.NewSplicer(registry, sheet.UpdateOptions{}), logger)

	r := chi.NewRouter()
	NewImportHandler(importSvc, brands, registry, 1<<20, logger).Routes(r)
	return fixture{router: r, brands: brands}
}

type upload struct {
	name, content string
}

func post(t *testing.T, h http.Handler, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(filesField, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) analyzeResponse {
	t.Helper()
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

const metaCSV = "Campaign name,Impressions,Amount spent (USD),Link clicks,Booked Calls\nRetarget_A,2000,20,10,3\nRetarget_B,1000,5,1,0"

func TestAnalyze_AgainstMetricList(t *testing.T) {
	f := newFixture(t)

	rec := post(t, f.router,
		map[string]string{"metrics": "Campaign Name, Impressions,Clicks"},
		upload{"meta.csv", metaCSV},
		upload{"notes.pdf", "%PDF"},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	assert.Equal(t, []string{"Retarget_A", "Retarget_B"}, resp.Campaigns)
	assert.Len(t, resp.Records, 2)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, platform.Meta, resp.Files[0].Platform)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "notes.pdf")

	assert.Equal(t, []string{"Campaign Name", "Impressions", "Clicks"}, resp.Available)
	assert.Contains(t, resp.Analysis.Exact, "Impressions")
	assert.Contains(t, resp.Analysis.Unmatched, "Booked Calls")
}

func TestAnalyze_AgainstTab(t *testing.T) {
	f := newFixture(t)
	b, err := f.brands.CreateBrand(context.Background(), "Acme", "")
	require.NoError(t, err)

	rec := post(t, f.router,
		map[string]string{"brandId": b.ID.String(), "tab": b.Tabs[0]},
		upload{"meta.csv", metaCSV},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	sh, err := f.brands.GetSheet(context.Background(), b.ID, b.Tabs[0])
	require.NoError(t, err)
	assert.Equal(t, sh.Metrics, resp.Available)
}

func TestAnalyze_NarrowsCampaigns(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		fields map[string]string
		want   []string
	}{
		{"substring ignores case", map[string]string{"q": "_b"}, []string{"Retarget_B"}},
		{"fuzzy", map[string]string{"fuzzy": "rtgA"}, []string{"Retarget_A"}},
		{"substring then fuzzy", map[string]string{"q": "retarget", "fuzzy": "rtg"}, []string{"Retarget_A", "Retarget_B"}},
		{"no match", map[string]string{"q": "brand"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, f.router, tt.fields, upload{"meta.csv", metaCSV})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			resp := decode(t, rec)
			assert.Equal(t, tt.want, resp.Campaigns)
			assert.Len(t, resp.Records, 2)
		})
	}
}

func TestAnalyze_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		fields map[string]string
		files  []upload
		want   int
	}{
		{"no files", nil, nil, http.StatusBadRequest},
		{"bad brand id", map[string]string{"brandId": "x"}, []upload{{"a.csv", metaCSV}}, http.StatusBadRequest},
		{"unknown brand", map[string]string{"brandId": uuid.NewString(), "tab": "Campaign 1"}, []upload{{"a.csv", metaCSV}}, http.StatusNotFound},
		{"nothing extracted", nil, []upload{{"a.csv", "Campaign Name,Clicks\nGrand Total,4"}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, f.router, tt.fields, tt.files...)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

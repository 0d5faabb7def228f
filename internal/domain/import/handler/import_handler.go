// Package handler exposes the upload analysis endpoint.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	importservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reconcile"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/httpx"
)

const (
	filesField     = "files"
	maxMemoryBytes = 32 << 20
)

// SheetSource looks up the sheet an upload is compared against
type SheetSource interface {
	GetSheet(ctx context.Context, id uuid.UUID, tab string) (*sheet.Sheet, error)
}

// ImportHandler handles uploads before they are spliced into a tab
type ImportHandler struct {
	importSvc *importservice.ImportService
	sheets    SheetSource
	matcher   *reconcile.Matcher
	registry  *catalog.Registry
	maxBytes  int64
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, sheets SheetSource, registry *catalog.Registry, maxBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		sheets:    sheets,
		matcher:   reconcile.NewMatcher(registry),
		registry:  registry,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/api/imports/analyze", h.Analyze)
}

type analyzeResponse struct {
	Files       []importservice.FileResult `json:"files"`
	Records     []campaign.Record          `json:"records"`
	Campaigns   []string                   `json:"campaigns"`
	Errors      []string                   `json:"errors"`
	Available   []string                   `json:"availableMetrics"`
	Analysis    reconcile.Analysis         `json:"analysis"`
	AutoMapping reconcile.MetricMapping    `json:"autoMapping"`
}

// Analyze extracts the uploaded files and compares their metrics with the
// target tab (brandId and tab form fields), an explicit metrics list, or the
// whole catalog. The optional q and fuzzy fields narrow the campaigns list.
func (h *ImportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[filesField]
	if len(headers) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("no files uploaded"))
		return
	}

	var brandID uuid.UUID
	if v := r.FormValue("brandId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, errors.New("invalid brand ID"))
			return
		}
		brandID = id
	}

	available, err := h.available(r.Context(), brandID, r.FormValue("tab"), r.FormValue("metrics"))
	if err != nil {
		h.fail(w, err)
		return
	}

	files := make([]importservice.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}
		files = append(files, f)
	}

	batch, err := h.importSvc.ProcessBatch(r.Context(), brandID, files)
	if err != nil && !errors.Is(err, importservice.ErrAllFilesFailed) {
		h.fail(w, err)
		return
	}

	resp := analyzeResponse{
		Files:     batch.Files,
		Records:   batch.Records,
		Campaigns: narrowCampaigns(campaign.Names(batch.Records), r.FormValue("q"), r.FormValue("fuzzy")),
		Errors:    batch.Messages(),
		Available: available,
	}
	resp.Analysis = h.matcher.Analyze(batch.Records, available)
	resp.AutoMapping = h.matcher.AutoMap(resp.Analysis.Unmatched, available)

	status := http.StatusOK
	if errors.Is(err, importservice.ErrAllFilesFailed) {
		status = http.StatusUnprocessableEntity
	}
	httpx.WriteJSON(w, status, resp)
}

// narrowCampaigns keeps names containing q, then ranks them by fuzzy match.
func narrowCampaigns(names []string, q, fuzzy string) []string {
	if q = strings.TrimSpace(q); q != "" {
		names = reconcile.FilterCampaigns(names, q)
	}
	if fuzzy = strings.TrimSpace(fuzzy); fuzzy != "" {
		names = reconcile.RankCampaigns(names, fuzzy)
	}
	return names
}

func (h *ImportHandler) available(ctx context.Context, brandID uuid.UUID, tab, metrics string) ([]string, error) {
	if brandID != uuid.Nil && tab != "" {
		sh, err := h.sheets.GetSheet(ctx, brandID, tab)
		if err != nil {
			return nil, err
		}
		return sh.Metrics, nil
	}
	if metrics != "" {
		var out []string
		for _, m := range strings.Split(metrics, ",") {
			if m = strings.TrimSpace(m); m != "" {
				out = append(out, m)
			}
		}
		return out, nil
	}
	return h.registry.All(), nil
}

func (h *ImportHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, brand.ErrBrandNotFound), errors.Is(err, brand.ErrTabNotFound):
		httpx.WriteError(w, http.StatusNotFound, err)
	default:
		h.logger.Error("import analysis failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, err)
	}
}

func readFile(fh *multipart.FileHeader) (importservice.File, error) {
	f, err := fh.Open()
	if err != nil {
		return importservice.File{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return importservice.File{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return importservice.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Package handler exposes the brand workspace over HTTP.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/export"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/httpx"
)

// BrandHandler serves the brand, tab and sheet endpoints
type BrandHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewBrandHandler constructs a new handler
func NewBrandHandler(svc *service.Service, logger *slog.Logger) *BrandHandler {
	return &BrandHandler{svc: svc, logger: logger}
}

// Routes mounts the handler under /api/brands.
func (h *BrandHandler) Routes(r chi.Router) {
	r.Route("/api/brands", func(r chi.Router) {
		r.Get("/", h.ListBrands)
		r.Post("/", h.CreateBrand)
		r.Route("/{brandID}", func(r chi.Router) {
			r.Get("/", h.GetBrand)
			r.Patch("/", h.UpdateBrand)
			r.Delete("/", h.DeleteBrand)
			r.Post("/tabs", h.AddTab)
			r.Route("/tabs/{tab}", func(r chi.Router) {
				r.Get("/", h.GetSheet)
				r.Patch("/", h.RenameTab)
				r.Delete("/", h.DeleteTab)
				r.Put("/sheet", h.ReplaceSheet)
				r.Post("/import", h.Import)
				r.Put("/cells", h.SetCell)
				r.Post("/metrics/toggle", h.ToggleMetric)
				r.Put("/metrics/order", h.ReorderMetrics)
				r.Post("/metrics/custom", h.AddCustomMetric)
				r.Get("/export", h.Export)
			})
		})
	})
}

type brandRequest struct {
	Name *string `json:"name"`
	Logo *string `json:"logo"`
}

type tabRequest struct {
	Name        string `json:"name"`
	DuplicateOf string `json:"duplicateOf,omitempty"`
}

type tabResponse struct {
	Tab  string   `json:"tab"`
	Tabs []string `json:"tabs"`
}

type cellRequest struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

type toggleRequest struct {
	Metric string `json:"metric"`
}

type orderRequest struct {
	Metrics []string `json:"metrics"`
}

type customMetricResponse struct {
	Metric catalog.CustomMetric `json:"metric"`
	Sheet  *sheet.Sheet         `json:"sheet"`
}

func (h *BrandHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.svc.ListBrands(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, brands)
}

func (h *BrandHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var name, logo string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Logo != nil {
		logo = *req.Logo
	}
	b, err := h.svc.CreateBrand(r.Context(), name, logo)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

func (h *BrandHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.GetBrand(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *BrandHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}
	var req brandRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	b, err := h.svc.UpdateBrand(r.Context(), id, req.Name, req.Logo)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *BrandHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteBrand(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTab creates a tab, or copies one when duplicateOf is set.
func (h *BrandHandler) AddTab(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}
	var req tabRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}

	var (
		b   *brand.Brand
		tab string
		err error
	)
	if req.DuplicateOf != "" {
		b, tab, err = h.svc.DuplicateTab(r.Context(), id, req.DuplicateOf)
	} else {
		b, tab, err = h.svc.AddTab(r.Context(), id, req.Name)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tabResponse{Tab: tab, Tabs: b.Tabs})
}

func (h *BrandHandler) GetSheet(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	sh, err := h.svc.GetSheet(r.Context(), id, tab)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}

func (h *BrandHandler) RenameTab(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	var req tabRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	b, err := h.svc.RenameTab(r.Context(), id, tab, req.Name)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tabResponse{Tab: req.Name, Tabs: b.Tabs})
}

func (h *BrandHandler) DeleteTab(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	b, err := h.svc.DeleteTab(r.Context(), id, tab)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tabResponse{Tab: b.Tabs[0], Tabs: b.Tabs})
}

func (h *BrandHandler) ReplaceSheet(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	var req sheet.Sheet
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sh, err := h.svc.ReplaceSheet(r.Context(), id, tab, &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}

// Import splices a confirmed selection into the tab. Update mismatches come
// back in the report with a 200.
func (h *BrandHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	var req service.ImportRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.svc.Import(r.Context(), id, tab, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *BrandHandler) SetCell(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sh, err := h.svc.SetCell(r.Context(), id, tab, req.Row, req.Col, req.Value)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}

func (h *BrandHandler) ToggleMetric(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sh, err := h.svc.ToggleMetric(r.Context(), id, tab, req.Metric)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}

func (h *BrandHandler) ReorderMetrics(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sh, err := h.svc.ReorderMetrics(r.Context(), id, tab, req.Metrics)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}

func (h *BrandHandler) AddCustomMetric(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	var req catalog.CustomMetric
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sh, c, err := h.svc.AddCustomMetric(r.Context(), id, tab, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, customMetricResponse{Metric: c, Sheet: sh})
}

// Export downloads the tab as an xlsx workbook.
func (h *BrandHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, tab, ok := tabParams(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Export(r.Context(), id, tab)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	if _, err := w.Write(out.Data); err != nil {
		h.logger.Warn("failed to write export", slog.String("brand_id", id.String()), "error", err)
	}
}

func (h *BrandHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("brand request failed", "error", err)
	}
	httpx.WriteError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, brand.ErrBrandNotFound), errors.Is(err, brand.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, brand.ErrTabExists), errors.Is(err, brand.ErrLastTab):
		return http.StatusConflict
	case errors.Is(err, brand.ErrEmptyName),
		errors.Is(err, service.ErrNothingSelected),
		errors.Is(err, sheet.ErrUnknownMode),
		errors.Is(err, sheet.ErrCellOutOfRange),
		errors.Is(err, sheet.ErrInvalidOrder),
		errors.Is(err, catalog.ErrEmptyMetricName),
		errors.Is(err, catalog.ErrInvalidOperator),
		errors.Is(err, export.ErrEmptySheet):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func brandID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "brandID"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("invalid brand ID"))
		return uuid.Nil, false
	}
	return id, true
}

func tabParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	id, ok := brandID(w, r)
	if !ok {
		return uuid.Nil, "", false
	}
	tab, err := url.PathUnescape(chi.URLParam(r, "tab"))
	if err != nil || tab == "" {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("invalid tab name"))
		return uuid.Nil, "", false
	}
	return id, tab, true
}

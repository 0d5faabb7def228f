// Package handler exposes saved campaign reports over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/httpx"
)

// ReportHandler serves /api/campaigns
type ReportHandler struct {
	svc      *service.ReportService
	defaults func() []string
	logger   *slog.Logger
}

// NewReportHandler constructs a new handler. defaults supplies the metric
// list given to reports saved without one.
func NewReportHandler(svc *service.ReportService, defaults func() []string, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, defaults: defaults, logger: logger}
}

func (h *ReportHandler) Routes(r chi.Router) {
	r.Route("/api/campaigns", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

type reportRequest struct {
	Name    string     `json:"name"`
	Metrics []string   `json:"metrics"`
	Data    [][]string `json:"data"`
}

func (req reportRequest) sheet() *sheet.Sheet {
	return &sheet.Sheet{Metrics: req.Metrics, Data: req.Data}
}

type reportResponse struct {
	*reports.Record
	Sheet *sheet.Sheet `json:"sheet"`
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ReportHandler) Search(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := h.svc.SaveAs(r.Context(), req.Name, req.sheet())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rec)
}

// Get returns the report together with the sheet to load into a tab
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	rec, sh, err := h.svc.Load(r.Context(), id, h.defaults())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reportResponse{Record: rec, Sheet: sh})
}

func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	var req reportRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := h.svc.Save(r.Context(), id, req.Name, req.sheet())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("report request failed", "error", err)
	}
	httpx.WriteError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reports.ErrConfigurationMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, reports.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, reports.ErrEmptyName):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func reportID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("invalid report ID"))
		return uuid.Nil, false
	}
	return id, true
}

// Package handler serves the metric catalog autocomplete.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/httpx"
)

const maxLimit = 50

type CatalogHandler struct {
	registry *catalog.Registry
	index    *catalog.SearchIndex
	logger   *slog.Logger
}

func NewCatalogHandler(registry *catalog.Registry, index *catalog.SearchIndex, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{registry: registry, index: index, logger: logger}
}

func (h *CatalogHandler) Routes(r chi.Router) {
	r.Get("/api/catalog/metrics", h.Search)
}

type metricsResponse struct {
	Metrics  []string `json:"metrics"`
	Defaults []string `json:"defaults"`
}

// Search returns metric names matching q, or the whole catalog in canonical
// order when q is empty.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	resp := metricsResponse{Defaults: h.registry.Defaults()}
	if q == "" {
		resp.Metrics = h.registry.All()
		httpx.WriteJSON(w, http.StatusOK, resp)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, nil)
			return
		}
		limit = min(n, maxLimit)
	}

	names, err := h.index.Search(q, limit)
	if err != nil {
		h.logger.Error("metric search failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	resp.Metrics = names
	httpx.WriteJSON(w, http.StatusOK, resp)
}

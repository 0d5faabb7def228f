package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/ad-reporting-tool/pkg/httpx"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/middleware"
)

// NewRouter builds the API router
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(d.Config.Server.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"recordStore": d.ReportService.Enabled(),
		})
	})
	if d.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.PromRegistry, promhttp.HandlerOpts{}))
	}

	d.CatalogHandler.Routes(r)
	d.BrandHandler.Routes(r)
	d.ReportHandler.Routes(r)

	// uploads are the expensive path
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(float64(d.Config.Server.RateLimitPerSecond), d.Config.Server.RateLimitBurst))
		d.ImportHandler.Routes(r)
	})

	return r
}

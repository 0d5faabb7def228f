// Package observability holds the Prometheus collectors and the tracer used
// across the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const namespace = "adreport"

// Metrics groups the service collectors. A nil *Metrics is valid and records
// nothing, which keeps tests and the CLI free of registry setup.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	FilesParsed        *prometheus.CounterVec
	CampaignsExtracted prometheus.Counter
	PlatformDetected   *prometheus.CounterVec
	Splices            *prometheus.CounterVec
	UpdateMismatches   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		FilesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Uploaded files processed by outcome.",
		}, []string{"status"}),
		CampaignsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaigns_extracted_total",
			Help:      "Campaign records extracted from uploaded files.",
		}),
		PlatformDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_detected_total",
			Help:      "Files classified per ad platform.",
		}, []string{"platform"}),
		Splices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_splices_total",
			Help:      "Imports spliced into a sheet by mode.",
		}, []string{"mode"}),
		UpdateMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_mismatches_total",
			Help:      "Campaigns an update import could not place.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.FilesParsed,
		m.CampaignsExtracted,
		m.PlatformDetected,
		m.Splices,
		m.UpdateMismatches,
	)
	return m
}

// FileParsed counts one processed file.
func (m *Metrics) FileParsed(status string) {
	if m == nil {
		return
	}
	m.FilesParsed.WithLabelValues(status).Inc()
}

// Extracted counts the campaigns of one file and its platform.
func (m *Metrics) Extracted(platform string, campaigns int) {
	if m == nil {
		return
	}
	m.PlatformDetected.WithLabelValues(platform).Inc()
	m.CampaignsExtracted.Add(float64(campaigns))
}

// Spliced counts one splice and the campaigns it failed to place.
func (m *Metrics) Spliced(mode string, mismatches int) {
	if m == nil {
		return
	}
	m.Splices.WithLabelValues(mode).Inc()
	m.UpdateMismatches.Add(float64(mismatches))
}

// Tracer returns a tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("github.com/FACorreiaa/ad-reporting-tool/" + name)
}

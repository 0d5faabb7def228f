package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.FileParsed("ok")
	m.FileParsed("ok")
	m.FileParsed("failed")
	m.Extracted("google", 3)
	m.Spliced("update", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesParsed.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesParsed.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CampaignsExtracted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlatformDetected.WithLabelValues("google")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpdateMismatches))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FileParsed("ok")
		m.Extracted("meta", 1)
		m.Spliced("insert", 0)
	})
}

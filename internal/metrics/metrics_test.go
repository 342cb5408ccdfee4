package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soltab/internal/metrics"
)

func TestRecorder_Collects(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.NewRecorder(reg)

	r.TableProcessed("ok", 20*time.Millisecond)
	r.TableProcessed("review", 10*time.Millisecond)
	r.MethodFailed("stream")
	r.Agreement(0.9)
	r.Quality(85, map[string]map[string]int{"warning": {"mass_balance": 2}})
	r.HTTPRequest("GET", "/api/v1/tables", "200", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["soltab_pipeline_tables_processed_total"])
	assert.True(t, names["soltab_consensus_method_failures_total"])
	assert.True(t, names["soltab_validation_flags_total"])
	assert.True(t, names["soltab_http_requests_total"])
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *metrics.Recorder
	assert.NotPanics(t, func() {
		r.TableProcessed("ok", time.Second)
		r.Agreement(1)
		r.HTTPRequest("GET", "/", "200", time.Second)
	})
}

package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
)

func newCollector(t *testing.T, subsystem string) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "risk", Subsystem: subsystem}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_Config(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "engine"}, logging.NewNopLogger())
	assert.Error(t, err, "namespace is required")

	c, err := NewMetricsCollector(CollectorConfig{Namespace: "risk", EnableProcessMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "process_cpu_seconds_total")
}

func TestCollectorConfigFrom(t *testing.T) {
	cfg := CollectorConfigFrom(config.MetricsConfig{Namespace: "recidivism", Subsystem: "worker"})
	assert.Equal(t, "recidivism", cfg.Namespace)
	assert.Equal(t, "worker", cfg.Subsystem)
	assert.True(t, cfg.EnableGoMetrics)

	c, err := NewMetricsCollector(cfg, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "go_goroutines")
}

func TestRegister_Kinds(t *testing.T) {
	c := newCollector(t, "engine")

	c.RegisterCounter("scores_total", "Scored profiles", "level").WithLabelValues("high").Add(3)
	c.RegisterGauge("batch_in_flight", "Running batches").WithLabelValues().Set(2)
	c.RegisterHistogram("forecast_probability", "Forecast probabilities", []float64{0.25, 0.5, 0.75}, "offense").
		WithLabelValues("theft").Observe(0.6)

	out := scrape(t, c)
	for _, want := range []string{
		`risk_engine_scores_total{level="high"} 3`,
		`risk_engine_batch_in_flight 2`,
		`risk_engine_forecast_probability_bucket{offense="theft",le="0.75"} 1`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestRegister_SameNameReturnsExisting(t *testing.T) {
	c := newCollector(t, "cache")
	c.RegisterCounter("hits_total", "Cache hits").WithLabelValues().Inc()
	c.RegisterCounter("hits_total", "Cache hits").WithLabelValues().Inc()
	assert.Contains(t, scrape(t, c), "risk_cache_hits_total 2")
}

func TestRegister_KindConflictIsNoop(t *testing.T) {
	c := newCollector(t, "cache")
	c.RegisterCounter("evictions", "Evictions").WithLabelValues().Inc()

	// A gauge under a counter's name silently records nothing.
	c.RegisterGauge("evictions", "Evictions").WithLabelValues().Set(99)

	out := scrape(t, c)
	assert.Contains(t, out, "# TYPE risk_cache_evictions counter")
	assert.NotContains(t, out, "risk_cache_evictions 99")
}

func TestRegister_Concurrent(t *testing.T) {
	c := newCollector(t, "worker")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("reassessed_total", "Reassessments", "result").WithLabelValues("ok").Inc()
		}()
	}
	wg.Wait()
	assert.Contains(t, scrape(t, c), `risk_worker_reassessed_total{result="ok"} 32`)
}

func TestTimer(t *testing.T) {
	c := newCollector(t, "engine")
	hist := c.RegisterHistogram("assess_seconds", "Assessment latency", nil)
	timer := NewTimer(hist.WithLabelValues())
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.ObserveDuration(), 5*time.Millisecond)
	assert.Contains(t, scrape(t, c), "risk_engine_assess_seconds_count 1")
}

func TestMustRegisterAndUnregister(t *testing.T) {
	c := newCollector(t, "api")
	custom := prometheus.NewCounter(prometheus.CounterOpts{Name: "constants_reloads_total"})
	c.MustRegister(custom)
	assert.Contains(t, scrape(t, c), "constants_reloads_total")

	assert.True(t, c.Unregister(custom))
	assert.NotContains(t, scrape(t, c), "constants_reloads_total")
}

//Personal.AI order the ending

package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric the service exports.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Engine
	EngineOperationsTotal   CounterVec
	EngineOperationDuration HistogramVec
	RiskScoreDistribution   HistogramVec
	RiskLevelTotal          CounterVec
	UnrecognizedPatterns    CounterVec
	ForecastProbability     HistogramVec
	PlanRiskReduction       HistogramVec

	// Assessment service
	AssessmentsTotal    CounterVec
	BatchSize           HistogramVec
	BatchItemFailures   CounterVec
	AssessmentsInFlight GaugeVec

	// Infrastructure
	DBQueryDuration        HistogramVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	MessagesPublished      CounterVec
	MessagesConsumed       CounterVec
	MessageProcessDuration HistogramVec

	// Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultEngineDurationBuckets = []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01}
	DefaultScoreBuckets          = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	DefaultPercentBuckets        = []float64{5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100}
	DefaultBatchSizeBuckets      = []float64{1, 5, 10, 25, 50, 100, 250, 500}
	DefaultSizeBuckets           = []float64{100, 1000, 10000, 100000, 1000000}
	DefaultDBDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics on collector and returns them.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// Engine
	m.EngineOperationsTotal = collector.RegisterCounter("engine_operations_total", "Engine invocations", "operation", "status")
	m.EngineOperationDuration = collector.RegisterHistogram("engine_operation_duration_seconds", "Engine invocation duration", DefaultEngineDurationBuckets, "operation")
	m.RiskScoreDistribution = collector.RegisterHistogram("risk_score", "Distribution of computed risk scores", DefaultScoreBuckets)
	m.RiskLevelTotal = collector.RegisterCounter("risk_level_total", "Computed risk levels", "level")
	m.UnrecognizedPatterns = collector.RegisterCounter("unrecognized_patterns_total", "Profiles scored with the unknown-pattern fallback")
	m.ForecastProbability = collector.RegisterHistogram("forecast_probability_percent", "Forecast probability per offense", DefaultPercentBuckets, "offense")
	m.PlanRiskReduction = collector.RegisterHistogram("plan_risk_reduction_percent", "Expected risk reduction of generated plans", DefaultPercentBuckets, "level")

	// Assessment service
	m.AssessmentsTotal = collector.RegisterCounter("assessments_total", "Assessments served", "source", "cache")
	m.BatchSize = collector.RegisterHistogram("batch_size", "Batch assessment sizes", DefaultBatchSizeBuckets)
	m.BatchItemFailures = collector.RegisterCounter("batch_item_failures_total", "Batch items that failed", "error_code")
	m.AssessmentsInFlight = collector.RegisterGauge("assessments_in_flight", "Assessments currently running", "source")

	// Infrastructure
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.MessagesPublished = collector.RegisterCounter("messages_published_total", "Messages published", "topic", "status")
	m.MessagesConsumed = collector.RegisterCounter("messages_consumed_total", "Messages consumed", "topic", "status")
	m.MessageProcessDuration = collector.RegisterHistogram("message_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "topic")

	// Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Record helpers.  Every helper tolerates a nil *AppMetrics so callers with
// metrics disabled can call them unconditionally.
// ─────────────────────────────────────────────────────────────────────────────

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration, respSize int64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordEngineOperation records one engine call (score, forecast, plan, assemble).
func RecordEngineOperation(m *AppMetrics, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EngineOperationsTotal.WithLabelValues(operation, status).Inc()
	m.EngineOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRiskResult records the score and level of a computed assessment.
func RecordRiskResult(m *AppMetrics, score float64, level string) {
	if m == nil {
		return
	}
	m.RiskScoreDistribution.WithLabelValues().Observe(score)
	m.RiskLevelTotal.WithLabelValues(level).Inc()
}

// RecordUnrecognizedPattern counts a scoring call that used the unknown-pattern fallback.
func RecordUnrecognizedPattern(m *AppMetrics) {
	if m == nil {
		return
	}
	m.UnrecognizedPatterns.WithLabelValues().Inc()
}

// RecordForecast records the probability of one forecast entry.
func RecordForecast(m *AppMetrics, offense string, probability float64) {
	if m == nil {
		return
	}
	m.ForecastProbability.WithLabelValues(offense).Observe(probability)
}

// RecordPlan records the expected reduction of a generated plan.
func RecordPlan(m *AppMetrics, level string, reduction float64) {
	if m == nil {
		return
	}
	m.PlanRiskReduction.WithLabelValues(level).Observe(reduction)
}

// RecordAssessment counts a served assessment by source (api, batch, worker)
// and whether it came from cache.
func RecordAssessment(m *AppMetrics, source string, cacheHit bool) {
	if m == nil {
		return
	}
	m.AssessmentsTotal.WithLabelValues(source, strconv.FormatBool(cacheHit)).Inc()
}

// RecordBatch records a batch size and its failed item codes.
func RecordBatch(m *AppMetrics, size int, failureCodes []string) {
	if m == nil {
		return
	}
	m.BatchSize.WithLabelValues().Observe(float64(size))
	for _, code := range failureCodes {
		m.BatchItemFailures.WithLabelValues(code).Inc()
	}
}

// RecordDBQuery records a repository call.
func RecordDBQuery(m *AppMetrics, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues("postgres", "query_failed").Inc()
	}
}

// RecordCacheAccess records a cache hit or miss.
func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordMessage records a produced or consumed message.
func RecordMessage(m *AppMetrics, direction, topic string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	switch direction {
	case "consume":
		m.MessagesConsumed.WithLabelValues(topic, status).Inc()
	default:
		m.MessagesPublished.WithLabelValues(topic, status).Inc()
	}
}

// RecordError counts an error by component and code.
func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

// SetHealth sets the health gauge of a component.
func SetHealth(m *AppMetrics, component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending

package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric family the service emits.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Geometry validation
	ValidationsTotal   CounterVec
	ValidationDuration HistogramVec
	ValidationLoss     HistogramVec
	ValidationAtoms    HistogramVec

	// Refinement jobs
	RefinementJobsTotal   CounterVec
	RefinementDuration    HistogramVec
	RefinementIterations  HistogramVec
	RefinementQueueDepth  GaugeVec
	RefinementActiveJobs  GaugeVec
	RefinementLossDropPct HistogramVec

	// Molecule identity
	CanonicalizationsTotal CounterVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec

	// Infrastructure
	DBQueryDuration HistogramVec
	ErrorsTotal     CounterVec
}

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRefineDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300}
	DefaultLossBuckets           = []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, .1, 1, 10, 100}
	DefaultAtomCountBuckets      = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	DefaultIterationBuckets      = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}
	DefaultDBDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers every metric family and returns the populated
// struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total",
		"Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds",
		"HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests",
		"In-flight HTTP requests", "method", "path")

	m.ValidationsTotal = collector.RegisterCounter("validations_total",
		"Geometry loss evaluations", "status")
	m.ValidationDuration = collector.RegisterHistogram("validation_duration_seconds",
		"Geometry loss evaluation duration", DefaultHTTPDurationBuckets, "status")
	m.ValidationLoss = collector.RegisterHistogram("validation_loss",
		"Weighted total loss per evaluation", DefaultLossBuckets, "term")
	m.ValidationAtoms = collector.RegisterHistogram("validation_atom_count",
		"Atoms per evaluated conformer", DefaultAtomCountBuckets)

	m.RefinementJobsTotal = collector.RegisterCounter("refinement_jobs_total",
		"Refinement jobs by terminal status", "status")
	m.RefinementDuration = collector.RegisterHistogram("refinement_duration_seconds",
		"Refinement wall time", DefaultRefineDurationBuckets)
	m.RefinementIterations = collector.RegisterHistogram("refinement_iterations",
		"Gradient steps per refinement", DefaultIterationBuckets)
	m.RefinementQueueDepth = collector.RegisterGauge("refinement_queue_depth",
		"Queued refinement jobs")
	m.RefinementActiveJobs = collector.RegisterGauge("refinement_active_jobs",
		"Refinement jobs currently executing")
	m.RefinementLossDropPct = collector.RegisterHistogram("refinement_loss_drop_percent",
		"Relative loss reduction achieved", []float64{0, 10, 25, 50, 75, 90, 99, 100})

	m.CanonicalizationsTotal = collector.RegisterCounter("canonicalizations_total",
		"SMILES canonicalization calls", "result")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total",
		"Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total",
		"Cache misses", "cache")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds",
		"Database query duration", DefaultDBDurationBuckets, "operation")
	m.ErrorsTotal = collector.RegisterCounter("errors_total",
		"Errors by component", "component", "code")

	return m
}

// RecordHTTPRequest updates the HTTP counter and duration families.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordValidation updates the evaluation families after one loss call.
func RecordValidation(m *AppMetrics, natoms int, total float64, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ValidationsTotal.WithLabelValues(status).Inc()
	m.ValidationDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil {
		m.ValidationLoss.WithLabelValues("total").Observe(total)
		m.ValidationAtoms.WithLabelValues().Observe(float64(natoms))
	}
}

// RecordCacheAccess updates the hit or miss counter for the named cache.
func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordError increments the error counter for a component and error code.
func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the domain counters the
// import and export pipelines report into.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	importsTotal    *prometheus.CounterVec
	importedRecords prometheus.Counter
	exportsTotal    *prometheus.CounterVec
}

// NewMetricsService registers all collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_cache_hits_total",
		Help: "Timetable row cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_cache_misses_total",
		Help: "Timetable row cache misses",
	})

	importsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_imports_total",
		Help: "Excel timetable import attempts by outcome",
	}, []string{"result"})

	importedRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_import_records_total",
		Help: "Timetable records submitted by successful imports",
	})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_exports_total",
		Help: "Timetable export jobs by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		importsTotal, importedRecords, exportsTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		importsTotal:    importsTotal,
		importedRecords: importedRecords,
		exportsTotal:    exportsTotal,
	}
}

// Handler exposes the Prometheus scrape handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, label).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, label).Inc()
}

// RecordCacheLookup tracks timetable row cache effectiveness.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordImport tracks one import attempt and, on success, its record count.
func (m *MetricsService) RecordImport(result string, records int) {
	if m == nil {
		return
	}
	m.importsTotal.WithLabelValues(result).Inc()
	if records > 0 {
		m.importedRecords.Add(float64(records))
	}
}

// RecordExport tracks one requested export job.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format).Inc()
}

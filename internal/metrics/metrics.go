package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	documentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finfinder",
			Name:      "documents_processed_total",
			Help:      "Documents processed by result (success, file_error)",
		},
		[]string{"result"},
	)

	pageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finfinder",
			Name:      "page_errors_total",
			Help:      "Per-page failures by kind (extraction, scoring)",
		},
		[]string{"kind"},
	)

	lonersResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finfinder",
			Name:      "loners_resolved_total",
			Help:      "Loner demotions by category",
		},
		[]string{"category"},
	)

	selectionIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finfinder",
			Name:      "selection_iterations",
			Help:      "Selection loop passes per document",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	documentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finfinder",
			Name:      "document_duration_seconds",
			Help:      "Wall time to locate statements in one document",
			Buckets:   prometheus.DefBuckets,
		},
	)

	initOnce sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(documentsProcessed, pageErrors, lonersResolved, selectionIterations, documentDuration)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncDocument(result string)        { documentsProcessed.WithLabelValues(result).Inc() }
func IncPageError(kind string)         { pageErrors.WithLabelValues(kind).Inc() }
func IncLonerResolved(category string) { lonersResolved.WithLabelValues(category).Inc() }

// ObserveDocument records one finished document.
func ObserveDocument(iterations int, dur time.Duration) {
	selectionIterations.Observe(float64(iterations))
	documentDuration.Observe(dur.Seconds())
}

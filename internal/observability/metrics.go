package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "essence",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "essence",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "essence",
			Subsystem: "dispatch",
			Name:      "executions_total",
			Help:      "Executed lines by handling rule and outcome.",
		},
		[]string{"rule", "success"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "essence",
			Subsystem: "dispatch",
			Name:      "execution_duration_seconds",
			Help:      "Line execution duration in seconds.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"rule"},
	)
	classifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "essence",
			Subsystem: "dispatch",
			Name:      "classifications_total",
			Help:      "Classifier matches by essence and operation.",
		},
		[]string{"essence", "operation"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, dispatchTotal, dispatchDuration, classifyTotal)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordDispatch(rule string, success bool, duration time.Duration) {
	RegisterMetrics()
	dispatchTotal.WithLabelValues(rule, strconv.FormatBool(success)).Inc()
	dispatchDuration.WithLabelValues(rule).Observe(duration.Seconds())
}

func RecordClassification(essence, operation string) {
	RegisterMetrics()
	classifyTotal.WithLabelValues(essence, operation).Inc()
}

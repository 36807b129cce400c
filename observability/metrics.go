package observability

import (
	"errors"
	"net/http"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FilesAssignedTotal counts assigned items by package folder; items left
	// out of the package are counted under folder "none".
	FilesAssignedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonugetizer_files_assigned_total",
			Help: "Total number of items assigned a package path, by folder",
		},
		[]string{"folder"},
	)

	// FilesHashedTotal counts files whose content had to be hashed to settle
	// a duplicate path.
	FilesHashedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gonugetizer_files_hashed_total",
			Help: "Total number of files hashed during duplicate detection",
		},
	)

	// PackageConflictsTotal counts package paths claimed by different content.
	PackageConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gonugetizer_package_conflicts_total",
			Help: "Total number of conflicting package paths",
		},
	)

	// DiagnosticsTotal counts logged diagnostics by code and severity.
	DiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonugetizer_diagnostics_total",
			Help: "Total number of diagnostics by code and severity",
		},
		[]string{"code", "severity"},
	)

	// PackagesCreatedTotal counts package creation attempts by status.
	PackagesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonugetizer_packages_created_total",
			Help: "Total number of package creation attempts by status",
		},
		[]string{"status"}, // success, failure
	)

	// PackDuration tracks pipeline stage durations in seconds.
	PackDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gonugetizer_pack_duration_seconds",
			Help:    "Duration of packaging stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"stage"},
	)
)

// MetricsHandler serves the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// NewMetricsServer returns a server exposing /metrics on addr. The caller
// owns starting and shutting it down.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	return &http.Server{Addr: addr, Handler: mux}
}

// GetCounterValue reads a counter. It is meant for tests.
func GetCounterValue(c prometheus.Counter) (float64, error) {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0, err
	}
	if pb.Counter == nil {
		return 0, errors.New("metric is not a counter")
	}
	return pb.Counter.GetValue(), nil
}

// GetCounterVecValue reads one labelled counter of a vector. It is meant for tests.
func GetCounterVecValue(vec *prometheus.CounterVec, labels ...string) (float64, error) {
	c, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}
	return GetCounterValue(c)
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TrackingRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followscope_tracking_runs_total",
		Help: "Total tracking runs",
	})
	TrackingErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followscope_tracking_errors_total",
		Help: "Total failed tracking runs",
	})
	TrackingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "followscope_tracking_duration_seconds",
		Help:    "Tracking run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	SnapshotsSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followscope_snapshots_saved_total",
		Help: "Total snapshots persisted",
	})
	LastUnfollowers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "followscope_last_unfollowers",
		Help: "Unfollowers found by the last diff",
	})
	LastNewFollowers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "followscope_last_new_followers",
		Help: "New followers found by the last diff",
	})
	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "followscope_provider_requests_total",
		Help: "Requests sent to the social platform",
	}, []string{"endpoint"})
)

func init() {
	prometheus.MustRegister(TrackingRuns, TrackingErrors, TrackingDuration, SnapshotsSaved,
		LastUnfollowers, LastNewFollowers, ProviderRequests)
}

// StartServer serves /metrics and /health on addr in the background. Empty addr is a no-op.
func StartServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveRun records one tracking run and whether it failed.
func ObserveRun(start time.Time, err error) {
	TrackingRuns.Inc()
	if err != nil {
		TrackingErrors.Inc()
	}
	TrackingDuration.Observe(time.Since(start).Seconds())
}

// RecordDiff publishes the sizes of the last diff.
func RecordDiff(unfollowers, newFollowers int) {
	LastUnfollowers.Set(float64(unfollowers))
	LastNewFollowers.Set(float64(newFollowers))
}

// IncProviderRequest increments the request counter for an endpoint.
func IncProviderRequest(endpoint string) { ProviderRequests.WithLabelValues(endpoint).Inc() }

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsExposure(t *testing.T) {
	ObserveRun(time.Now().Add(-1500*time.Millisecond), nil)
	ObserveRun(time.Now(), errors.New("boom"))
	SnapshotsSaved.Inc()
	RecordDiff(2, 3)
	IncProviderRequest("followers")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"followscope_tracking_runs_total",
		"followscope_tracking_errors_total",
		"followscope_tracking_duration_seconds",
		"followscope_snapshots_saved_total",
		"followscope_last_unfollowers 2",
		"followscope_last_new_followers 3",
		`followscope_provider_requests_total{endpoint="followers"}`,
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}

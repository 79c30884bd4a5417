package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStoreCountsOutcomes(t *testing.T) {
	m := New()
	m.ObserveStore("Absensi", "scan", time.Now(), nil)
	m.ObserveStore("Absensi", "scan", time.Now(), nil)
	m.ObserveStore("Absensi", "append", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.StoreOps.WithLabelValues("Absensi", "scan", "ok")); got != 2 {
		t.Errorf("expected 2 ok scans, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreOps.WithLabelValues("Absensi", "append", "error")); got != 1 {
		t.Errorf("expected 1 failed append, got %v", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.DELETE("/attendance/:position", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, p := range []string{"/attendance/2", "/attendance/3"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("DELETE", p, nil))
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("DELETE", "/attendance/:position", "200")); got != 2 {
		t.Errorf("expected 2 requests on route pattern, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RateLimitHits.Inc()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "absensi_rate_limited_total 1") {
		t.Errorf("expected rate limit counter in output")
	}
}

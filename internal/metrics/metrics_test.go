package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/tcrview/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestObserveLogQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveLogQuery("MetaEvidence", 1000, 3, nil, 0.1)
	m.ObserveLogQuery("MetaEvidence", 1000, 0, errors.New("timeout"), 2)

	want := `
# HELP tcr_events_total Total events fetched by event name.
# TYPE tcr_events_total counter
tcr_events_total{event="MetaEvidence"} 3
# HELP tcr_log_queries_total Total log queries by event and result.
# TYPE tcr_log_queries_total counter
tcr_log_queries_total{event="MetaEvidence",result="error"} 1
tcr_log_queries_total{event="MetaEvidence",result="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "tcr_events_total", "tcr_log_queries_total"); err != nil {
		t.Error(err)
	}
}

func TestObserveItemQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveItemQuery("page", 25, 2, nil, 0.3)
	m.ObserveItemQuery("item", 1, 0, nil, 0.1)

	if got := testutil.CollectAndCount(reg, "tcr_item_queries_total"); got != 2 {
		t.Errorf("expected 2 item query series, got %d", got)
	}
	want := `
# HELP tcr_items_returned_total Total items returned to callers.
# TYPE tcr_items_returned_total counter
tcr_items_returned_total 26
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "tcr_items_returned_total"); err != nil {
		t.Error(err)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("ping: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `tcr_http_requests_total{method="GET",path="/ping",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", w.Body.String())
	}
}

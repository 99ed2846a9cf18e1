// Package metrics exposes registry client and gateway metrics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one process. It implements gtcr.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	logQueriesTotal   *prometheus.CounterVec
	logQueryBlocks    prometheus.Histogram
	logQueryDuration  *prometheus.HistogramVec
	eventsTotal       *prometheus.CounterVec
	itemQueriesTotal  *prometheus.CounterVec
	itemQueryDuration *prometheus.HistogramVec
	cursorRequests    prometheus.Histogram
	itemsReturned     prometheus.Counter

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. When reg is nil the default
// Prometheus registry is used.
func New(reg *prometheus.Registry) *Metrics {
	var (
		r prometheus.Registerer = prometheus.DefaultRegisterer
		g prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		r, g = reg, reg
	}
	f := promauto.With(r)

	return &Metrics{
		gatherer: g,

		logQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tcr_log_queries_total",
			Help: "Total log queries by event and result.",
		}, []string{"event", "result"}),

		logQueryBlocks: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tcr_log_query_blocks",
			Help:    "Width in blocks of each log query window.",
			Buckets: prometheus.ExponentialBuckets(1_000, 4, 8),
		}),

		logQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tcr_log_query_duration_seconds",
			Help:    "Log query duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"event"}),

		eventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tcr_events_total",
			Help: "Total events fetched by event name.",
		}, []string{"event"}),

		itemQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tcr_item_queries_total",
			Help: "Total item queries by operation and result.",
		}, []string{"op", "result"}),

		itemQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tcr_item_query_duration_seconds",
			Help:    "Item query duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		cursorRequests: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tcr_cursor_requests",
			Help:    "Page-finding requests issued per item page.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),

		itemsReturned: f.NewCounter(prometheus.CounterOpts{
			Name: "tcr_items_returned_total",
			Help: "Total items returned to callers.",
		}),

		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tcr_http_requests_total",
			Help: "Total HTTP requests by method, path, and response status.",
		}, []string{"method", "path", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tcr_http_request_duration_seconds",
			Help:    "Request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveLogQuery implements gtcr.Observer.
func (m *Metrics) ObserveLogQuery(event string, blocks uint64, events int, err error, seconds float64) {
	m.logQueriesTotal.WithLabelValues(event, result(err)).Inc()
	m.logQueryBlocks.Observe(float64(blocks))
	m.logQueryDuration.WithLabelValues(event).Observe(seconds)
	m.eventsTotal.WithLabelValues(event).Add(float64(events))
}

// ObserveItemQuery implements gtcr.Observer.
func (m *Metrics) ObserveItemQuery(op string, items int, cursorRequests int, err error, seconds float64) {
	m.itemQueriesTotal.WithLabelValues(op, result(err)).Inc()
	m.itemQueryDuration.WithLabelValues(op).Observe(seconds)
	if cursorRequests > 0 {
		m.cursorRequests.Observe(float64(cursorRequests))
	}
	m.itemsReturned.Add(float64(items))
}

// Middleware returns a Gin middleware that records per-request metrics.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.requestsTotal.WithLabelValues(method, path, status).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// Handler returns a Gin handler that serves the collected metrics.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

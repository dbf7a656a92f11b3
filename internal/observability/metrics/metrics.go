package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments for the purchase pipeline.
type Metrics struct {
	purchaseOutcomes  *prometheus.CounterVec
	approvalDecisions *prometheus.CounterVec
	approvalWait      prometheus.Histogram
	rateLimitDenied   *prometheus.CounterVec
}

// New registers the purchase pipeline instruments.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		purchaseOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_purchase_outcomes_total",
			Help: "Purchase attempts by terminal outcome.",
		}, []string{"outcome"}),
		approvalDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_approval_decisions_total",
			Help: "Approval session resolutions by final state.",
		}, []string{"decision"}),
		approvalWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "safeguard_approval_wait_seconds",
			Help:    "Seconds an approval session spent waiting for a decision.",
			Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90},
		}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_rate_limit_denied_total",
			Help: "Requests rejected by the identify rate limiter.",
		}, []string{"endpoint"}),
	}

	for _, collector := range []prometheus.Collector{
		m.purchaseOutcomes,
		m.approvalDecisions,
		m.approvalWait,
		m.rateLimitDenied,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) RecordPurchaseOutcome(outcome string) {
	if m == nil {
		return
	}
	m.purchaseOutcomes.WithLabelValues(strings.TrimSpace(outcome)).Inc()
}

func (m *Metrics) RecordApprovalDecision(decision string, waited time.Duration) {
	if m == nil {
		return
	}
	m.approvalDecisions.WithLabelValues(strings.TrimSpace(decision)).Inc()
	m.approvalWait.Observe(waited.Seconds())
}

func (m *Metrics) RecordRateLimitDenied(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(strings.TrimSpace(endpoint)).Inc()
}

// HTTPMetrics instruments the gin server.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safeguard_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

package prometheus

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	settlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikeshop_settlements_total",
			Help: "Sale settlements by sale type and outcome",
		},
		[]string{"sale_type", "outcome"},
	)
)

type PrometheusAdapter struct{}

func NewPrometheusAdapter() *PrometheusAdapter {
	return &PrometheusAdapter{}
}

func (p *PrometheusAdapter) RecordMetrics(c *gin.Context, start time.Time) {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())

	httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}

func (p *PrometheusAdapter) RecordSettlement(saleType string, outcome string) {
	settlementsTotal.WithLabelValues(saleType, outcome).Inc()
}

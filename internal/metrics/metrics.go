// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusattend",
		Name:      "checkins_total",
		Help:      "Check-in attempts by method and outcome code.",
	}, []string{"method", "outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campusattend",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// CheckIns records check-in outcomes.
type CheckIns struct{}

// CheckIn counts one attempt. outcome is "ok" or the rejection code.
func (CheckIns) CheckIn(method, outcome string) {
	checkIns.WithLabelValues(method, outcome).Inc()
}

// Middleware observes request latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

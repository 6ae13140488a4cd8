package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildtalk_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buildtalk_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildtalk_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildtalk_votes_total",
		Help: "Vote casts by resulting ledger action.",
	}, []string{"action"})

	feedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buildtalk_feed_subscribers",
		Help: "Open live feed connections.",
	})
)

// Metrics records per-request counters and latency.
func Metrics() gin.HandlerFunc {
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

		requestsTotal.WithLabelValues(method, path, status).Inc()
		requestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func RecordVote(action string) {
	votesTotal.WithLabelValues(action).Inc()
}

func FeedSubscriberConnected() {
	feedSubscribers.Inc()
}

func FeedSubscriberDisconnected() {
	feedSubscribers.Dec()
}

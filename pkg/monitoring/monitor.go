package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// InvitationsConsumed mode: existing_student | signup
	InvitationsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classroom_invitations_consumed_total",
			Help: "Successful invitation consumptions",
		},
		[]string{"mode"},
	)

	// InvitationsRejected reason 为错误类型，如 GONE / CONFLICT
	InvitationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classroom_invitations_rejected_total",
			Help: "Rejected invitation consumptions",
		},
		[]string{"reason"},
	)

	AttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classroom_quiz_attempts_started_total",
			Help: "Quiz attempts started",
		},
	)

	AttemptsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classroom_quiz_attempts_submitted_total",
			Help: "Quiz attempts submitted",
		},
	)

	AttemptScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classroom_quiz_attempt_score",
			Help:    "Distribution of submitted quiz scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			InvitationsConsumed,
			InvitationsRejected,
			AttemptsStarted,
			AttemptsSubmitted,
			AttemptScores,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

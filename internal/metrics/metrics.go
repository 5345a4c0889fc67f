package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookwise",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookwise",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	signIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookwise",
			Subsystem: "auth",
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by outcome.",
		},
		[]string{"outcome"},
	)

	signUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookwise",
			Subsystem: "auth",
			Name:      "sign_ups_total",
			Help:      "Sign-up attempts by outcome.",
		},
		[]string{"outcome"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookwise",
			Subsystem: "auth",
			Name:      "rate_limited_total",
			Help:      "Requests denied by the rate limiter.",
		},
		[]string{"action"},
	)

	uploadsSigned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookwise",
			Subsystem: "upload",
			Name:      "credentials_issued_total",
			Help:      "Upload credentials issued to clients.",
		},
	)

	workflowTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookwise",
			Subsystem: "workflow",
			Name:      "triggers_total",
			Help:      "Onboarding workflow triggers by result.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		signIns,
		signUps,
		rateLimited,
		uploadsSigned,
		workflowTriggers,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency per route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordSignIn counts a sign-in attempt. Outcomes: success, rejected, error, limited.
func RecordSignIn(outcome string) {
	signIns.WithLabelValues(outcome).Inc()
}

// RecordSignUp counts a sign-up attempt.
func RecordSignUp(outcome string) {
	signUps.WithLabelValues(outcome).Inc()
}

// RecordRateLimited counts a limiter denial for action.
func RecordRateLimited(action string) {
	rateLimited.WithLabelValues(action).Inc()
}

// RecordUploadSigned counts issued upload credentials.
func RecordUploadSigned() {
	uploadsSigned.Inc()
}

// RecordWorkflowTrigger counts a workflow trigger attempt.
func RecordWorkflowTrigger(success bool) {
	workflowTriggers.WithLabelValues(strconv.FormatBool(success)).Inc()
}

package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jetcharter"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	wizardTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_transitions_total",
			Help:      "Booking wizard operations by operation, the stage they were applied to and outcome.",
		},
		[]string{"operation", "from_stage", "outcome"},
	)

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Identity operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	inquiryDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inquiry_deliveries_total",
			Help:      "Inquiry deliveries by sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)

	inquiryQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inquiry_queue_depth",
			Help:      "Inquiries waiting in the in-memory queue.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			grpcRequests,
			wizardTransitions,
			authAttempts,
			inquiryDeliveries,
			inquiryQueueDepth,
		)
	})
}

// ObserveHTTP records one finished HTTP request.
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

func IncWizard(operation, fromStage, outcome string) {
	wizardTransitions.WithLabelValues(operation, fromStage, outcome).Inc()
}

func IncAuth(operation, outcome string) {
	authAttempts.WithLabelValues(operation, outcome).Inc()
}

func IncInquiry(sink, outcome string) {
	inquiryDeliveries.WithLabelValues(sink, outcome).Inc()
}

func SetInquiryQueueDepth(n int) {
	inquiryQueueDepth.Set(float64(n))
}

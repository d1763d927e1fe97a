// Package metrics exposes Prometheus collectors for the relay. Collectors are
// fed from hook events so the request path never calls into this package.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soyeahso/hubrelay/internal/hooks"
)

var (
	// Webhook metrics
	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubrelay_webhook_requests_total",
			Help: "Total number of webhook requests by outcome",
		},
		[]string{"outcome"},
	)

	// Reply metrics
	Replies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubrelay_replies_total",
			Help: "Total number of generated replies by result",
		},
		[]string{"result"},
	)

	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubrelay_dispatch_total",
			Help: "Total number of reply deliveries by result",
		},
		[]string{"result"},
	)

	// Upstream latency
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hubrelay_upstream_duration_seconds",
			Help:    "Duration of outbound calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	// Circuit breaker
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hubrelay_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

const hookName = "metrics"

// Register subscribes the collectors to relay hook events.
func Register(m *hooks.Manager) {
	m.On(hooks.EventWebhookRejected, hookName, func(_ context.Context, p hooks.Payload) error {
		WebhookRequests.WithLabelValues(p.String("outcome")).Inc()
		return nil
	})

	m.On(hooks.EventWebhookIgnored, hookName, func(_ context.Context, p hooks.Payload) error {
		WebhookRequests.WithLabelValues("ignored").Inc()
		return nil
	})

	m.On(hooks.EventReplyGenerated, hookName, func(_ context.Context, p hooks.Payload) error {
		result := "ok"
		if p.Bool("degraded") {
			result = "degraded"
		}
		Replies.WithLabelValues(result).Inc()
		UpstreamDuration.WithLabelValues("completion").Observe(p.Duration("duration").Seconds())
		return nil
	})

	m.On(hooks.EventReplyDispatched, hookName, func(_ context.Context, p hooks.Payload) error {
		result := "failed"
		if p.Bool("delivered") {
			result = "delivered"
		}
		Dispatches.WithLabelValues(result).Inc()
		UpstreamDuration.WithLabelValues("dispatch").Observe(p.Duration("duration").Seconds())
		// A dispatched reply ends a successful webhook regardless of delivery
		WebhookRequests.WithLabelValues("success").Inc()
		return nil
	})

	m.On(hooks.EventBreakerStateChange, hookName, func(_ context.Context, p hooks.Payload) error {
		BreakerState.WithLabelValues(p.String("breaker")).Set(breakerStateValue(p.String("to")))
		return nil
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

package responder

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/soyeahso/hubrelay/internal/config"
	"github.com/soyeahso/hubrelay/internal/hooks"
	"github.com/soyeahso/hubrelay/internal/logging"
)

const breakerName = "completion"

// breaker wraps a gobreaker.CircuitBreaker guarding the completion provider.
// A nil *breaker runs calls unguarded.
type breaker struct {
	cb *gobreaker.CircuitBreaker
}

func newBreaker(cfg config.BreakerConfig, hk *hooks.Manager, log *logging.Logger) *breaker {
	if cfg.Disabled {
		return nil
	}

	failures := cfg.Failures
	if failures == 0 {
		failures = 1
	}

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.OpenSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			hk.Emit(context.Background(), hooks.EventBreakerStateChange, map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}

	return &breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// execute runs fn under breaker protection.
func (b *breaker) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if b == nil {
		return fn()
	}

	// Skip the call (and the failure count) when the caller already gave up
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return b.cb.Execute(fn)
}

// state returns the current breaker state, or "disabled".
func (b *breaker) state() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}

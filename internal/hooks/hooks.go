// Package hooks fans relay lifecycle events out to subscribers. Metrics
// subscribe here instead of being called from the request path.
package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/hubrelay/internal/logging"
)

// Relay lifecycle events.
const (
	EventWebhookReceived    = "webhook_received"
	EventWebhookRejected    = "webhook_rejected"
	EventWebhookIgnored     = "webhook_ignored"
	EventReplyGenerated     = "reply_generated"
	EventReplyDispatched    = "reply_dispatched"
	EventBreakerStateChange = "breaker_state_change"
	EventServerStart        = "server_start"
	EventServerStop         = "server_stop"
)

// AllEvents lists every event the relay emits.
var AllEvents = []string{
	EventWebhookReceived,
	EventWebhookRejected,
	EventWebhookIgnored,
	EventReplyGenerated,
	EventReplyDispatched,
	EventBreakerStateChange,
	EventServerStart,
	EventServerStop,
}

// Payload is what a subscriber receives. RequestID is copied from the
// emitting context and is empty for events raised outside a request.
type Payload struct {
	Event     string         `json:"event"`
	RequestID string         `json:"requestId,omitempty"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

// String returns the string value stored under key, or "" when absent or of
// another type.
func (p Payload) String(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// Bool returns the bool value stored under key.
func (p Payload) Bool(key string) bool {
	b, _ := p.Data[key].(bool)
	return b
}

// Duration returns the time.Duration stored under key, or zero.
func (p Payload) Duration(key string) time.Duration {
	d, _ := p.Data[key].(time.Duration)
	return d
}

// Handler reacts to one event. A returned error or a panic is logged and
// never reaches the emitter.
type Handler func(ctx context.Context, p Payload) error

type subscriber struct {
	name    string
	handler Handler
}

// Manager routes events to subscribers. A nil *Manager drops every event, so
// components can emit unconditionally.
type Manager struct {
	mu   sync.RWMutex
	subs map[string][]subscriber
	log  *logging.Logger
}

// NewManager creates an empty manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		subs: make(map[string][]subscriber),
		log:  log.Sub("hooks"),
	}
}

// On subscribes handler to event under name.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[event] = append(m.subs[event], subscriber{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Emit runs the subscribers of event synchronously, in subscription order.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	if m == nil {
		return
	}

	m.mu.RLock()
	subs := m.subs[event]
	m.mu.RUnlock()
	if len(subs) == 0 {
		return
	}

	payload := Payload{
		Event:     event,
		RequestID: logging.RequestID(ctx),
		At:        time.Now(),
		Data:      data,
	}
	for _, s := range subs {
		if err := m.call(ctx, s, payload); err != nil {
			m.log.For(ctx).Warn().
				Err(err).
				Str("event", event).
				Str("handler", s.name).
				Msg("hook handler failed")
		}
	}
}

func (m *Manager) call(ctx context.Context, s subscriber, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(ctx, p)
}

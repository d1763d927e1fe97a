package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/soyeahso/hubrelay/internal/hooks"
	"github.com/soyeahso/hubrelay/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registered() *hooks.Manager {
	m := hooks.NewManager(logging.New(nil, "silent"))
	Register(m)
	return m
}

func TestRegister_IgnoresUnwatchedEvents(t *testing.T) {
	m := registered()
	before := testutil.CollectAndCount(WebhookRequests)

	m.Emit(context.Background(), hooks.EventWebhookReceived, map[string]any{"bytes": 12})
	m.Emit(context.Background(), hooks.EventServerStart, map[string]any{"addr": "127.0.0.1:3000"})

	assert.Equal(t, before, testutil.CollectAndCount(WebhookRequests))
}

func TestWebhookOutcomes(t *testing.T) {
	m := registered()
	ctx := context.Background()

	rejected := testutil.ToFloat64(WebhookRequests.WithLabelValues("rejected_signature"))
	ignored := testutil.ToFloat64(WebhookRequests.WithLabelValues("ignored"))
	success := testutil.ToFloat64(WebhookRequests.WithLabelValues("success"))

	m.Emit(ctx, hooks.EventWebhookRejected, map[string]any{"outcome": "rejected_signature"})
	m.Emit(ctx, hooks.EventWebhookIgnored, map[string]any{"eventType": "deal.updated"})
	m.Emit(ctx, hooks.EventWebhookIgnored, map[string]any{"eventType": "contact.created"})
	m.Emit(ctx, hooks.EventReplyDispatched, map[string]any{"delivered": false})

	assert.Equal(t, rejected+1, testutil.ToFloat64(WebhookRequests.WithLabelValues("rejected_signature")))
	assert.Equal(t, ignored+2, testutil.ToFloat64(WebhookRequests.WithLabelValues("ignored")))
	assert.Equal(t, success+1, testutil.ToFloat64(WebhookRequests.WithLabelValues("success")))
}

func TestReplyAndDispatchResults(t *testing.T) {
	m := registered()
	ctx := context.Background()

	ok := testutil.ToFloat64(Replies.WithLabelValues("ok"))
	degraded := testutil.ToFloat64(Replies.WithLabelValues("degraded"))
	delivered := testutil.ToFloat64(Dispatches.WithLabelValues("delivered"))
	failed := testutil.ToFloat64(Dispatches.WithLabelValues("failed"))

	m.Emit(ctx, hooks.EventReplyGenerated, map[string]any{"degraded": false, "duration": 120 * time.Millisecond})
	m.Emit(ctx, hooks.EventReplyGenerated, map[string]any{"degraded": true, "duration": 30 * time.Second})
	m.Emit(ctx, hooks.EventReplyDispatched, map[string]any{"delivered": true, "duration": 80 * time.Millisecond})
	m.Emit(ctx, hooks.EventReplyDispatched, map[string]any{"delivered": false})

	assert.Equal(t, ok+1, testutil.ToFloat64(Replies.WithLabelValues("ok")))
	assert.Equal(t, degraded+1, testutil.ToFloat64(Replies.WithLabelValues("degraded")))
	assert.Equal(t, delivered+1, testutil.ToFloat64(Dispatches.WithLabelValues("delivered")))
	assert.Equal(t, failed+1, testutil.ToFloat64(Dispatches.WithLabelValues("failed")))
}

func TestBreakerState(t *testing.T) {
	m := registered()
	ctx := context.Background()

	m.Emit(ctx, hooks.EventBreakerStateChange, map[string]any{"breaker": "completion", "from": "closed", "to": "open"})
	assert.Equal(t, 2.0, testutil.ToFloat64(BreakerState.WithLabelValues("completion")))

	m.Emit(ctx, hooks.EventBreakerStateChange, map[string]any{"breaker": "completion", "from": "open", "to": "half-open"})
	assert.Equal(t, 1.0, testutil.ToFloat64(BreakerState.WithLabelValues("completion")))

	m.Emit(ctx, hooks.EventBreakerStateChange, map[string]any{"breaker": "completion", "from": "half-open", "to": "closed"})
	assert.Equal(t, 0.0, testutil.ToFloat64(BreakerState.WithLabelValues("completion")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := registered()
	m.Emit(context.Background(), hooks.EventReplyGenerated, map[string]any{"degraded": false})

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "hubrelay_replies_total")
	assert.Contains(t, string(body), "hubrelay_upstream_duration_seconds")
}

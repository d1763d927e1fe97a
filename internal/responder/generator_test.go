package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soyeahso/hubrelay/internal/config"
	"github.com/soyeahso/hubrelay/internal/hooks"
	"github.com/soyeahso/hubrelay/internal/llm"
	"github.com/soyeahso/hubrelay/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func testAIConfig() config.AIConfig {
	cfg := config.Defaults().AI
	cfg.Model = "test-model"
	cfg.TimeoutSeconds = 5
	return cfg
}

func TestGenerate_Success(t *testing.T) {
	var gotReq llm.CompletionRequest
	client := &llm.MockClient{
		ProviderName: "mock",
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			gotReq = req
			return &llm.CompletionResponse{Content: "  Our hours are 9-5.\n"}, nil
		},
	}

	g := New(testAIConfig(), client, nil, silentLog())
	reply := g.Generate(context.Background(), "When are you open?")

	assert.False(t, reply.Degraded)
	assert.NoError(t, reply.Err)
	assert.Equal(t, "Our hours are 9-5.", reply.Text)

	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, config.DefaultPersona, gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "When are you open?"}, gotReq.Messages[0])
}

func TestGenerate_NeverFailsOutward(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantDiag string
	}{
		{"provider status", &llm.ProviderError{Provider: "openai", Code: 429, Message: "quota"}, "provider returned status 429"},
		{"empty", llm.ErrEmptyCompletion, "empty completion"},
		{"deadline", context.DeadlineExceeded, "upstream timeout"},
		{"network", errors.New("dial tcp: connection refused"), "dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &llm.MockClient{
				ProviderName: "mock",
				CompleteFunc: func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
					return nil, tt.err
				},
			}
			g := New(testAIConfig(), client, nil, silentLog())
			reply := g.Generate(context.Background(), "hello")

			assert.True(t, reply.Degraded)
			assert.ErrorIs(t, reply.Err, tt.err)
			assert.Equal(t, FallbackPrefix+tt.wantDiag, reply.Text)
		})
	}
}

func TestGenerate_BlankCompletionIsDegraded(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: "   "}, nil
		},
	}
	g := New(testAIConfig(), client, nil, silentLog())
	reply := g.Generate(context.Background(), "hello")

	assert.True(t, reply.Degraded)
	assert.Equal(t, FallbackPrefix+"empty completion", reply.Text)
}

func TestGenerate_Timeout(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	g := New(testAIConfig(), client, nil, silentLog())
	g.timeout = 20 * time.Millisecond

	start := time.Now()
	reply := g.Generate(context.Background(), "hello")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, reply.Degraded)
	assert.Equal(t, FallbackPrefix+"upstream timeout", reply.Text)
}

func TestGenerate_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
			calls.Add(1)
			return nil, &llm.ProviderError{Provider: "mock", Code: 503, Message: "down"}
		},
	}

	cfg := testAIConfig()
	cfg.Breaker.Failures = 2
	cfg.Breaker.OpenSeconds = 60

	hk := hooks.NewManager(silentLog())
	var transitions []string
	hk.On(hooks.EventBreakerStateChange, "test", func(_ context.Context, p hooks.Payload) error {
		transitions = append(transitions, p.String("from")+"->"+p.String("to"))
		return nil
	})

	g := New(cfg, client, hk, silentLog())

	for range 2 {
		reply := g.Generate(context.Background(), "hello")
		assert.Equal(t, FallbackPrefix+"provider returned status 503", reply.Text)
	}
	assert.Equal(t, "open", g.BreakerState())
	assert.Equal(t, []string{"closed->open"}, transitions)

	// Open breaker short-circuits without reaching the provider
	reply := g.Generate(context.Background(), "hello")
	assert.True(t, reply.Degraded)
	assert.Equal(t, FallbackPrefix+"service temporarily unavailable", reply.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerate_BreakerDisabled(t *testing.T) {
	var calls atomic.Int32
	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
			calls.Add(1)
			return nil, errors.New("boom")
		},
	}

	cfg := testAIConfig()
	cfg.Breaker.Disabled = true
	g := New(cfg, client, nil, silentLog())

	for range 10 {
		g.Generate(context.Background(), "hello")
	}
	assert.Equal(t, int32(10), calls.Load())
	assert.Equal(t, "disabled", g.BreakerState())
}

func TestGenerate_CancelledContextSkipsProvider(t *testing.T) {
	var calls atomic.Int32
	client := &llm.MockClient{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
			calls.Add(1)
			return &llm.CompletionResponse{Content: "hi"}, nil
		},
	}
	g := New(testAIConfig(), client, nil, silentLog())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reply := g.Generate(ctx, "hello")

	assert.True(t, reply.Degraded)
	assert.ErrorIs(t, reply.Err, context.Canceled)
	assert.Equal(t, FallbackPrefix+"request cancelled", reply.Text)
	assert.Zero(t, calls.Load())
}

func TestDiagnose(t *testing.T) {
	assert.Equal(t, "service temporarily unavailable", Diagnose(gobreaker.ErrOpenState))
	assert.Equal(t, "service temporarily unavailable", Diagnose(gobreaker.ErrTooManyRequests))
	assert.Equal(t, "upstream timeout", Diagnose(errors.Join(errors.New("wrapped"), context.DeadlineExceeded)))
	assert.Equal(t, "request cancelled", Diagnose(context.Canceled))
	assert.Equal(t, "request cancelled", Diagnose(fmt.Errorf("openai: %w", context.Canceled)))
	assert.Equal(t, "unknown error", Diagnose(errors.New("  ")))

	long := Diagnose(errors.New(strings.Repeat("é", 200)))
	assert.Equal(t, maxDiagnosticRunes, len([]rune(long)))
}

func TestBuildSystemPrompt(t *testing.T) {
	assert.Equal(t, config.DefaultPersona, BuildSystemPrompt(PromptConfig{}))
	assert.Equal(t, "You are Volt.", BuildSystemPrompt(PromptConfig{Persona: " You are Volt. "}))

	got := BuildSystemPrompt(PromptConfig{Persona: "You are Volt.", ExtraPrompt: "Never quote prices."})
	assert.Equal(t, "You are Volt.\n\nNever quote prices.", got)
}

func TestGenerator_SystemPromptFromConfig(t *testing.T) {
	cfg := testAIConfig()
	cfg.Persona = "Custom persona."
	cfg.ExtraPrompt = "Extra rule."
	g := New(cfg, &llm.MockClient{}, nil, silentLog())
	assert.Equal(t, "Custom persona.\n\nExtra rule.", g.SystemPrompt())
}

// Package responder turns an inbound visitor message into reply text using a
// completion provider. Generation never fails outward: provider failures are
// folded into a degraded fallback Reply.
package responder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/soyeahso/hubrelay/internal/config"
	"github.com/soyeahso/hubrelay/internal/hooks"
	"github.com/soyeahso/hubrelay/internal/llm"
	"github.com/soyeahso/hubrelay/internal/logging"
)

// FallbackPrefix starts every degraded reply.
const FallbackPrefix = "Sorry, I encountered an error: "

// maxDiagnosticRunes bounds the diagnostic fragment taken from raw error text.
const maxDiagnosticRunes = 80

// Reply is the result of a generation attempt. Text is never empty.
type Reply struct {
	Text     string
	Degraded bool
	// Err is the underlying failure for degraded replies. It is for logging
	// only and must not be shown to visitors.
	Err error
}

// Generator produces replies through an llm.Client.
type Generator struct {
	client      llm.Client
	system      string
	model       string
	maxTokens   int
	temperature *float64
	timeout     time.Duration
	breaker     *breaker
	log         *logging.Logger
}

// New creates a Generator from the AI config. hk may be nil.
func New(cfg config.AIConfig, client llm.Client, hk *hooks.Manager, log *logging.Logger) *Generator {
	log = log.Sub("responder")
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		client: client,
		system: BuildSystemPrompt(PromptConfig{
			Persona:     cfg.Persona,
			ExtraPrompt: cfg.ExtraPrompt,
		}),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
		breaker:     newBreaker(cfg.Breaker, hk, log),
		log:         log,
	}
}

// SystemPrompt returns the instruction sent with every completion.
func (g *Generator) SystemPrompt() string {
	return g.system
}

// BreakerState reports the circuit breaker state for status output.
func (g *Generator) BreakerState() string {
	return g.breaker.state()
}

// Generate asks the provider for a reply to message. It always returns a
// usable Reply; on failure the reply is degraded and carries a short
// diagnostic.
func (g *Generator) Generate(ctx context.Context, message string) Reply {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := llm.CompletionRequest{
		Model:       g.model,
		System:      g.system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	result, err := g.breaker.execute(ctx, func() (any, error) {
		resp, err := g.client.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(resp.Content)
		if text == "" {
			return nil, llm.ErrEmptyCompletion
		}
		return text, nil
	})
	if err != nil {
		diag := Diagnose(err)
		g.log.Warn().
			Err(err).
			Str("provider", g.client.Name()).
			Str("diagnostic", diag).
			Msg("completion failed, using fallback reply")
		return Reply{Text: FallbackPrefix + diag, Degraded: true, Err: err}
	}

	return Reply{Text: result.(string)}
}

// Diagnose maps a completion failure to the short fragment placed in the
// fallback reply.
func Diagnose(err error) string {
	var perr *llm.ProviderError
	var nerr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "upstream timeout"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.As(err, &nerr) && nerr.Timeout():
		return "upstream timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "service temporarily unavailable"
	case errors.Is(err, llm.ErrEmptyCompletion):
		return "empty completion"
	case errors.As(err, &perr) && perr.Code > 0:
		return fmt.Sprintf("provider returned status %d", perr.Code)
	}

	msg := []rune(strings.TrimSpace(err.Error()))
	if len(msg) == 0 {
		return "unknown error"
	}
	if len(msg) > maxDiagnosticRunes {
		msg = msg[:maxDiagnosticRunes]
	}
	return string(msg)
}

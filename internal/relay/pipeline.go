// Package relay orchestrates one inbound webhook or direct chat request:
// authenticate, filter, extract, generate a reply and deliver it.
package relay

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/soyeahso/hubrelay/internal/domain"
	"github.com/soyeahso/hubrelay/internal/hooks"
	"github.com/soyeahso/hubrelay/internal/logging"
	"github.com/soyeahso/hubrelay/internal/responder"
	"github.com/soyeahso/hubrelay/internal/signature"
)

// ErrNoMessage is returned by Chat when the message is missing or blank.
var ErrNoMessage = errors.New("no message provided")

// ErrBadSignature marks a webhook whose signature did not verify.
var ErrBadSignature = errors.New("invalid signature")

// Generator produces a reply for a visitor message. Implementations never
// fail; degraded replies carry fallback text.
type Generator interface {
	Generate(ctx context.Context, message string) responder.Reply
}

// Dispatcher delivers a reply into a conversation and reports success.
type Dispatcher interface {
	Deliver(ctx context.Context, conversationID, message, visitorID string) bool
}

// Result is the terminal state of a webhook request.
type Result string

const (
	ResultDone              Result = "success"
	ResultIgnored           Result = "ignored"
	ResultRejectedSignature Result = "rejected_signature"
	ResultRejectedPayload   Result = "rejected_payload"
)

// Outcome describes how a webhook request ended.
type Outcome struct {
	Result         Result
	EventType      string
	ConversationID string
	Reply          responder.Reply
	// Delivered is only meaningful for ResultDone. A failed delivery does not
	// change the result.
	Delivered bool
	// Err explains a rejection.
	Err error
}

// Pipeline wires the verifier, generator and dispatcher together. It holds
// no per-request state and is safe for concurrent use.
type Pipeline struct {
	verifier   *signature.Verifier
	generator  Generator
	dispatcher Dispatcher
	hooks      *hooks.Manager
	log        *logging.Logger
}

// New creates a Pipeline. hk may be nil.
func New(verifier *signature.Verifier, gen Generator, disp Dispatcher, hk *hooks.Manager, log *logging.Logger) *Pipeline {
	return &Pipeline{
		verifier:   verifier,
		generator:  gen,
		dispatcher: disp,
		hooks:      hk,
		log:        log.Sub("relay"),
	}
}

// HandleWebhook runs a raw webhook body through the relay. raw must be the
// exact bytes received; sig is the X-HubSpot-Signature header value.
func (p *Pipeline) HandleWebhook(ctx context.Context, raw []byte, sig string) Outcome {
	log := p.log.For(ctx)
	p.emit(ctx, hooks.EventWebhookReceived, map[string]any{"bytes": len(raw)})

	if !p.verifier.Verify(raw, sig) {
		log.Warn().Bool("signaturePresent", sig != "").Msg("webhook signature rejected")
		return p.reject(ctx, Outcome{Result: ResultRejectedSignature, Err: ErrBadSignature})
	}

	env, err := domain.ParseEnvelope(raw)
	if err != nil {
		log.Warn().Err(err).Msg("webhook body is not a valid event")
		return p.reject(ctx, Outcome{Result: ResultRejectedPayload, Err: domain.ErrInvalidPayload})
	}

	if !domain.Accepts(env) {
		log.Debug().Str("eventType", env.EventType).Msg("ignoring webhook event")
		p.emit(ctx, hooks.EventWebhookIgnored, map[string]any{"eventType": env.EventType})
		return Outcome{Result: ResultIgnored, EventType: env.EventType}
	}

	conv, err := domain.ExtractContext(env)
	if err != nil {
		log.Warn().Err(err).Str("eventType", env.EventType).Msg("webhook payload missing fields")
		return p.reject(ctx, Outcome{Result: ResultRejectedPayload, EventType: env.EventType, Err: err})
	}

	log = log.With("conversationId", conv.ConversationID)
	log.Info().Msg("conversation activity received")

	reply := p.generate(ctx, "webhook", conv.Message)

	start := time.Now()
	delivered := p.dispatcher.Deliver(ctx, conv.ConversationID, reply.Text, conv.VisitorID)
	p.emit(ctx, hooks.EventReplyDispatched, map[string]any{
		"conversationId": conv.ConversationID,
		"delivered":      delivered,
		"duration":       time.Since(start),
	})

	log.Info().
		Bool("degraded", reply.Degraded).
		Bool("delivered", delivered).
		Msg("webhook handled")

	return Outcome{
		Result:         ResultDone,
		EventType:      env.EventType,
		ConversationID: conv.ConversationID,
		Reply:          reply,
		Delivered:      delivered,
	}
}

// Chat generates a reply for message without touching the conversation
// platform.
func (p *Pipeline) Chat(ctx context.Context, message string) (responder.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return responder.Reply{}, ErrNoMessage
	}
	return p.generate(ctx, "chat", message), nil
}

func (p *Pipeline) generate(ctx context.Context, source, message string) responder.Reply {
	start := time.Now()
	reply := p.generator.Generate(ctx, message)
	p.emit(ctx, hooks.EventReplyGenerated, map[string]any{
		"source":   source,
		"degraded": reply.Degraded,
		"duration": time.Since(start),
	})
	return reply
}

func (p *Pipeline) reject(ctx context.Context, out Outcome) Outcome {
	p.emit(ctx, hooks.EventWebhookRejected, map[string]any{
		"outcome": string(out.Result),
		"reason":  out.Err.Error(),
	})
	return out
}

func (p *Pipeline) emit(ctx context.Context, event string, data map[string]any) {
	p.hooks.Emit(ctx, event, data)
}

package cli

import (
	"github.com/soyeahso/hubrelay/internal/config"
	"github.com/soyeahso/hubrelay/internal/hooks"
	"github.com/soyeahso/hubrelay/internal/hubspot"
	"github.com/soyeahso/hubrelay/internal/llm"
	"github.com/soyeahso/hubrelay/internal/logging"
	"github.com/soyeahso/hubrelay/internal/metrics"
	"github.com/soyeahso/hubrelay/internal/relay"
	"github.com/soyeahso/hubrelay/internal/responder"
	"github.com/soyeahso/hubrelay/internal/signature"
)

// stack is the fully wired relay for one process.
type stack struct {
	hooks     *hooks.Manager
	generator *responder.Generator
	pipeline  *relay.Pipeline
}

// buildStack constructs the relay from config. Metrics collectors are
// subscribed when the metrics endpoint is enabled.
func buildStack(cfg config.Config, log *logging.Logger) (*stack, error) {
	client, err := llm.NewClient(cfg.AI)
	if err != nil {
		return nil, err
	}

	hk := hooks.NewManager(log)
	if cfg.Metrics.Enabled {
		metrics.Register(hk)
	}

	gen := responder.New(cfg.AI, client, hk, log)
	pipeline := relay.New(
		signature.NewVerifier(cfg.HubSpot.WebhookSecret),
		gen,
		hubspot.NewDispatcher(cfg.HubSpot, log),
		hk,
		log,
	)

	return &stack{hooks: hk, generator: gen, pipeline: pipeline}, nil
}

// warnMissingCredentials logs startup warnings for credentials whose absence
// degrades the relay without stopping it.
func warnMissingCredentials(cfg config.Config, log *logging.Logger) {
	if cfg.HubSpot.WebhookSecret == "" {
		log.Warn().Msg("HUBSPOT_WEBHOOK_TOKEN is not set: webhook signatures are NOT verified")
	}
	if cfg.HubSpot.AccessToken == "" {
		log.Warn().Msg("HUBSPOT_ACCESS_TOKEN is not set: reply delivery will fail")
	}
	if cfg.AI.APIKey == "" {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("AI API key is not set: replies will be fallbacks")
	}
}

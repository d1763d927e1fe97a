package llm

import (
	"fmt"
	"time"

	"github.com/soyeahso/hubrelay/internal/config"
)

// NewClient builds the completion client selected by cfg.Provider.
func NewClient(cfg config.AIConfig) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, timeout), nil
	case "claude":
		return NewClaudeAPIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

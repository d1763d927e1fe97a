package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort            = 5000
	DefaultMaxBodyBytes    = 1 << 20
	DefaultHubSpotBaseURL  = "https://api.hubapi.com"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultClaudeBaseURL   = "https://api.anthropic.com"
	DefaultOpenAIModel     = "gpt-3.5-turbo"
	DefaultClaudeModel     = "claude-3-5-haiku-latest"
	DefaultPersona         = "You are a helpful customer support bot for Volt1.1. Keep responses concise and friendly."
	DefaultMetricsPath     = "/metrics"
	defaultAITimeout       = 30
	defaultHubSpotTimeout  = 10
	defaultBreakerFailures = 5
	defaultBreakerOpen     = 30
)

// Defaults returns a Config with sensible defaults applied. The AI model and
// base URL are left empty here because they depend on the provider chosen by
// the config file; applyDefaults fills them in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         DefaultPort,
			Bind:         "loopback",
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		HubSpot: HubSpotConfig{
			BaseURL:        DefaultHubSpotBaseURL,
			TimeoutSeconds: defaultHubSpotTimeout,
		},
		AI: AIConfig{
			Provider:       "openai",
			Persona:        DefaultPersona,
			TimeoutSeconds: defaultAITimeout,
			Breaker: BreakerConfig{
				Failures:    defaultBreakerFailures,
				OpenSeconds: defaultBreakerOpen,
			},
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

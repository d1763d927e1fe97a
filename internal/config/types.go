package config

// Config is the root configuration for hubrelay.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	HubSpot HubSpotConfig `yaml:"hubspot,omitempty"`
	AI      AIConfig      `yaml:"ai,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// ServerConfig controls the HTTP server that receives webhooks.
type ServerConfig struct {
	Port           int       `yaml:"port,omitempty"`
	Bind           string    `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string    `yaml:"customBindHost,omitempty"`
	MaxBodyBytes   int64     `yaml:"maxBodyBytes,omitempty"`
	TLS            ServerTLS `yaml:"tls,omitempty"`
	AllowedOrigins []string  `yaml:"allowedOrigins,omitempty"`
}

// ServerTLS configures TLS for the server.
type ServerTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// HubSpotConfig holds the conversation platform account. Only one portal is
// served per process.
type HubSpotConfig struct {
	AccessToken    string `yaml:"accessToken,omitempty" secret:"true"`
	WebhookSecret  string `yaml:"webhookSecret,omitempty" secret:"true"` // empty disables signature checks
	PortalID       string `yaml:"portalId,omitempty"`
	ChatflowID     string `yaml:"chatflowId,omitempty"`
	BaseURL        string `yaml:"baseUrl,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// AIConfig selects and configures the completion provider.
type AIConfig struct {
	Provider       string        `yaml:"provider,omitempty"` // "openai" | "claude"
	APIKey         string        `yaml:"apiKey,omitempty" secret:"true"`
	Model          string        `yaml:"model,omitempty"`
	BaseURL        string        `yaml:"baseUrl,omitempty"`
	Persona        string        `yaml:"persona,omitempty"`
	ExtraPrompt    string        `yaml:"extraPrompt,omitempty"`
	MaxTokens      int           `yaml:"maxTokens,omitempty"`
	Temperature    *float64      `yaml:"temperature,omitempty"`
	TimeoutSeconds int           `yaml:"timeoutSeconds,omitempty"`
	Breaker        BreakerConfig `yaml:"breaker,omitempty"`
}

// BreakerConfig tunes the circuit breaker in front of the completion provider.
type BreakerConfig struct {
	Disabled    bool   `yaml:"disabled,omitempty"`
	Failures    uint32 `yaml:"failures,omitempty"`    // consecutive failures before tripping
	OpenSeconds int    `yaml:"openSeconds,omitempty"` // how long the breaker stays open
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

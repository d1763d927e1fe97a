package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so tokens and keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.HubSpot.AccessToken = expandEnvVars(cfg.HubSpot.AccessToken)
	cfg.HubSpot.WebhookSecret = expandEnvVars(cfg.HubSpot.WebhookSecret)
	cfg.AI.APIKey = expandEnvVars(cfg.AI.APIKey)
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Variables already set are never overridden and missing files
// are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return &ConfigError{Message: "failed to load " + f + ": " + err.Error()}
		}
	}
	return nil
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			applyDefaults(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults. Model and
// base URL defaults depend on the selected provider.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.HubSpot.BaseURL == "" {
		cfg.HubSpot.BaseURL = DefaultHubSpotBaseURL
	}
	if cfg.HubSpot.TimeoutSeconds <= 0 {
		cfg.HubSpot.TimeoutSeconds = defaultHubSpotTimeout
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	switch cfg.AI.Provider {
	case "claude":
		if cfg.AI.Model == "" {
			cfg.AI.Model = DefaultClaudeModel
		}
		if cfg.AI.BaseURL == "" {
			cfg.AI.BaseURL = DefaultClaudeBaseURL
		}
	default:
		if cfg.AI.Model == "" {
			cfg.AI.Model = DefaultOpenAIModel
		}
		if cfg.AI.BaseURL == "" {
			cfg.AI.BaseURL = DefaultOpenAIBaseURL
		}
	}
	if cfg.AI.Persona == "" {
		cfg.AI.Persona = DefaultPersona
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = defaultAITimeout
	}
	if cfg.AI.Breaker.Failures == 0 {
		cfg.AI.Breaker.Failures = defaultBreakerFailures
	}
	if cfg.AI.Breaker.OpenSeconds <= 0 {
		cfg.AI.Breaker.OpenSeconds = defaultBreakerOpen
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// applyEnvOverrides reads credential and HUBRELAY_* environment variables and
// overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HUBRELAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HUBRELAY_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("HUBRELAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv("HUBSPOT_ACCESS_TOKEN"); v != "" {
		cfg.HubSpot.AccessToken = v
	}
	if v := os.Getenv("HUBSPOT_WEBHOOK_TOKEN"); v != "" {
		cfg.HubSpot.WebhookSecret = v
	}
	if v := os.Getenv("HUBSPOT_PORTAL_ID"); v != "" {
		cfg.HubSpot.PortalID = v
	}
	if v := os.Getenv("HUBSPOT_CHATFLOW_ID"); v != "" {
		cfg.HubSpot.ChatflowID = v
	}

	if v := os.Getenv("HUBRELAY_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = strings.ToLower(v)
	}
	switch cfg.AI.Provider {
	case "claude":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
		if v := os.Getenv("OPENAI_MODEL"); v != "" {
			cfg.AI.Model = v
		}
	}
}

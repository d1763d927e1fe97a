package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/soyeahso/hubrelay/internal/logging"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
//
// Missing credentials are not issues: an empty webhook secret is the
// documented permissive mode, and a missing API key or access token only
// degrades replies or deliveries at request time.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Server validation
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}

	if cfg.Server.MaxBodyBytes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "server.maxBodyBytes",
			Message: "must not be negative",
		})
	}

	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertPath == "" || cfg.Server.TLS.KeyPath == "") {
		issues = append(issues, ValidationIssue{
			Path:    "server.tls",
			Message: "certPath and keyPath are required when TLS is enabled",
		})
	}

	// HubSpot validation
	if cfg.HubSpot.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "hubspot.timeoutSeconds",
			Message: "must not be negative",
		})
	}

	// AI validation
	validProviders := []string{"openai", "claude"}
	if cfg.AI.Provider != "" && !slices.Contains(validProviders, cfg.AI.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "ai.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.AI.Provider),
		})
	}

	if cfg.AI.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "ai.timeoutSeconds",
			Message: "must not be negative",
		})
	}

	if cfg.AI.Temperature != nil && (*cfg.AI.Temperature < 0 || *cfg.AI.Temperature > 2) {
		issues = append(issues, ValidationIssue{
			Path:    "ai.temperature",
			Message: fmt.Sprintf("must be between 0 and 2, got %g", *cfg.AI.Temperature),
		})
	}

	// Logging validation
	if cfg.Logging.Level != "" && !logging.ValidLevel(cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of trace, debug, info, warn, error, fatal, silent, got %q", cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{logging.StylePretty, logging.StyleJSON}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	if cfg.Metrics.Enabled && (cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/') {
		issues = append(issues, ValidationIssue{
			Path:    "metrics.path",
			Message: fmt.Sprintf("must start with '/', got %q", cfg.Metrics.Path),
		})
	}

	return issues
}

// IssuesUnder returns the issues reported for key or any key nested below it.
func IssuesUnder(issues []ValidationIssue, key string) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range issues {
		if issue.Path == key || strings.HasPrefix(issue.Path, key+".") {
			out = append(out, issue)
		}
	}
	return out
}

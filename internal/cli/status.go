package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/soyeahso/hubrelay/internal/config"
	"github.com/soyeahso/hubrelay/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show hubrelay status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("hubrelay %s (commit %s)\n\n", version.Version, version.ShortCommit())

			// Show paths
			fmt.Printf("Home:     %s\n", paths.Home)
			fmt.Printf("Config:   %s\n", paths.Config)
			fmt.Printf("Env:      %s\n", paths.Env)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:   error loading: %v\n", err)
				return nil
			}

			tls := "off"
			if cfg.Server.TLS.Enabled {
				tls = "on"
			}
			fmt.Printf("Server:   port=%d bind=%s tls=%s\n", cfg.Server.Port, cfg.Server.Bind, tls)
			fmt.Printf("AI:       provider=%s model=%s timeout=%ds\n", cfg.AI.Provider, cfg.AI.Model, cfg.AI.TimeoutSeconds)
			fmt.Printf("HubSpot:  %s\n", hubspotSummary(cfg.HubSpot))
			fmt.Printf("Secrets:  accessToken=%s apiKey=%s webhookSecret=%s\n",
				setOrMissing(cfg.HubSpot.AccessToken),
				setOrMissing(cfg.AI.APIKey),
				setOrMissing(cfg.HubSpot.WebhookSecret))
			if cfg.Metrics.Enabled {
				fmt.Printf("Metrics:  %s\n", cfg.Metrics.Path)
			} else {
				fmt.Println("Metrics:  disabled")
			}

			if check {
				fmt.Printf("Health:   %s\n", checkHealth(cfg))
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "query /health on the configured local server")

	return cmd
}

func checkHealth(cfg config.Config) string {
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://127.0.0.1:%d/health", scheme, cfg.Server.Port)

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "unreachable (" + err.Error() + ")"
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status == "" {
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return body.Status
}

func hubspotSummary(hs config.HubSpotConfig) string {
	return fmt.Sprintf("api=%s portal=%s chatflow=%s", hs.BaseURL, orNone(hs.PortalID), orNone(hs.ChatflowID))
}

func setOrMissing(s string) string {
	if s == "" {
		return "missing"
	}
	return "set"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/soyeahso/hubrelay/internal/domain"
	"github.com/soyeahso/hubrelay/internal/signature"
	"github.com/soyeahso/hubrelay/internal/version"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		webhookURL     string
		conversationID string
		visitorID      string
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Generate a reply locally, or send a signed test webhook",
		Long: "Without --webhook, generates a reply in-process and prints it; nothing is posted to HubSpot.\n" +
			"With --webhook, builds a conversation activity event, signs it with the configured secret and POSTs it to the given URL.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if webhookURL != "" {
				raw, err := buildWebhookPayload(conversationID, visitorID, message)
				if err != nil {
					return err
				}
				return sendWebhook(ctx, webhookURL, raw, cfg.HubSpot.WebhookSecret)
			}

			st, err := buildStack(cfg, log)
			if err != nil {
				return err
			}

			reply, err := st.pipeline.Chat(ctx, message)
			if err != nil {
				return err
			}
			if reply.Degraded {
				log.Warn().Err(reply.Err).Msg("reply is a fallback")
			}
			fmt.Println(reply.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&webhookURL, "webhook", "", "POST a signed test event to this webhook URL instead of replying locally")
	cmd.Flags().StringVar(&conversationID, "conversation", "test-thread", "conversation id for --webhook")
	cmd.Flags().StringVar(&visitorID, "visitor", "", "visitor id for --webhook")

	return cmd
}

// buildWebhookPayload returns a conversation activity event as HubSpot would
// send it.
func buildWebhookPayload(conversationID, visitorID, message string) ([]byte, error) {
	object := map[string]any{
		"conversationId": conversationID,
		"body":           message,
	}
	if visitorID != "" {
		object["visitorId"] = visitorID
	}
	return json.Marshal(map[string]any{
		"eventType": domain.EventConversationActivity,
		"object":    object,
	})
}

func sendWebhook(ctx context.Context, url string, raw []byte, secret string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if secret != "" {
		req.Header.Set(signature.Header, signature.Sign(raw, secret))
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%d %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

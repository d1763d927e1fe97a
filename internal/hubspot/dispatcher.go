// Package hubspot delivers bot replies to HubSpot Conversations threads.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soyeahso/hubrelay/internal/config"
	"github.com/soyeahso/hubrelay/internal/domain"
	"github.com/soyeahso/hubrelay/internal/logging"
	"github.com/soyeahso/hubrelay/internal/version"
)

// maxErrorBody caps how much of a failed response body is retained.
const maxErrorBody = 512

// DeliveryError is returned when HubSpot answers a reply with a non-2xx status.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("hubspot: delivery failed with status %d: %s", e.Status, e.Body)
}

// Dispatcher posts replies to the conversations API.
type Dispatcher struct {
	baseURL string
	token   string
	client  *http.Client
	log     *logging.Logger
}

// NewDispatcher creates a Dispatcher from the HubSpot config.
func NewDispatcher(cfg config.HubSpotConfig, log *logging.Logger) *Dispatcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		client:  &http.Client{Timeout: timeout},
		log:     log.Sub("hubspot"),
	}
}

// MessagesURL returns the endpoint that receives messages for a thread.
func (d *Dispatcher) MessagesURL(conversationID string) string {
	return d.baseURL + "/conversations/v3/conversations/threads/" + url.PathEscape(conversationID) + "/messages"
}

// Deliver sends message as a bot reply into the conversation and reports
// whether HubSpot accepted it. Failures are logged, never returned.
func (d *Dispatcher) Deliver(ctx context.Context, conversationID, message, visitorID string) bool {
	err := d.Send(ctx, conversationID, domain.NewReply(message, visitorID))
	if err != nil {
		d.log.Error().
			Err(err).
			Str("conversationId", conversationID).
			Msg("reply delivery failed")
		return false
	}
	d.log.Debug().Str("conversationId", conversationID).Msg("reply delivered")
	return true
}

// Send posts reply to the conversation thread. Non-2xx responses yield a
// *DeliveryError. There are no retries.
func (d *Dispatcher) Send(ctx context.Context, conversationID string, reply domain.ReplyMessage) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.MessagesURL(conversationID), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/soyeahso/hubrelay/internal/relay"
	"github.com/soyeahso/hubrelay/internal/signature"
)

// Response bodies. Their wording is part of the public contract with
// HubSpot and existing clients.
const (
	msgInvalidPayload   = "Invalid payload structure"
	msgInvalidSignature = "Invalid signature"
	msgNoMessage        = "No message provided"
)

// StatusResponse is returned by /webhook and /health.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readBody reads the raw request body, bounded by server.maxBodyBytes.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
}

// handleWebhook accepts HubSpot webhook notifications. The body is passed to
// the relay exactly as received so the signature can be checked against it.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.log.For(r.Context()).Warn().Int64("limit", tooLarge.Limit).Msg("webhook body too large")
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidPayload})
		return
	}

	out := s.relay.HandleWebhook(r.Context(), raw, r.Header.Get(signature.Header))

	switch out.Result {
	case relay.ResultRejectedSignature:
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: msgInvalidSignature})
	case relay.ResultRejectedPayload:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidPayload})
	case relay.ResultIgnored:
		writeJSON(w, http.StatusOK, StatusResponse{Status: "ignored"})
	default:
		writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
	}
}

// handleChat generates a reply synchronously without signature checks or
// delivery.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgNoMessage})
		return
	}

	var req ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgNoMessage})
		return
	}

	reply, err := s.relay.Chat(r.Context(), req.Message)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgNoMessage})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply.Text})
}

// handleHealth reports liveness only. It never calls upstream services.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "healthy"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

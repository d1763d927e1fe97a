package gateway

import (
	"net/http"

	"github.com/soyeahso/hubrelay/internal/metrics"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.cfg.Metrics.Enabled {
		mux.Handle("GET "+s.cfg.Metrics.Path, metrics.Handler())
	}

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

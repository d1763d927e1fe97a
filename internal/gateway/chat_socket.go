package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/hubrelay/internal/logging"
)

// Chat socket frame types.
const (
	FrameTypePrompt   = "prompt"
	FrameTypeAck      = "ack"
	FrameTypeResponse = "response"
	FrameTypeError    = "error"
)

const (
	msgInvalidFrame    = "Invalid JSON payload"
	msgUnsupportedType = "Unsupported message type"
	msgMessageRequired = "Message content is required"

	socketWriteTimeout = 10 * time.Second
)

// promptFrame is what a client sends on /ws/chat. Fields are kept raw so a
// mistyped field is reported as such instead of failing the whole frame.
type promptFrame struct {
	Type      json.RawMessage `json:"type"`
	SessionID json.RawMessage `json:"sessionId"`
	Message   json.RawMessage `json:"message"`
	Nonce     json.RawMessage `json:"nonce"`
}

// ChatFrame is what the server sends on /ws/chat. SessionID and Nonce are
// echoed from the prompt unchanged; no history is kept per session.
type ChatFrame struct {
	Type      string          `json:"type"`
	SessionID json.RawMessage `json:"sessionId,omitempty"`
	Reply     string          `json:"reply,omitempty"`
	Degraded  bool            `json:"degraded,omitempty"`
	Message   string          `json:"message,omitempty"`
	Nonce     json.RawMessage `json:"nonce,omitempty"`
}

// checkWebSocketOrigin allows non-browser clients and the configured origins.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return isOriginAllowed(origin, allowed)
	}
}

// handleChatSocket serves the direct chat over a websocket: each prompt frame
// is acknowledged, then answered with one response frame.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	log := s.log.For(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.Server.MaxBodyBytes)
	conn.SetReadDeadline(time.Time{})

	if !s.sockets.add(conn) {
		closeSocket(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.sockets.remove(conn)

	log.Debug().Str("remote", r.RemoteAddr).Msg("chat socket opened")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.sockets.isClosing() {
				closeSocket(conn, websocket.CloseGoingAway, "server shutting down")
			} else if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("chat socket read failed")
			}
			log.Debug().Msg("chat socket closed")
			return
		}

		send := func(f ChatFrame) error {
			conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
			return conn.WriteJSON(f)
		}
		if err := s.answerPrompt(r.Context(), data, send); err != nil {
			log.Warn().Err(err).Msg("chat socket write failed")
			return
		}
	}
}

// answerPrompt handles one inbound frame. A valid prompt is acknowledged
// before the reply is generated. Only send errors are returned.
func (s *Server) answerPrompt(ctx context.Context, data []byte, send func(ChatFrame) error) error {
	var p promptFrame
	if err := json.Unmarshal(data, &p); err != nil {
		return send(ChatFrame{Type: FrameTypeError, Message: msgInvalidFrame})
	}

	if typ, _ := rawString(p.Type); typ != FrameTypePrompt {
		return send(ChatFrame{Type: FrameTypeError, Message: msgUnsupportedType, Nonce: p.Nonce})
	}

	message, ok := rawString(p.Message)
	if !ok || strings.TrimSpace(message) == "" {
		return send(ChatFrame{Type: FrameTypeError, Message: msgMessageRequired, Nonce: p.Nonce})
	}

	if err := send(ChatFrame{Type: FrameTypeAck, SessionID: p.SessionID, Nonce: p.Nonce}); err != nil {
		return err
	}

	reply, err := s.relay.Chat(ctx, message)
	if err != nil {
		return send(ChatFrame{Type: FrameTypeError, Message: msgMessageRequired, Nonce: p.Nonce})
	}
	return send(ChatFrame{
		Type:      FrameTypeResponse,
		SessionID: p.SessionID,
		Reply:     reply.Text,
		Degraded:  reply.Degraded,
		Nonce:     p.Nonce,
	})
}

// rawString decodes raw as a JSON string.
func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func closeSocket(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second))
}

// socketSet tracks open chat sockets. http.Server.Shutdown does not wait for
// hijacked connections, so the server drains them itself.
type socketSet struct {
	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
	log     *logging.Logger
}

func newSocketSet(log *logging.Logger) *socketSet {
	return &socketSet{conns: make(map[*websocket.Conn]struct{}), log: log}
}

// add registers conn, or reports false once draining has begun.
func (s *socketSet) add(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *socketSet) remove(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[conn]; ok {
		delete(s.conns, conn)
		s.wg.Done()
	}
}

func (s *socketSet) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// drain stops every socket from reading further prompts. A prompt already
// being answered still gets its response. It waits for the sockets to close
// or ctx to end.
func (s *socketSet) drain(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for conn := range s.conns {
		conn.SetReadDeadline(time.Now())
	}
	open := len(s.conns)
	s.mu.Unlock()

	if open > 0 {
		s.log.Info().Int("sockets", open).Msg("draining chat sockets")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

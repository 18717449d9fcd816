// Package ws serves the streaming chat websocket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/nexusdesk/internal/adapter/llm"
)

// Chatter produces streamed assistant replies for a session.
type Chatter interface {
	Chat(ctx context.Context, sessionID string, history []llm.Message, onDelta llm.StreamCallback) (string, error)
}

// Options tunes connection timeouts.
type Options struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	ChatTimeout    time.Duration
	MaxMessageSize int64
	// HistoryLimit caps the turns replayed to the model per session.
	HistoryLimit int
}

func (o *Options) setDefaults() {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.ChatTimeout <= 0 {
		o.ChatTimeout = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 * 1024
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 20
	}
}

// Server handles chat websocket connections.
type Server struct {
	opts     Options
	hub      *Hub
	chatter  Chatter
	upgrader websocket.Upgrader

	mu      sync.Mutex
	history map[string][]llm.Message
}

// NewServer creates a websocket server. The hub must be running.
func NewServer(h *Hub, chatter Chatter, opts Options) *Server {
	opts.setDefaults()
	s := &Server{
		opts:    opts,
		hub:     h,
		chatter: chatter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from a separate origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		history: make(map[string][]llm.Message),
	}
	h.OnSessionClosed(s.ForgetSession)
	return s
}

// RegisterRoutes mounts the chat endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/chat/:sessionId/ws", s.HandleWebSocket)
}

// HandleWebSocket upgrades the request and attaches it to the session.
func (s *Server) HandleWebSocket(c echo.Context) error {
	sessionID := c.Param("sessionId")
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to upgrade websocket")
		return nil
	}

	conn := s.hub.NewConnection(ws, sessionID)
	s.hub.Register(conn)
	ws.SetReadLimit(s.opts.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)
	return nil
}

func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	})

	for {
		_, data, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn_id", conn.ID).Msg("websocket read error")
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		s.handleMessage(conn, data)
	}
}

func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.opts.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Str("conn_id", conn.ID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(conn *Connection, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}
	switch msg.Type {
	case TypeMessage:
		if strings.TrimSpace(msg.Content) == "" {
			s.sendError(conn, ErrorCodeInvalidMessage, "content is required")
			return
		}
		s.handleChat(conn, msg.Content)
	default:
		s.sendError(conn, ErrorCodeInvalidMessage, "unknown message type: "+msg.Type)
	}
}

// handleChat streams the reply to every tab of the session. Messages of
// one connection are answered in order.
func (s *Server) handleChat(conn *Connection, content string) {
	sessionID := conn.SessionID
	history := s.appendHistory(sessionID, llm.Message{Role: llm.RoleUser, Content: content})

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ChatTimeout)
	defer cancel()

	reply, err := s.chatter.Chat(ctx, sessionID, history, func(delta string) error {
		return s.hub.BroadcastJSON(sessionID, ServerMessage{
			Type:      TypeDelta,
			Ts:        nowMillis(),
			SessionID: sessionID,
			Content:   delta,
		})
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat failed")
		s.sendError(conn, ErrorCodeChatFailed, "failed to generate a reply")
		return
	}

	s.appendHistory(sessionID, llm.Message{Role: llm.RoleAssistant, Content: reply})
	s.hub.BroadcastJSON(sessionID, ServerMessage{
		Type:      TypeDone,
		Ts:        nowMillis(),
		SessionID: sessionID,
		Content:   reply,
	})
}

// appendHistory records m and returns a copy of the session's recent turns.
func (s *Server) appendHistory(sessionID string, m llm.Message) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.history[sessionID], m)
	if len(h) > s.opts.HistoryLimit {
		h = h[len(h)-s.opts.HistoryLimit:]
	}
	s.history[sessionID] = h
	out := make([]llm.Message, len(h))
	copy(out, h)
	return out
}

// ForgetSession drops the chat history kept for a session.
func (s *Server) ForgetSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, sessionID)
}

// ForgetAllSessions drops every kept chat history.
func (s *Server) ForgetAllSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make(map[string][]llm.Message)
}

// HistoryLen returns the number of turns kept for a session.
func (s *Server) HistoryLen(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history[sessionID])
}

func (s *Server) sendError(conn *Connection, code, message string) {
	err := s.hub.SendJSON(conn, ServerMessage{
		Type:      TypeError,
		Ts:        nowMillis(),
		SessionID: conn.SessionID,
		Code:      code,
		Message:   message,
	})
	if err != nil {
		log.Warn().Err(err).Str("conn_id", conn.ID).Msg("failed to send error frame")
	}
}

package ws

// Frame types from client to server.
const (
	TypeMessage = "message"
)

// Frame types from server to client.
const (
	TypeDelta = "delta"
	TypeDone  = "done"
	TypeError = "error"
)

// Error codes carried by error frames.
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeChatFailed     = "chat_failed"
)

// ClientMessage is a frame sent by the browser.
type ClientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ServerMessage is a frame sent to the browser.
type ServerMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	SessionID string `json:"session_id"`
	Content   string `json:"content,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

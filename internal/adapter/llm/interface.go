// Package llm provides the analysis and chat agent behind ticket
// classification and the chat websocket.
package llm

import (
	"context"
	"errors"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

// ErrInvalidAnalysis is returned when the model's classification cannot
// be parsed into a known priority and sentiment.
var ErrInvalidAnalysis = errors.New("llm: invalid ticket analysis")

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Analysis is the classification of a ticket.
type Analysis struct {
	Priority  domain.TicketPriority  `json:"priority"`
	Sentiment domain.TicketSentiment `json:"sentiment"`
}

// StreamCallback receives each content delta of a streamed reply.
type StreamCallback func(delta string) error

// Client defines the agent operations used by the service layer.
type Client interface {
	// Classify infers priority and sentiment from a ticket's text.
	Classify(ctx context.Context, title, description string) (*Analysis, error)

	// ChatStream generates the assistant's reply to messages, invoking
	// callback for each chunk, and returns the full reply.
	ChatStream(ctx context.Context, messages []Message, callback StreamCallback) (string, error)
}

// Ensure implementations satisfy Client.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*MockClient)(nil)
)

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

// MockClient classifies with keyword heuristics and echoes chat
// messages. It needs no network access.
type MockClient struct{}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var (
	highPriorityWords = []string{"urgent", "asap", "down", "outage", "cannot", "can't", "broken", "error", "crash"}
	lowPriorityWords  = []string{"feature", "suggestion", "idea", "would be nice", "dark mode"}
	negativeWords     = []string{"angry", "terrible", "frustrated", "cannot", "can't", "broken", "worst", "invalid"}
	positiveWords     = []string{"great", "love", "thanks", "thank you", "amazing", "awesome"}
)

// Classify returns a deterministic classification from keywords.
func (m *MockClient) Classify(ctx context.Context, title, description string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := strings.ToLower(title + " " + description)

	a := &Analysis{Priority: domain.TicketPriorityMedium, Sentiment: domain.TicketSentimentNeutral}
	switch {
	case containsAny(text, highPriorityWords):
		a.Priority = domain.TicketPriorityHigh
	case containsAny(text, lowPriorityWords):
		a.Priority = domain.TicketPriorityLow
	}
	switch {
	case containsAny(text, negativeWords):
		a.Sentiment = domain.TicketSentimentNegative
	case containsAny(text, positiveWords):
		a.Sentiment = domain.TicketSentimentPositive
	}
	return a, nil
}

// ChatStream simulates a streamed reply in fixed-size chunks.
func (m *MockClient) ChatStream(ctx context.Context, messages []Message, callback StreamCallback) (string, error) {
	reply := m.generateMockResponse(messages)
	for _, chunk := range splitIntoChunks(reply, 10) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if err := callback(chunk); err != nil {
			return "", err
		}
	}
	return reply, nil
}

func (m *MockClient) generateMockResponse(messages []Message) string {
	var lastUserMessage string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			lastUserMessage = messages[i].Content
			break
		}
	}
	if lastUserMessage == "" {
		return "[MOCK] How can I help you today?"
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// splitIntoChunks splits a string into chunks of at most chunkSize runes,
// so no chunk ends inside a multi-byte character.
func splitIntoChunks(s string, chunkSize int) []string {
	if len(s) == 0 {
		return []string{""}
	}

	var chunks []string
	runes := []rune(s)
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// truncate truncates a string to maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

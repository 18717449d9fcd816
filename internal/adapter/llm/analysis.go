package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

const classifyPrompt = `You triage customer support tickets.
Reply with a JSON object {"priority": "...", "sentiment": "..."} where
priority is one of Low, Medium, High and sentiment is one of Positive,
Neutral, Negative. Reply with the JSON object only.`

const chatPrompt = `You are the NexusDesk support assistant. Answer the
customer's questions about their account, billing and the product
concisely and politely.`

func classifyInput(title, description string) string {
	return fmt.Sprintf("Title: %s\nDescription: %s", title, description)
}

// parseAnalysis decodes the model's reply, tolerating markdown fences
// and case differences.
func parseAnalysis(content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw struct {
		Priority  string `json:"priority"`
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}

	a := &Analysis{}
	a.Priority = canonicalPriority(raw.Priority)
	a.Sentiment = canonicalSentiment(raw.Sentiment)
	if !a.Priority.Valid() || !a.Sentiment.Valid() {
		return nil, fmt.Errorf("%w: priority=%q sentiment=%q", ErrInvalidAnalysis, raw.Priority, raw.Sentiment)
	}
	return a, nil
}

func canonicalPriority(s string) domain.TicketPriority {
	for _, p := range []domain.TicketPriority{
		domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh,
	} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p
		}
	}
	return domain.TicketPriority(s)
}

func canonicalSentiment(s string) domain.TicketSentiment {
	for _, v := range []domain.TicketSentiment{
		domain.TicketSentimentPositive, domain.TicketSentimentNeutral, domain.TicketSentimentNegative,
	} {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v
		}
	}
	return domain.TicketSentiment(s)
}

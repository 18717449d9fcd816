package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

// Persisted key layout. The session/ticket/profile keys are shared with
// the dashboard's original backend and must not change.
const (
	sessionPrefix  = "session:"
	ticketPrefix   = "ticket:"
	profileKey     = "userProfile"
	ticketSeqKey   = "meta:ticketSeq"
	initializedKey = "meta:initialized"
)

func sessionKey(id string) string { return sessionPrefix + id }
func ticketKey(id string) string  { return ticketPrefix + id }

// sessionRecord stores timestamps as Unix milliseconds.
type sessionRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CreatedAt  int64  `json:"createdAt"`
	LastActive int64  `json:"lastActive"`
}

func toSessionRecord(s *domain.SessionInfo) sessionRecord {
	return sessionRecord{
		ID:         s.ID,
		Title:      s.Title,
		CreatedAt:  s.CreatedAt.UnixMilli(),
		LastActive: s.LastActive.UnixMilli(),
	}
}

func (r sessionRecord) toDomain() *domain.SessionInfo {
	return &domain.SessionInfo{
		ID:         r.ID,
		Title:      r.Title,
		CreatedAt:  time.UnixMilli(r.CreatedAt),
		LastActive: time.UnixMilli(r.LastActive),
	}
}

type conversationRecord struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// ticketRecord stores timestamps as RFC 3339 strings.
type ticketRecord struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       string               `json:"status"`
	Priority     string               `json:"priority"`
	Sentiment    string               `json:"sentiment"`
	LastUpdate   string               `json:"lastUpdate"`
	Conversation []conversationRecord `json:"conversation,omitempty"`
}

func toTicketRecord(t *domain.Ticket) ticketRecord {
	r := ticketRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Sentiment:   string(t.Sentiment),
		LastUpdate:  formatTime(t.LastUpdate),
	}
	for _, e := range t.Conversation {
		r.Conversation = append(r.Conversation, conversationRecord{
			Author:    e.Author,
			Text:      e.Text,
			Timestamp: formatTime(e.Timestamp),
		})
	}
	return r
}

func (r ticketRecord) toDomain() (*domain.Ticket, error) {
	lastUpdate, err := parseTime(r.LastUpdate)
	if err != nil {
		return nil, fmt.Errorf("lastUpdate: %w", err)
	}
	t := &domain.Ticket{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Status:       domain.TicketStatus(r.Status),
		Priority:     domain.TicketPriority(r.Priority),
		Sentiment:    domain.TicketSentiment(r.Sentiment),
		LastUpdate:   lastUpdate,
		Conversation: make([]domain.ConversationEntry, 0, len(r.Conversation)),
	}
	for i, e := range r.Conversation {
		ts, err := parseTime(e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("conversation[%d]: %w", i, err)
		}
		t.Conversation = append(t.Conversation, domain.ConversationEntry{
			Author:    e.Author,
			Text:      e.Text,
			Timestamp: ts,
		})
	}
	return t, nil
}

type profileRecord struct {
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	SubscriptionStatus string  `json:"subscriptionStatus"`
	TrialEndsAt        *string `json:"trialEndsAt"`
}

func toProfileRecord(p *domain.UserProfile) profileRecord {
	r := profileRecord{
		Name:               p.Name,
		Email:              p.Email,
		SubscriptionStatus: string(p.SubscriptionStatus),
	}
	if p.TrialEndsAt != nil {
		s := formatTime(*p.TrialEndsAt)
		r.TrialEndsAt = &s
	}
	return r
}

func (r profileRecord) toDomain() (*domain.UserProfile, error) {
	p := &domain.UserProfile{
		Name:               r.Name,
		Email:              r.Email,
		SubscriptionStatus: domain.SubscriptionStatus(r.SubscriptionStatus),
	}
	if r.TrialEndsAt != nil {
		ts, err := parseTime(*r.TrialEndsAt)
		if err != nil {
			return nil, fmt.Errorf("trialEndsAt: %w", err)
		}
		p.TrialEndsAt = &ts
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatTicketID(seq int) string {
	return fmt.Sprintf("TKT-%03d", seq)
}

// ticketNumber extracts the sequence number from a "TKT-NNN" id.
func ticketNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "TKT-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

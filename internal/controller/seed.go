package controller

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the first-boot data set: example tickets and a trial profile.
type Seed struct {
	Tickets []SeedTicket `yaml:"tickets"`
	Profile SeedProfile  `yaml:"profile"`
}

// SeedTicket describes one example ticket with timestamps relative to
// the seeding instant.
type SeedTicket struct {
	ID            string             `yaml:"id"`
	Title         string             `yaml:"title"`
	Description   string             `yaml:"description"`
	Status        string             `yaml:"status"`
	Priority      string             `yaml:"priority"`
	Sentiment     string             `yaml:"sentiment"`
	LastUpdateAgo time.Duration      `yaml:"lastUpdateAgo"`
	Conversation  []SeedConversation `yaml:"conversation"`
}

type SeedConversation struct {
	Author string        `yaml:"author"`
	Text   string        `yaml:"text"`
	Ago    time.Duration `yaml:"ago"`
}

type SeedProfile struct {
	Name               string `yaml:"name"`
	Email              string `yaml:"email"`
	SubscriptionStatus string `yaml:"subscriptionStatus"`
	TrialDays          int    `yaml:"trialDays"`
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for _, t := range s.Tickets {
		if _, ok := ticketNumber(t.ID); !ok {
			return nil, fmt.Errorf("parse seed: ticket id %q is not TKT-NNN", t.ID)
		}
	}
	return &s, nil
}

// DefaultSeed returns the built-in first-boot data set.
func DefaultSeed() *Seed {
	s, err := ParseSeed(defaultSeed)
	if err != nil {
		panic("controller: embedded seed is invalid: " + err.Error())
	}
	return s
}

func (s *Seed) tickets(now time.Time) []*domain.Ticket {
	out := make([]*domain.Ticket, 0, len(s.Tickets))
	for _, st := range s.Tickets {
		t := &domain.Ticket{
			ID:           st.ID,
			Title:        st.Title,
			Description:  st.Description,
			Status:       domain.TicketStatus(st.Status),
			Priority:     domain.TicketPriority(st.Priority),
			Sentiment:    domain.TicketSentiment(st.Sentiment),
			LastUpdate:   now.Add(-st.LastUpdateAgo),
			Conversation: make([]domain.ConversationEntry, 0, len(st.Conversation)),
		}
		for _, c := range st.Conversation {
			t.Conversation = append(t.Conversation, domain.ConversationEntry{
				Author:    c.Author,
				Text:      c.Text,
				Timestamp: now.Add(-c.Ago),
			})
		}
		out = append(out, t)
	}
	return out
}

func (s *Seed) profile(now time.Time) *domain.UserProfile {
	p := &domain.UserProfile{
		Name:               s.Profile.Name,
		Email:              s.Profile.Email,
		SubscriptionStatus: domain.SubscriptionStatus(s.Profile.SubscriptionStatus),
	}
	if p.SubscriptionStatus == domain.SubscriptionTrialing {
		ends := now.AddDate(0, 0, s.Profile.TrialDays)
		p.TrialEndsAt = &ends
	}
	return p
}

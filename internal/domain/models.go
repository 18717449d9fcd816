package domain

import (
	"encoding/json"
	"time"
)

// SessionInfo is the handle of one chat conversation thread.
type SessionInfo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

// MarshalJSON encodes timestamps as Unix milliseconds, the form the
// dashboard's session picker sorts on.
func (s SessionInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		CreatedAt  int64  `json:"createdAt"`
		LastActive int64  `json:"lastActive"`
	}{s.ID, s.Title, s.CreatedAt.UnixMilli(), s.LastActive.UnixMilli()})
}

// ConversationEntry is one message in a ticket's thread.
type ConversationEntry struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is a support request.
type Ticket struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       TicketStatus        `json:"status"`
	Priority     TicketPriority      `json:"priority"`
	Sentiment    TicketSentiment     `json:"sentiment"`
	LastUpdate   time.Time           `json:"lastUpdate"`
	Conversation []ConversationEntry `json:"conversation"`
}

// Clone returns a deep copy of t so callers never share the
// controller's conversation slice.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	out := *t
	out.Conversation = make([]ConversationEntry, len(t.Conversation))
	copy(out.Conversation, t.Conversation)
	return &out
}

// NewTicket carries the already-classified fields of a ticket that has
// not been assigned an id yet.
type NewTicket struct {
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Sentiment   TicketSentiment
	// Author files the ticket and becomes the author of the first
	// conversation entry. Empty means AuthorUser.
	Author string
}

// UserProfile is the tenant's singleton account profile.
type UserProfile struct {
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndsAt        *time.Time         `json:"trialEndsAt"`
}

// Clone returns a copy of p that does not alias TrialEndsAt.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	if p.TrialEndsAt != nil {
		ts := *p.TrialEndsAt
		out.TrialEndsAt = &ts
	}
	return &out
}

// ProfilePatch is a partial update of a UserProfile. Nil fields are left
// untouched. TrialEndsAt distinguishes "not supplied" (Set false) from
// "supplied as null" (Set true, Value nil).
type ProfilePatch struct {
	Name               *string             `json:"name,omitempty"`
	Email              *string             `json:"email,omitempty"`
	SubscriptionStatus *SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	TrialEndsAt        OptionalTime        `json:"trialEndsAt"`
}

// Apply overlays the supplied fields of the patch onto p.
func (pp ProfilePatch) Apply(p *UserProfile) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Email != nil {
		p.Email = *pp.Email
	}
	if pp.SubscriptionStatus != nil {
		p.SubscriptionStatus = *pp.SubscriptionStatus
	}
	if pp.TrialEndsAt.Set {
		if pp.TrialEndsAt.Value == nil {
			p.TrialEndsAt = nil
		} else {
			ts := *pp.TrialEndsAt.Value
			p.TrialEndsAt = &ts
		}
	}
}

// OptionalTime is a nullable timestamp that remembers whether it was
// present in the decoded JSON at all.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON records presence and accepts null or an RFC 3339 string.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var ts time.Time
	if err := json.Unmarshal(data, &ts); err != nil {
		return err
	}
	o.Value = &ts
	return nil
}

// MarshalJSON encodes the value, or null when unset.
func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

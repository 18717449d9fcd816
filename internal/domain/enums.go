// Package domain defines the core domain models for nexusdesk.
package domain

// TicketStatus represents the workflow state of a ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusClosed     TicketStatus = "Closed"
)

// Valid reports whether s is one of the known ticket statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority represents the urgency assigned to a ticket.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// TicketSentiment represents the customer's tone as classified by the
// analysis agent.
type TicketSentiment string

const (
	TicketSentimentPositive TicketSentiment = "Positive"
	TicketSentimentNeutral  TicketSentiment = "Neutral"
	TicketSentimentNegative TicketSentiment = "Negative"
)

// Valid reports whether s is one of the known sentiments.
func (s TicketSentiment) Valid() bool {
	switch s {
	case TicketSentimentPositive, TicketSentimentNeutral, TicketSentimentNegative:
		return true
	}
	return false
}

// SubscriptionStatus represents the billing state of the tenant's profile.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "Trialing"
	SubscriptionActive   SubscriptionStatus = "Active"
	SubscriptionCanceled SubscriptionStatus = "Canceled"
	SubscriptionPastDue  SubscriptionStatus = "Past Due"
	SubscriptionFree     SubscriptionStatus = "Free"
)

// Valid reports whether s is one of the known subscription states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionTrialing, SubscriptionActive, SubscriptionCanceled, SubscriptionPastDue, SubscriptionFree:
		return true
	}
	return false
}

// Authors used for conversation entries written by the system itself.
const (
	AuthorUser        = "User"
	AuthorAIAssistant = "AI Assistant"
)

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/nexusdesk/internal/adapter/llm"
	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/events"
	"github.com/xiaot623/nexusdesk/internal/metrics"
	"github.com/xiaot623/nexusdesk/internal/policy"
)

// CreateTicketRequest is the body of POST /api/tickets.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Service) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.controller.GetTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket returns the ticket or nil if it does not exist.
func (s *Service) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	t, err := s.controller.GetTicketByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

// CreateTicket classifies and files a new Open ticket.
func (s *Service) CreateTicket(ctx context.Context, req CreateTicketRequest) (*domain.Ticket, error) {
	if err := s.policyEngine.Check(ctx, policy.ActionTicketCreate, map[string]any{
		"title":       req.Title,
		"description": req.Description,
	}); err != nil {
		return nil, err
	}

	analysis := s.classify(ctx, req.Title, req.Description)
	t, err := s.controller.AddTicket(ctx, domain.NewTicket{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TicketStatusOpen,
		Priority:    analysis.Priority,
		Sentiment:   analysis.Sentiment,
		Author:      domain.AuthorUser,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	s.events.PublishTicketEvent(ctx, events.TicketCreated, t)
	return t, nil
}

// classify asks the analysis agent for priority and sentiment, falling
// back to Medium/Neutral when it fails.
func (s *Service) classify(ctx context.Context, title, description string) llm.Analysis {
	fallback := llm.Analysis{Priority: domain.TicketPriorityMedium, Sentiment: domain.TicketSentimentNeutral}

	a, err := s.llmClient.Classify(ctx, title, description)
	switch {
	case errors.Is(err, llm.ErrInvalidAnalysis):
		metrics.Classifications.WithLabelValues("invalid").Inc()
		log.Warn().Err(err).Msg("unparseable ticket analysis, using defaults")
		return fallback
	case err != nil:
		metrics.Classifications.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("ticket analysis failed, using defaults")
		return fallback
	}
	metrics.Classifications.WithLabelValues("ok").Inc()
	return *a
}

// UpdateTicketStatus sets a ticket's status. It returns nil if the
// ticket does not exist.
func (s *Service) UpdateTicketStatus(ctx context.Context, id, status string) (*domain.Ticket, error) {
	if err := s.policyEngine.Check(ctx, policy.ActionTicketStatus, map[string]any{"status": status}); err != nil {
		return nil, err
	}
	t, err := s.controller.UpdateTicketStatus(ctx, id, domain.TicketStatus(status))
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}
	if t != nil {
		s.events.PublishTicketEvent(ctx, events.TicketStatusChanged, t)
	}
	return t, nil
}

// AddComment appends an agent reply to a ticket. It returns nil if the
// ticket does not exist.
func (s *Service) AddComment(ctx context.Context, id, text string) (*domain.Ticket, error) {
	if err := s.policyEngine.Check(ctx, policy.ActionTicketComment, map[string]any{"text": text}); err != nil {
		return nil, err
	}
	// Comments come from the support side until users are authenticated.
	t, err := s.controller.AddCommentToTicket(ctx, id, text, domain.AuthorAIAssistant)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	if t != nil {
		s.events.PublishTicketEvent(ctx, events.TicketCommented, t)
	}
	return t, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/policy"
)

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Title        string `json:"title"`
	SessionID    string `json:"sessionId"`
	FirstMessage string `json:"firstMessage"`
}

// CreatedSession identifies a newly registered session.
type CreatedSession struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

// CreateSession registers a session, generating its id and title when
// the caller does not supply them.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreatedSession, error) {
	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	title := req.Title
	if title == "" {
		title = deriveSessionTitle(req.FirstMessage, s.clock.Now())
	}
	if err := s.controller.AddSession(ctx, id, title); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if s.history != nil {
		s.history.ForgetSession(id)
	}
	return &CreatedSession{SessionID: id, Title: title}, nil
}

const maxTitleMessageLen = 40

// deriveSessionTitle names a session after its opening message, or
// after the time when there is none.
func deriveSessionTitle(firstMessage string, now time.Time) string {
	stamp := now.Format("01/02 15:04")
	clean := strings.Join(strings.Fields(firstMessage), " ")
	if clean == "" {
		return "Chat " + stamp
	}
	if runes := []rune(clean); len(runes) > maxTitleMessageLen {
		clean = string(runes[:maxTitleMessageLen-3]) + "..."
	}
	return clean + " • " + stamp
}

func (s *Service) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	sessions, err := s.controller.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) CountSessions(ctx context.Context) (int, error) {
	n, err := s.controller.GetSessionCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// DeleteSession removes a session and reports whether it existed.
func (s *Service) DeleteSession(ctx context.Context, id string) (bool, error) {
	existed, err := s.controller.RemoveSession(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	if s.history != nil {
		s.history.ForgetSession(id)
	}
	return existed, nil
}

// RenameSession sets a session's title and reports whether it existed.
func (s *Service) RenameSession(ctx context.Context, id, title string) (bool, error) {
	if err := s.policyEngine.Check(ctx, policy.ActionSessionRename, map[string]any{"title": title}); err != nil {
		return false, err
	}
	updated, err := s.controller.UpdateSessionTitle(ctx, id, title)
	if err != nil {
		return false, fmt.Errorf("failed to rename session: %w", err)
	}
	return updated, nil
}

// ClearSessions deletes every session and returns how many there were.
func (s *Service) ClearSessions(ctx context.Context) (int, error) {
	n, err := s.controller.ClearAllSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear sessions: %w", err)
	}
	if s.history != nil {
		s.history.ForgetAllSessions()
	}
	return n, nil
}

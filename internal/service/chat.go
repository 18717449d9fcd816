package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/nexusdesk/internal/adapter/llm"
)

// Chat records activity on the session and streams the assistant's
// reply to history through onDelta.
func (s *Service) Chat(ctx context.Context, sessionID string, history []llm.Message, onDelta llm.StreamCallback) (string, error) {
	if err := s.controller.UpdateSessionActivity(ctx, sessionID); err != nil {
		return "", fmt.Errorf("failed to touch session: %w", err)
	}
	reply, err := s.llmClient.ChatStream(ctx, history, onDelta)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return reply, nil
}

// Package service orchestrates request handling between the transports,
// the request policy, the analysis agent and the state controller.
package service

import (
	"github.com/xiaot623/nexusdesk/internal/adapter/llm"
	"github.com/xiaot623/nexusdesk/internal/clock"
	"github.com/xiaot623/nexusdesk/internal/controller"
	"github.com/xiaot623/nexusdesk/internal/events"
	"github.com/xiaot623/nexusdesk/internal/policy"
)

type Service struct {
	controller   *controller.Controller
	llmClient    llm.Client
	events       events.TicketPublisher
	policyEngine *policy.Engine
	clock        clock.Clock
	history      ChatHistory
}

// ChatHistory is the per-session conversation memory kept by the chat
// transport. It is dropped when sessions are deleted.
type ChatHistory interface {
	ForgetSession(sessionID string)
	ForgetAllSessions()
}

func New(ctrl *controller.Controller, llmClient llm.Client, publisher events.TicketPublisher, policyEngine *policy.Engine, clk clock.Clock) *Service {
	return &Service{
		controller:   ctrl,
		llmClient:    llmClient,
		events:       publisher,
		policyEngine: policyEngine,
		clock:        clk,
	}
}

// SetChatHistory attaches the chat transport's history. Call it before
// serving requests.
func (s *Service) SetChatHistory(h ChatHistory) {
	s.history = h
}

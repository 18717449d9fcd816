// Package policy validates inbound requests against a rego policy
// before they reach the state controller.
package policy

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed requests.rego
var DefaultPolicy string

// Actions evaluated by the request policy.
const (
	ActionTicketCreate   = "ticket.create"
	ActionTicketStatus   = "ticket.status"
	ActionTicketComment  = "ticket.comment"
	ActionSessionRename  = "session.rename"
	ActionCheckoutCreate = "checkout.create"
	ActionProfileUpdate  = "profile.update"
)

// Violation is returned when a request is denied. Message is safe to
// show to the caller.
type Violation struct {
	Message string
}

func (v *Violation) Error() string { return v.Message }

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine from rego source defining
// data.nexusdesk.requests.deny.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.nexusdesk.requests.deny"),
		rego.Module("requests.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Check evaluates body for action. It returns a *Violation when the
// policy denies the request.
func (e *Engine) Check(ctx context.Context, action string, body map[string]any) error {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]any{
		"action": action,
		"body":   body,
	}))
	if err != nil {
		return fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil
	}

	raw, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(raw))
	for _, m := range raw {
		if s, ok := m.(string); ok {
			msgs = append(msgs, s)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	sort.Strings(msgs)
	return &Violation{Message: msgs[0]}
}

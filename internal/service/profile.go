package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/policy"
)

// CheckoutRedirectURL is where the mock checkout sends the browser.
const CheckoutRedirectURL = "/dashboard/settings?subscription_updated=true"

// GetProfile returns the profile or nil if none exists.
func (s *Service) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	p, err := s.controller.GetUserProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpdateProfile merges the supplied fields into the profile.
func (s *Service) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	body := map[string]any{}
	if patch.SubscriptionStatus != nil {
		body["subscriptionStatus"] = string(*patch.SubscriptionStatus)
	}
	if err := s.policyEngine.Check(ctx, policy.ActionProfileUpdate, body); err != nil {
		return nil, err
	}
	p, err := s.controller.UpdateUserProfile(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// CreateCheckoutSession simulates a successful subscription purchase:
// the profile becomes Active and its trial ends.
func (s *Service) CreateCheckoutSession(ctx context.Context, priceID string) (string, error) {
	if err := s.policyEngine.Check(ctx, policy.ActionCheckoutCreate, map[string]any{"priceId": priceID}); err != nil {
		return "", err
	}
	active := domain.SubscriptionActive
	if _, err := s.controller.UpdateUserProfile(ctx, domain.ProfilePatch{
		SubscriptionStatus: &active,
		TrialEndsAt:        domain.OptionalTime{Set: true},
	}); err != nil {
		return "", fmt.Errorf("failed to activate subscription: %w", err)
	}
	return CheckoutRedirectURL, nil
}

package controller

import (
	"context"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

// GetUserProfile returns a copy of the profile, or nil if none exists.
func (c *Controller) GetUserProfile(ctx context.Context) (p *domain.UserProfile, err error) {
	defer func() { observe("get_user_profile", p != nil, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return c.profile.Clone(), nil
}

// UpdateUserProfile overlays the supplied fields of patch onto the
// profile and returns the merged result. A profile that leaves the
// Trialing state drops its trial end. Returns nil if no profile exists.
func (c *Controller) UpdateUserProfile(ctx context.Context, patch domain.ProfilePatch) (p *domain.UserProfile, err error) {
	defer func() { observe("update_user_profile", p != nil, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if c.profile == nil {
		return nil, nil
	}
	next := c.profile.Clone()
	patch.Apply(next)
	if next.SubscriptionStatus != domain.SubscriptionTrialing {
		next.TrialEndsAt = nil
	}
	if err := c.put(ctx, profileKey, toProfileRecord(next)); err != nil {
		return nil, err
	}
	c.profile = next
	return next.Clone(), nil
}

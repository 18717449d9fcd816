package controller

import (
	"context"
	"fmt"
	"sort"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

// AddSession registers a chat session. An empty title becomes
// "Chat <date>". Re-adding an existing id replaces it.
func (c *Controller) AddSession(ctx context.Context, id, title string) (err error) {
	defer func() { observe("add_session", true, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	now := c.now()
	if title == "" {
		title = "Chat " + now.Format("1/2/2006")
	}
	s := &domain.SessionInfo{
		ID:         id,
		Title:      title,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := c.put(ctx, sessionKey(id), toSessionRecord(s)); err != nil {
		return err
	}
	c.sessions[id] = s
	c.log.Debug().Str("session_id", id).Msg("session added")
	return nil
}

// RemoveSession deletes a session and reports whether it existed.
func (c *Controller) RemoveSession(ctx context.Context, id string) (existed bool, err error) {
	defer func() { observe("remove_session", existed, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return false, err
	}

	_, inMemory := c.sessions[id]
	deleted, err := c.store.Delete(ctx, sessionKey(id))
	if err != nil {
		return false, fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	delete(c.sessions, id)
	return inMemory || deleted, nil
}

// UpdateSessionActivity touches a session's lastActive. Unknown ids are
// ignored.
func (c *Controller) UpdateSessionActivity(ctx context.Context, id string) (err error) {
	found := true
	defer func() { observe("update_session_activity", found, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	cur, ok := c.sessions[id]
	if !ok {
		found = false
		return nil
	}
	next := *cur
	if now := c.now(); now.After(next.LastActive) {
		next.LastActive = now
	}
	if err := c.put(ctx, sessionKey(id), toSessionRecord(&next)); err != nil {
		return err
	}
	c.sessions[id] = &next
	return nil
}

// UpdateSessionTitle renames a session and reports whether it existed.
func (c *Controller) UpdateSessionTitle(ctx context.Context, id, title string) (updated bool, err error) {
	defer func() { observe("update_session_title", updated, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return false, err
	}

	cur, ok := c.sessions[id]
	if !ok {
		return false, nil
	}
	next := *cur
	next.Title = title
	if err := c.put(ctx, sessionKey(id), toSessionRecord(&next)); err != nil {
		return false, err
	}
	c.sessions[id] = &next
	return true, nil
}

// ListSessions returns every session, most recently active first.
func (c *Controller) ListSessions(ctx context.Context) (_ []domain.SessionInfo, err error) {
	defer func() { observe("list_sessions", true, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.SessionInfo, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastActive.Equal(out[j].LastActive) {
			return out[i].LastActive.After(out[j].LastActive)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetSessionCount returns the number of sessions.
func (c *Controller) GetSessionCount(ctx context.Context) (_ int, err error) {
	defer func() { observe("get_session_count", true, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return len(c.sessions), nil
}

// ClearAllSessions deletes every session in one batch and returns how
// many were removed.
func (c *Controller) ClearAllSessions(ctx context.Context) (_ int, err error) {
	defer func() { observe("clear_all_sessions", true, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	if len(c.sessions) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		keys = append(keys, sessionKey(id))
	}
	if _, err := c.store.DeleteMany(ctx, keys); err != nil {
		return 0, fmt.Errorf("failed to clear sessions: %w", err)
	}
	count := len(c.sessions)
	c.sessions = make(map[string]*domain.SessionInfo)
	c.log.Info().Int("count", count).Msg("sessions cleared")
	return count, nil
}

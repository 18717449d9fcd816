package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/nexusdesk/internal/clock"
	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/store"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var errInjected = errors.New("injected failure")

// flakyStore fails reads or writes on demand.
type flakyStore struct {
	store.Store
	failList   bool
	failWrites bool
}

func (f *flakyStore) List(ctx context.Context) ([]store.Entry, error) {
	if f.failList {
		return nil, errInjected
	}
	return f.Store.List(ctx)
}

func (f *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	if f.failWrites {
		return errInjected
	}
	return f.Store.Put(ctx, key, value)
}

func (f *flakyStore) PutMany(ctx context.Context, entries []store.Entry) error {
	if f.failWrites {
		return errInjected
	}
	return f.Store.PutMany(ctx, entries)
}

func (f *flakyStore) Delete(ctx context.Context, key string) (bool, error) {
	if f.failWrites {
		return false, errInjected
	}
	return f.Store.Delete(ctx, key)
}

func (f *flakyStore) DeleteMany(ctx context.Context, keys []string) (int, error) {
	if f.failWrites {
		return 0, errInjected
	}
	return f.Store.DeleteMany(ctx, keys)
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:", "test-tenant")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestController(t *testing.T) (*Controller, *store.SQLiteStore, *clock.Fake) {
	t.Helper()
	s := newTestStore(t)
	clk := clock.NewFake(testStart)
	return New(s, WithClock(clk)), s, clk
}

func storedKeys(t *testing.T, s store.Store) []string {
	t.Helper()
	entries, err := s.List(context.Background())
	require.NoError(t, err)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestFirstUseSeedsTicketsAndProfile(t *testing.T) {
	ctx := context.Background()
	c, s, _ := newTestController(t)

	tickets, err := c.GetTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	assert.Equal(t, "TKT-001", tickets[0].ID)
	assert.Equal(t, "Login issue on mobile", tickets[0].Title)
	assert.Equal(t, domain.TicketStatusOpen, tickets[0].Status)
	assert.Equal(t, domain.TicketPriorityHigh, tickets[0].Priority)
	assert.True(t, tickets[0].LastUpdate.Equal(testStart.Add(-2*time.Minute)))
	require.Len(t, tickets[0].Conversation, 2)
	assert.Equal(t, domain.AuthorAIAssistant, tickets[0].Conversation[1].Author)
	assert.Equal(t, "TKT-002", tickets[1].ID)
	assert.Equal(t, domain.TicketStatusInProgress, tickets[1].Status)
	assert.Equal(t, "TKT-003", tickets[2].ID)
	assert.Equal(t, domain.TicketStatusClosed, tickets[2].Status)

	profile, err := c.GetUserProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Demo User", profile.Name)
	assert.Equal(t, "demo@nexusdesk.ai", profile.Email)
	assert.Equal(t, domain.SubscriptionTrialing, profile.SubscriptionStatus)
	require.NotNil(t, profile.TrialEndsAt)
	assert.True(t, profile.TrialEndsAt.Equal(testStart.AddDate(0, 0, 14)))

	assert.ElementsMatch(t, []string{
		"ticket:TKT-001", "ticket:TKT-002", "ticket:TKT-003",
		"userProfile", "meta:ticketSeq", "meta:initialized",
	}, storedKeys(t, s))
}

func TestHydrationIsIdempotentAcrossInstances(t *testing.T) {
	ctx := context.Background()
	c, s, clk := newTestController(t)

	_, err := c.UpdateTicketStatus(ctx, "TKT-001", domain.TicketStatusClosed)
	require.NoError(t, err)
	require.NoError(t, c.AddSession(ctx, "s1", "First"))
	name := "Renamed"
	_, err = c.UpdateUserProfile(ctx, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	// A second instance over the same store must not re-seed.
	clk.Advance(24 * time.Hour)
	again := New(s, WithClock(clk))
	for i := 0; i < 2; i++ {
		tickets, err := again.GetTickets(ctx)
		require.NoError(t, err)
		require.Len(t, tickets, 3)
		assert.Equal(t, domain.TicketStatusClosed, tickets[0].Status)
	}

	profile, err := again.GetUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", profile.Name)
	assert.True(t, profile.TrialEndsAt.Equal(testStart.AddDate(0, 0, 14)))

	sessions, err := again.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "First", sessions[0].Title)
	assert.True(t, sessions[0].CreatedAt.Equal(testStart))

	created, err := again.AddTicket(ctx, domain.NewTicket{Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "TKT-004", created.ID)
}

func TestTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestController(t)

	created, err := c.AddTicket(ctx, domain.NewTicket{
		Title:       "Login issue",
		Description: "Cannot log in",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityHigh,
		Sentiment:   domain.TicketSentimentNegative,
	})
	require.NoError(t, err)
	assert.Equal(t, "TKT-004", created.ID)
	require.Len(t, created.Conversation, 1)
	assert.Equal(t, "Cannot log in", created.Conversation[0].Text)
	assert.Equal(t, domain.AuthorUser, created.Conversation[0].Author)

	clk.Advance(time.Second)
	updated, err := c.AddCommentToTicket(ctx, "TKT-004", "Try resetting password", domain.AuthorAIAssistant)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Len(t, updated.Conversation, 2)
	assert.Equal(t, domain.AuthorAIAssistant, updated.Conversation[1].Author)
	assert.Equal(t, created.Conversation[0], updated.Conversation[0])
	assert.True(t, updated.LastUpdate.After(created.LastUpdate))

	got, err := c.GetTicketByID(ctx, "TKT-004")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestAddTicketUsesFilerAsFirstAuthor(t *testing.T) {
	c, _, _ := newTestController(t)

	created, err := c.AddTicket(context.Background(), domain.NewTicket{
		Title:       "Escalation",
		Description: "Forwarded from chat",
		Author:      domain.AuthorAIAssistant,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorAIAssistant, created.Conversation[0].Author)
}

func TestUpdateTicketStatusStrictlyIncreasesLastUpdate(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	before, err := c.GetTicketByID(ctx, "TKT-002")
	require.NoError(t, err)

	// The fake clock is frozen, so consecutive updates share a wall time.
	prev := before.LastUpdate
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusClosed, domain.TicketStatusOpen, domain.TicketStatusInProgress,
	} {
		_, err := c.UpdateTicketStatus(ctx, "TKT-002", status)
		require.NoError(t, err)

		got, err := c.GetTicketByID(ctx, "TKT-002")
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
		assert.True(t, got.LastUpdate.After(prev), "lastUpdate %v not after %v", got.LastUpdate, prev)
		prev = got.LastUpdate
	}
}

func TestConversationIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestController(t)

	start, err := c.GetTicketByID(ctx, "TKT-001")
	require.NoError(t, err)
	prefix := start.Conversation

	for i := 0; i < 5; i++ {
		clk.Advance(time.Millisecond)
		got, err := c.AddCommentToTicket(ctx, "TKT-001", fmt.Sprintf("comment %d", i), domain.AuthorUser)
		require.NoError(t, err)
		require.Len(t, got.Conversation, len(prefix)+i+1)
		assert.Equal(t, prefix, got.Conversation[:len(prefix)])
		assert.Equal(t, fmt.Sprintf("comment %d", i), got.Conversation[len(got.Conversation)-1].Text)
	}
}

func TestTicketNotFound(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	got, err := c.GetTicketByID(ctx, "TKT-999")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.UpdateTicketStatus(ctx, "TKT-999", domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.AddCommentToTicket(ctx, "TKT-999", "hello", domain.AuthorUser)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReturnedTicketsAreCopies(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	got, err := c.GetTicketByID(ctx, "TKT-001")
	require.NoError(t, err)
	got.Title = "mutated"
	got.Conversation[0].Text = "mutated"

	list, err := c.GetTickets(ctx)
	require.NoError(t, err)
	list[0].Conversation[0].Text = "mutated"

	again, err := c.GetTicketByID(ctx, "TKT-001")
	require.NoError(t, err)
	assert.Equal(t, "Login issue on mobile", again.Title)
	assert.NotEqual(t, "mutated", again.Conversation[0].Text)
}

func TestConcurrentAddTicketAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	const n = 20
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := c.AddTicket(ctx, domain.NewTicket{
				Title:       fmt.Sprintf("ticket %d", i),
				Description: "concurrent",
			})
			if assert.NoError(t, err) {
				ids <- created.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["TKT-004"])
	assert.True(t, seen["TKT-023"])

	tickets, err := c.GetTickets(ctx)
	require.NoError(t, err)
	assert.Len(t, tickets, n+3)
}

func TestSessionOrdering(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestController(t)

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, c.AddSession(ctx, id, "title "+id))
		clk.Advance(time.Second)
	}
	require.NoError(t, c.UpdateSessionActivity(ctx, "s1"))

	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []string{"s1", "s3", "s2"}, []string{sessions[0].ID, sessions[1].ID, sessions[2].ID})
	for i := 1; i < len(sessions); i++ {
		assert.False(t, sessions[i].LastActive.After(sessions[i-1].LastActive))
	}
	for _, s := range sessions {
		assert.False(t, s.LastActive.Before(s.CreatedAt))
	}
}

func TestAddSessionDefaultTitle(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	require.NoError(t, c.AddSession(ctx, "s1", ""))
	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Chat 3/10/2026", sessions[0].Title)
	assert.True(t, sessions[0].CreatedAt.Equal(sessions[0].LastActive))
}

func TestSessionMutations(t *testing.T) {
	ctx := context.Background()
	c, s, _ := newTestController(t)

	require.NoError(t, c.AddSession(ctx, "s1", "Old"))

	ok, err := c.UpdateSessionTitle(ctx, "s1", "New")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.UpdateSessionTitle(ctx, "missing", "New")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.UpdateSessionActivity(ctx, "missing"))

	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "New", sessions[0].Title)

	existed, err := c.RemoveSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = c.RemoveSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = s.Get(ctx, "session:s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClearAllSessions(t *testing.T) {
	ctx := context.Background()
	c, s, _ := newTestController(t)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.AddSession(ctx, id, ""))
	}
	count, err := c.GetSessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	deleted, err := c.ClearAllSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	count, err = c.GetSessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for _, key := range storedKeys(t, s) {
		assert.False(t, strings.HasPrefix(key, "session:"), "session key %s survived", key)
	}

	deleted, err = c.ClearAllSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestUpdateUserProfileIsPartial(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	name := "X"
	got, err := c.UpdateUserProfile(ctx, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "X", got.Name)
	assert.Equal(t, "demo@nexusdesk.ai", got.Email)
	assert.Equal(t, domain.SubscriptionTrialing, got.SubscriptionStatus)
	assert.NotNil(t, got.TrialEndsAt)

	active := domain.SubscriptionActive
	got, err = c.UpdateUserProfile(ctx, domain.ProfilePatch{SubscriptionStatus: &active})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, got.SubscriptionStatus)
	assert.Nil(t, got.TrialEndsAt)
	assert.Equal(t, "X", got.Name)

	stored, err := c.GetUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestUpdateUserProfileWithoutProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	// Already initialized, profile removed out of band.
	require.NoError(t, s.Put(ctx, initializedKey, []byte("true")))

	c := New(s, WithClock(clock.NewFake(testStart)))
	name := "X"
	got, err := c.UpdateUserProfile(ctx, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, got)

	profile, err := c.GetUserProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestFailedWriteLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := &flakyStore{Store: newTestStore(t)}
	c := New(fs, WithClock(clock.NewFake(testStart)))

	require.NoError(t, c.AddSession(ctx, "s1", "Keep"))
	fs.failWrites = true

	_, err := c.UpdateTicketStatus(ctx, "TKT-001", domain.TicketStatusClosed)
	assert.ErrorIs(t, err, errInjected)
	_, err = c.AddCommentToTicket(ctx, "TKT-001", "lost", domain.AuthorUser)
	assert.ErrorIs(t, err, errInjected)
	_, err = c.AddTicket(ctx, domain.NewTicket{Title: "lost", Description: "lost"})
	assert.ErrorIs(t, err, errInjected)
	_, err = c.UpdateSessionTitle(ctx, "s1", "lost")
	assert.ErrorIs(t, err, errInjected)
	_, err = c.ClearAllSessions(ctx)
	assert.ErrorIs(t, err, errInjected)
	name := "lost"
	_, err = c.UpdateUserProfile(ctx, domain.ProfilePatch{Name: &name})
	assert.ErrorIs(t, err, errInjected)

	fs.failWrites = false

	ticket, err := c.GetTicketByID(ctx, "TKT-001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Len(t, ticket.Conversation, 2)

	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Keep", sessions[0].Title)

	profile, err := c.GetUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Demo User", profile.Name)

	// The failed AddTicket must not have consumed a sequence number.
	created, err := c.AddTicket(ctx, domain.NewTicket{Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "TKT-004", created.ID)
}

func TestHydrationFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	fs := &flakyStore{Store: newTestStore(t), failList: true}
	c := New(fs, WithClock(clock.NewFake(testStart)))

	_, err := c.GetTickets(ctx)
	require.ErrorIs(t, err, errInjected)

	fs.failList = false
	fs.failWrites = true
	_, err = c.GetTickets(ctx)
	require.ErrorIs(t, err, errInjected)
	assert.Empty(t, storedKeys(t, fs.Store))

	fs.failWrites = false
	tickets, err := c.GetTickets(ctx)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestLegacyStoreWithoutMarker(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	legacy := `{"id":"TKT-007","title":"Old","description":"d","status":"Open","priority":"Low",` +
		`"sentiment":"Neutral","lastUpdate":"2025-01-01T00:00:00Z","conversation":[]}`
	require.NoError(t, s.Put(ctx, "ticket:TKT-007", []byte(legacy)))
	require.NoError(t, s.Put(ctx, "ticket:broken", []byte("{not json")))

	c := New(s, WithClock(clock.NewFake(testStart)))
	tickets, err := c.GetTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "TKT-007", tickets[0].ID)

	// A missing profile is still created.
	profile, err := c.GetUserProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)

	created, err := c.AddTicket(ctx, domain.NewTicket{Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "TKT-008", created.ID)

	assert.Contains(t, storedKeys(t, s), "meta:initialized")
}

func TestHydrationKeysRecordsByStoreKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Put(ctx, "session:s-key", []byte(`{"id":"s-other","title":"Mismatched","createdAt":1000,"lastActive":2000}`)))
	ticket := `{"id":"TKT-002","title":"Old","description":"d","status":"Open","priority":"Low",` +
		`"sentiment":"Neutral","lastUpdate":"2025-01-01T00:00:00Z","conversation":[]}`
	require.NoError(t, s.Put(ctx, "ticket:TKT-009", []byte(ticket)))

	c := New(s, WithClock(clock.NewFake(testStart)))
	tickets, err := c.GetTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "TKT-009", tickets[0].ID)

	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s-key", sessions[0].ID)
	assert.Equal(t, "Mismatched", sessions[0].Title)

	existed, err := c.RemoveSession(ctx, "s-key")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.NotContains(t, storedKeys(t, s), "session:s-key")
}

func TestCBORRecordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	codec, err := store.NewCodec(store.CodecCBOR)
	require.NoError(t, err)
	clk := clock.NewFake(testStart)

	c := New(s, WithClock(clk), WithCodec(codec))
	created, err := c.AddTicket(ctx, domain.NewTicket{Title: "t", Description: "d", Status: domain.TicketStatusOpen})
	require.NoError(t, err)
	require.NoError(t, c.AddSession(ctx, "s1", "chat"))

	again := New(s, WithClock(clk), WithCodec(codec))
	got, err := again.GetTicketByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.Title, got.Title)
	assert.True(t, created.LastUpdate.Equal(got.LastUpdate))

	count, err := again.GetSessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestParseSeedRejectsBadIDs(t *testing.T) {
	_, err := ParseSeed([]byte("tickets:\n  - id: BAD-1\n"))
	assert.Error(t, err)

	seed := DefaultSeed()
	assert.Len(t, seed.Tickets, 3)
	assert.Equal(t, 3*time.Hour+5*time.Minute, seed.Tickets[2].Conversation[0].Ago)
}

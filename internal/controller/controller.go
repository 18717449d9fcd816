// Package controller owns all durable state for one tenant: chat
// sessions, support tickets and the user profile. State is hydrated from
// the store on first use and written through on every mutation.
package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/nexusdesk/internal/clock"
	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/metrics"
	"github.com/xiaot623/nexusdesk/internal/store"
)

// Controller is the single-writer state owner for a tenant. All methods
// are safe for concurrent use; they serialize on one mutex that is held
// across the store write, so memory and store never diverge.
type Controller struct {
	mu sync.Mutex

	store store.Store
	codec store.Codec
	clock clock.Clock
	seed  *Seed
	log   zerolog.Logger

	loaded    bool
	sessions  map[string]*domain.SessionInfo
	tickets   map[string]*domain.Ticket
	profile   *domain.UserProfile
	ticketSeq int
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithCodec sets the record encoding. Defaults to JSON.
func WithCodec(c store.Codec) Option {
	return func(ctrl *Controller) { ctrl.codec = c }
}

// WithSeed replaces the built-in first-boot data set.
func WithSeed(s *Seed) Option {
	return func(ctrl *Controller) { ctrl.seed = s }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ctrl *Controller) { ctrl.log = l }
}

// New creates a Controller over s. Nothing is read until the first call.
func New(s store.Store, opts ...Option) *Controller {
	c := &Controller{
		store: s,
		codec: store.JSONCodec{},
		clock: clock.Real(),
		log:   log.With().Str("component", "controller").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.seed == nil {
		c.seed = DefaultSeed()
	}
	return c
}

// ensureLoaded hydrates the controller at most once. A failed attempt
// leaves it unhydrated so the next call retries. Callers hold c.mu.
func (c *Controller) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	if err := c.hydrate(ctx); err != nil {
		metrics.HydrationFailures.Inc()
		c.log.Error().Err(err).Msg("hydration failed")
		return err
	}
	c.loaded = true
	metrics.Hydrated.Set(1)
	return nil
}

func (c *Controller) hydrate(ctx context.Context) error {
	entries, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored state: %w", err)
	}

	sessions := make(map[string]*domain.SessionInfo)
	tickets := make(map[string]*domain.Ticket)
	var (
		profile     *domain.UserProfile
		seq         int
		seqFound    bool
		initialized bool
		maxTicket   int
	)

	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Key, sessionPrefix):
			var r sessionRecord
			if err := c.codec.Unmarshal(e.Value, &r); err != nil {
				c.log.Warn().Err(err).Str("key", e.Key).Msg("skipping undecodable session")
				continue
			}
			// The key is authoritative; RemoveSession deletes by it.
			s := r.toDomain()
			s.ID = strings.TrimPrefix(e.Key, sessionPrefix)
			sessions[s.ID] = s

		case strings.HasPrefix(e.Key, ticketPrefix):
			id := strings.TrimPrefix(e.Key, ticketPrefix)
			if n, ok := ticketNumber(id); ok && n > maxTicket {
				maxTicket = n
			}
			var r ticketRecord
			if err := c.codec.Unmarshal(e.Value, &r); err != nil {
				c.log.Warn().Err(err).Str("key", e.Key).Msg("skipping undecodable ticket")
				continue
			}
			t, err := r.toDomain()
			if err != nil {
				c.log.Warn().Err(err).Str("key", e.Key).Msg("skipping undecodable ticket")
				continue
			}
			t.ID = id
			tickets[id] = t

		case e.Key == profileKey:
			var r profileRecord
			if err := c.codec.Unmarshal(e.Value, &r); err != nil {
				c.log.Warn().Err(err).Msg("skipping undecodable profile")
				continue
			}
			p, err := r.toDomain()
			if err != nil {
				c.log.Warn().Err(err).Msg("skipping undecodable profile")
				continue
			}
			profile = p

		case e.Key == ticketSeqKey:
			if err := c.codec.Unmarshal(e.Value, &seq); err != nil {
				return fmt.Errorf("failed to decode ticket sequence: %w", err)
			}
			seqFound = true

		case e.Key == initializedKey:
			initialized = true
		}
	}

	// Stores written before the counter existed derive it from the ids.
	if !seqFound || seq < maxTicket {
		seq = maxTicket
	}

	if !initialized {
		now := c.clock.Now()
		var batch []store.Entry

		// Stores that already hold tickets predate the marker; they are
		// marked without seeding.
		if len(tickets) == 0 {
			for _, t := range c.seed.tickets(now) {
				if n, ok := ticketNumber(t.ID); ok && n > seq {
					seq = n
				}
				value, err := c.codec.Marshal(toTicketRecord(t))
				if err != nil {
					return fmt.Errorf("failed to encode seed ticket %s: %w", t.ID, err)
				}
				batch = append(batch, store.Entry{Key: ticketKey(t.ID), Value: value})
				tickets[t.ID] = t
			}
		}
		if profile == nil {
			profile = c.seed.profile(now)
			value, err := c.codec.Marshal(toProfileRecord(profile))
			if err != nil {
				return fmt.Errorf("failed to encode seed profile: %w", err)
			}
			batch = append(batch, store.Entry{Key: profileKey, Value: value})
		}

		seqValue, err := c.codec.Marshal(seq)
		if err != nil {
			return fmt.Errorf("failed to encode ticket sequence: %w", err)
		}
		marker, err := c.codec.Marshal(true)
		if err != nil {
			return fmt.Errorf("failed to encode init marker: %w", err)
		}
		batch = append(batch,
			store.Entry{Key: ticketSeqKey, Value: seqValue},
			store.Entry{Key: initializedKey, Value: marker},
		)

		if err := c.store.PutMany(ctx, batch); err != nil {
			return fmt.Errorf("failed to persist initial state: %w", err)
		}
		c.log.Info().Int("keys", len(batch)).Msg("initialized tenant state")
	}

	c.sessions = sessions
	c.tickets = tickets
	c.profile = profile
	c.ticketSeq = seq

	c.log.Debug().
		Int("sessions", len(sessions)).
		Int("tickets", len(tickets)).
		Bool("profile", profile != nil).
		Int("ticket_seq", seq).
		Msg("hydrated")
	return nil
}

// put encodes v and writes it under key.
func (c *Controller) put(ctx context.Context, key string, v any) error {
	value, err := c.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// now returns the current time at the millisecond precision sessions are
// persisted with.
func (c *Controller) now() time.Time {
	return c.clock.Now().Round(0).Truncate(time.Millisecond)
}

// after returns the current time, or prev+1ms when the clock has not
// moved past prev, so successive updates are strictly ordered.
func (c *Controller) after(prev time.Time) time.Time {
	now := c.clock.Now().Round(0)
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

// observe records the outcome of one public operation.
func observe(op string, found bool, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case !found:
		outcome = "not_found"
	}
	metrics.ControllerOps.WithLabelValues(op, outcome).Inc()
}

package controller

import (
	"context"
	"fmt"
	"sort"

	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/store"
)

// GetTickets returns a copy of every ticket ordered by id.
func (c *Controller) GetTickets(ctx context.Context) (_ []domain.Ticket, err error) {
	defer func() { observe("get_tickets", true, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.Ticket, 0, len(c.tickets))
	for _, t := range c.tickets {
		out = append(out, *t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return lessTicketID(out[i].ID, out[j].ID) })
	return out, nil
}

// GetTicketByID returns a copy of the ticket, or nil if it does not exist.
func (c *Controller) GetTicketByID(ctx context.Context, id string) (t *domain.Ticket, err error) {
	defer func() { observe("get_ticket", t != nil, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return c.tickets[id].Clone(), nil
}

// AddTicket assigns the next TKT-NNN id, opens the conversation with the
// description and persists the ticket together with the advanced
// sequence.
func (c *Controller) AddTicket(ctx context.Context, nt domain.NewTicket) (t *domain.Ticket, err error) {
	defer func() { observe("add_ticket", true, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	seq := c.ticketSeq + 1
	for {
		if _, taken := c.tickets[formatTicketID(seq)]; !taken {
			break
		}
		seq++
	}

	author := nt.Author
	if author == "" {
		author = domain.AuthorUser
	}
	now := c.clock.Now().Round(0)
	ticket := &domain.Ticket{
		ID:          formatTicketID(seq),
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		Sentiment:   nt.Sentiment,
		LastUpdate:  now,
		Conversation: []domain.ConversationEntry{
			{Author: author, Text: nt.Description, Timestamp: now},
		},
	}

	ticketValue, err := c.codec.Marshal(toTicketRecord(ticket))
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket %s: %w", ticket.ID, err)
	}
	seqValue, err := c.codec.Marshal(seq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket sequence: %w", err)
	}
	if err := c.store.PutMany(ctx, []store.Entry{
		{Key: ticketKey(ticket.ID), Value: ticketValue},
		{Key: ticketSeqKey, Value: seqValue},
	}); err != nil {
		return nil, fmt.Errorf("failed to persist ticket %s: %w", ticket.ID, err)
	}

	c.tickets[ticket.ID] = ticket
	c.ticketSeq = seq
	c.log.Info().Str("ticket_id", ticket.ID).Str("priority", string(ticket.Priority)).Msg("ticket created")
	return ticket.Clone(), nil
}

// UpdateTicketStatus sets the status and refreshes lastUpdate. It
// returns nil if the ticket does not exist.
func (c *Controller) UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) (t *domain.Ticket, err error) {
	defer func() { observe("update_ticket_status", t != nil, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	cur, ok := c.tickets[id]
	if !ok {
		return nil, nil
	}
	next := cur.Clone()
	next.Status = status
	next.LastUpdate = c.after(cur.LastUpdate)
	if err := c.put(ctx, ticketKey(id), toTicketRecord(next)); err != nil {
		return nil, err
	}
	c.tickets[id] = next
	return next.Clone(), nil
}

// AddCommentToTicket appends a conversation entry and refreshes
// lastUpdate. It returns nil if the ticket does not exist.
func (c *Controller) AddCommentToTicket(ctx context.Context, id, text, author string) (t *domain.Ticket, err error) {
	defer func() { observe("add_comment", t != nil, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	cur, ok := c.tickets[id]
	if !ok {
		return nil, nil
	}
	next := cur.Clone()
	next.LastUpdate = c.after(cur.LastUpdate)
	next.Conversation = append(next.Conversation, domain.ConversationEntry{
		Author:    author,
		Text:      text,
		Timestamp: next.LastUpdate,
	})
	if err := c.put(ctx, ticketKey(id), toTicketRecord(next)); err != nil {
		return nil, err
	}
	c.tickets[id] = next
	return next.Clone(), nil
}

// lessTicketID orders TKT-NNN ids numerically, falling back to string
// order for ids outside that form.
func lessTicketID(a, b string) bool {
	na, okA := ticketNumber(a)
	nb, okB := ticketNumber(b)
	if okA && okB && na != nb {
		return na < nb
	}
	return a < b
}

// Package events publishes ticket lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/metrics"
)

// Ticket event names.
const (
	TicketCreated       = "ticket.created"
	TicketStatusChanged = "ticket.status_changed"
	TicketCommented     = "ticket.commented"
)

// TicketPublisher sends ticket events. Implementations are best-effort
// and never fail the calling request.
type TicketPublisher interface {
	PublishTicketEvent(ctx context.Context, event string, t *domain.Ticket)
}

// TicketEvent is the message body written to the topic.
type TicketEvent struct {
	Event      string                 `json:"event"`
	TicketID   string                 `json:"ticket_id"`
	Title      string                 `json:"title"`
	Status     domain.TicketStatus    `json:"status"`
	Priority   domain.TicketPriority  `json:"priority"`
	Sentiment  domain.TicketSentiment `json:"sentiment"`
	Comments   int                    `json:"comments"`
	LastUpdate time.Time              `json:"last_update"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes ticket events to a Kafka topic.
type Producer struct {
	writer messageWriter
	topic  string
}

var _ TicketPublisher = (*Producer)(nil)

// NewProducer creates a producer. With no brokers or no topic every
// method is a no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p.writer != nil
}

// PublishTicketEvent writes event for t keyed by ticket id, so all
// events of one ticket land on the same partition.
func (p *Producer) PublishTicketEvent(ctx context.Context, event string, t *domain.Ticket) {
	if p.writer == nil || t == nil {
		metrics.TicketEvents.WithLabelValues(event, "skipped").Inc()
		return
	}
	body, err := json.Marshal(TicketEvent{
		Event:      event,
		TicketID:   t.ID,
		Title:      t.Title,
		Status:     t.Status,
		Priority:   t.Priority,
		Sentiment:  t.Sentiment,
		Comments:   len(t.Conversation),
		LastUpdate: t.LastUpdate,
	})
	if err != nil {
		log.Warn().Err(err).Str("ticket_id", t.ID).Msg("kafka: marshal ticket event")
		metrics.TicketEvents.WithLabelValues(event, "failed").Inc()
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.ID), Value: body}); err != nil {
		log.Warn().Err(err).Str("ticket_id", t.ID).Str("topic", p.topic).Msg("kafka: write ticket event")
		metrics.TicketEvents.WithLabelValues(event, "failed").Inc()
		return
	}
	metrics.TicketEvents.WithLabelValues(event, "sent").Inc()
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

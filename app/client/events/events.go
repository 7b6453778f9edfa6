package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"maxbot/app/config"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var _ do.Shutdownable = (*Publisher)(nil)

// Envelope is the wire format of every bot event.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	// Unique event ID
	ID string `json:"id"`
	// Event name and version, e.g. lead.created.v1
	Type string `json:"type"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Emitting service
	Producer string `json:"producer,omitempty"`
}

// Publisher mirrors notable bot events (intent detected, lead created)
// onto a RabbitMQ topic exchange. Disabled deployments get a no-op
// publisher; event delivery is never load-bearing for the conversation.
type Publisher struct {
	conn     *amqp091.Connection
	exchange string
}

func New(di *do.Injector) (*Publisher, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if cfg.Events.URL == "" {
		return &Publisher{}, nil
	}

	conn, err := amqp091.Dial(cfg.Events.URL)
	if err != nil {
		return nil, oops.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, oops.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err = ch.ExchangeDeclare(
		cfg.Events.Exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, oops.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		exchange: cfg.Events.Exchange,
	}, nil
}

// Publish sends one event, logging instead of failing: the caller is the
// message pipeline and must not degrade because the event stream is down.
func (p *Publisher) Publish(ctx context.Context, eventType string, data any) {
	if p.conn == nil {
		return
	}

	envelope := Envelope{
		Meta: Meta{
			ID:       uuid.NewString(),
			Type:     eventType,
			Time:     time.Now(),
			Producer: "maxbot",
		},
		Data: data,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal event", "type", eventType, "error", err)
		return
	}

	ch, err := p.conn.Channel()
	if err != nil {
		slog.Error("Failed to open event channel", "type", eventType, "error", err)
		return
	}
	defer ch.Close()

	err = ch.PublishWithContext(
		ctx, p.exchange, eventType, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    envelope.Meta.ID,
			Timestamp:    envelope.Meta.Time,
			Body:         body,
		},
	)
	if err != nil {
		slog.Error("Failed to publish event", "type", eventType, "error", err)
	}
}

func (p *Publisher) Shutdown() error {
	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}

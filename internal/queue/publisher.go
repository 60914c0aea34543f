package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/sellerhub/internal/mail"
)

// Publisher is a mail.Sender that enqueues messages on RabbitMQ instead of
// talking to SMTP inline. A publish failure is returned to the caller.
type Publisher struct {
	URL   string
	Queue string

	dial func(url string) (channel, func() error, error)
}

// channel is the slice of *amqp.Channel the publisher needs.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// NewPublisher returns a publisher for queue on the broker at url.
func NewPublisher(url, queue string) *Publisher {
	return &Publisher{URL: url, Queue: queue, dial: dialChannel}
}

func dialChannel(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	closeAll := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return ch, closeAll, nil
}

// Send publishes msg as a persistent MailRequestedEvent.
func (p *Publisher) Send(ctx context.Context, msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	ch, closeFn, err := p.dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	// Durable so messages survive broker restarts; declaring is idempotent.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	now := time.Now().UTC()
	body, err := json.Marshal(MailRequestedEvent{
		To:          msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
		RequestedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

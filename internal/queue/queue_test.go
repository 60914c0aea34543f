package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sellerhub/internal/mail"
)

type fakeChannel struct {
	declared  string
	key       string
	published amqp.Publishing
	pubErr    error
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.declared = name
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.key = key
	f.published = msg
	return f.pubErr
}

func TestPublisher_Send(t *testing.T) {
	fc := &fakeChannel{}
	closed := false
	p := NewPublisher("amqp://unused", "mail.outbound")
	p.dial = func(string) (channel, func() error, error) {
		return fc, func() error { closed = true; return nil }, nil
	}

	err := p.Send(context.Background(), mail.Message{To: "a@x.com", Subject: "Your Login OTP", Body: "123456"})
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, "mail.outbound", fc.declared)
	assert.Equal(t, "mail.outbound", fc.key)
	assert.Equal(t, amqp.Persistent, fc.published.DeliveryMode)

	var ev MailRequestedEvent
	require.NoError(t, json.Unmarshal(fc.published.Body, &ev))
	assert.Equal(t, "a@x.com", ev.To)
	assert.Equal(t, "123456", ev.Body)
	assert.NotEmpty(t, ev.RequestedAt)
}

func TestPublisher_Errors(t *testing.T) {
	p := NewPublisher("amqp://unused", "q")
	p.dial = func(string) (channel, func() error, error) { return nil, nil, errors.New("refused") }
	assert.Error(t, p.Send(context.Background(), mail.Message{To: "a@x.com"}))

	fc := &fakeChannel{pubErr: errors.New("channel closed")}
	p.dial = func(string) (channel, func() error, error) { return fc, func() error { return nil }, nil }
	assert.Error(t, p.Send(context.Background(), mail.Message{To: "a@x.com"}))

	assert.Error(t, p.Send(context.Background(), mail.Message{}), "invalid message never reaches the broker")
}

type recordingSender struct {
	got []mail.Message
	err error
}

func (r *recordingSender) Send(_ context.Context, m mail.Message) error {
	r.got = append(r.got, m)
	return r.err
}

func TestConsumer_Handle(t *testing.T) {
	rs := &recordingSender{}
	c := &Consumer{Sender: rs, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	body, _ := json.Marshal(MailRequestedEvent{To: "a@x.com", Subject: "s", Body: "b"})
	require.NoError(t, c.handle(context.Background(), body))
	require.Len(t, rs.got, 1)
	assert.Equal(t, mail.Message{To: "a@x.com", Subject: "s", Body: "b"}, rs.got[0])

	assert.Error(t, c.handle(context.Background(), []byte("{not json")))

	rs.err = errors.New("smtp down")
	assert.Error(t, c.handle(context.Background(), body))
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Consumer{URL: "amqp://127.0.0.1:1/", Queue: "q", Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}

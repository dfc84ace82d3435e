package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Sender delivers a notification over a single channel. The boolean result is
// the business outcome of the attempt: false means the transport accepted the
// call but delivery definitively failed. Transport-level problems are
// reported through the error instead.
type Sender interface {
	Send(ctx context.Context, recipientID, content string) (bool, error)
}

// Registry maps channel types to their senders. New channels are added by
// registration, without touching the dispatch loop.
type Registry struct {
	mu      sync.RWMutex
	senders map[Channel]Sender
}

// NewRegistry creates an empty sender registry.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[Channel]Sender)}
}

// Register binds a sender to a channel, replacing any previous binding.
// Nil senders are ignored.
func (r *Registry) Register(channel Channel, sender Sender) {
	if sender == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[channel] = sender
}

// Resolve returns the sender registered for the channel.
func (r *Registry) Resolve(channel Channel) (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sender, ok := r.senders[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannelType, channel)
	}
	return sender, nil
}

// DefaultRegistry returns a registry with the built-in channel senders.
func DefaultRegistry(log *slog.Logger) *Registry {
	r := NewRegistry()
	r.Register(ChannelEmail, &EmailSender{log: log})
	r.Register(ChannelSMS, &SMSSender{log: log})
	r.Register(ChannelInApp, &InAppSender{log: log})
	return r
}

// EmailSender delivers email notifications. The real transport (Postmark,
// SES, ...) lives behind this boundary; the built-in implementation only
// logs the attempt.
type EmailSender struct {
	log *slog.Logger
}

func (s *EmailSender) Send(ctx context.Context, recipientID, content string) (bool, error) {
	s.log.InfoContext(ctx, "sending email notification",
		slog.String("recipient_id", recipientID),
		slog.String("content", content))
	return true, nil
}

// SMSSender delivers SMS notifications.
type SMSSender struct {
	log *slog.Logger
}

func (s *SMSSender) Send(ctx context.Context, recipientID, content string) (bool, error) {
	s.log.InfoContext(ctx, "sending sms notification",
		slog.String("recipient_id", recipientID),
		slog.String("content", content))
	return true, nil
}

// InAppSender delivers in-app notifications.
type InAppSender struct {
	log *slog.Logger
}

func (s *InAppSender) Send(ctx context.Context, recipientID, content string) (bool, error) {
	s.log.InfoContext(ctx, "sending in-app notification",
		slog.String("recipient_id", recipientID),
		slog.String("content", content))
	return true, nil
}

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/herald-io/herald/internal/metrics"
	"github.com/herald-io/herald/internal/queue"
	"github.com/herald-io/herald/pkg/retry"
)

// Publish retry defaults: transient broker failures are retried a few times
// with a fixed pause before the operation surfaces as failed.
const (
	DefaultPublishAttempts = 3
	DefaultPublishBackoff  = 2 * time.Second
)

// Producer persists notification intent and enqueues delivery work.
//
// Ordering is write-before-publish: the record exists before the task is
// visible to any consumer, so a queued task always resolves to a record. The
// converse gap (a pending record whose publish failed) is surfaced to the
// caller as ErrQueuePublishFailed rather than silently swallowed.
type Producer struct {
	store     Store
	publisher queue.Publisher
	policy    *retry.Policy
	log       *slog.Logger
}

// ProducerOption is a functional option for configuring a Producer.
type ProducerOption func(*Producer)

// WithPublishRetry overrides the publish retry policy.
func WithPublishRetry(policy *retry.Policy) ProducerOption {
	return func(p *Producer) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// WithProducerLogger sets the logger for the producer.
func WithProducerLogger(log *slog.Logger) ProducerOption {
	return func(p *Producer) {
		if log != nil {
			p.log = log
		}
	}
}

// NewProducer creates a new Producer.
func NewProducer(store Store, publisher queue.Publisher, opts ...ProducerOption) (*Producer, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if publisher == nil {
		return nil, ErrPublisherNil
	}

	policy, err := retry.New(DefaultPublishAttempts, DefaultPublishBackoff)
	if err != nil {
		return nil, err
	}

	p := &Producer{
		store:     store,
		publisher: publisher,
		policy:    policy,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Submit validates the channel, persists a pending record and publishes the
// delivery task. On success the new record id is returned.
//
// The channel check is defensive: the HTTP front end validates requests too,
// but nothing reaches the queue without passing this gate.
func (p *Producer) Submit(ctx context.Context, recipientID string, channel Channel, content string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	}()

	if !channel.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidChannelType, channel)
	}

	id, err := p.store.Create(ctx, recipientID, channel, content)
	if err != nil {
		return "", err
	}

	task := Task{
		ID:          id,
		RecipientID: recipientID,
		Channel:     channel,
		Content:     content,
	}
	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal delivery task: %w", err)
	}

	if err := p.policy.Do(ctx, func(ctx context.Context) error {
		return p.publisher.Publish(ctx, body)
	}); err != nil {
		metrics.QueueErrors.Inc()
		p.log.ErrorContext(ctx, "delivery task publish failed, record stays pending",
			slog.String("notification_id", id),
			slog.String("error", err.Error()))
		return "", errors.Join(ErrQueuePublishFailed, err)
	}

	p.log.InfoContext(ctx, "notification accepted",
		slog.String("notification_id", id),
		slog.String("type", string(channel)))

	return id, nil
}

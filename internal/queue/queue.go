// Package queue defines the broker-agnostic delivery queue contract and its
// implementations.
//
// The queue decouples the producer from the consumer with at-least-once
// semantics: a message redelivers if the consumer disconnects before
// acknowledging, or when the consumer explicitly requests redelivery.
// Consumers receive strictly one unacknowledged message at a time.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned when publishing to or consuming from a closed broker.
	ErrClosed = errors.New("queue: broker is closed")
)

// Publisher enqueues serialized delivery tasks under a durable delivery mode.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Consumer opens a stream of deliveries. The returned channel is closed when
// the context is cancelled or the broker shuts down. Each delivery must be
// settled with exactly one Ack or Nack call.
type Consumer interface {
	Consume(ctx context.Context) (<-chan Delivery, error)
}

// Delivery is a single in-flight message. While unsettled it is invisible to
// other consumers.
type Delivery interface {
	// Body returns the raw message payload.
	Body() []byte

	// Ack removes the message from the queue permanently.
	Ack() error

	// Nack rejects the message. With requeue the message becomes visible for
	// redelivery; without it the message is discarded.
	Nack(requeue bool) error
}

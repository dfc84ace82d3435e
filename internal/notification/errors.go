package notification

import "errors"

var (
	// ErrInvalidChannelType is returned when a submit request names a channel
	// outside the supported set. Rejected before any persistence happens.
	ErrInvalidChannelType = errors.New("invalid channel type")

	// ErrStoreUnavailable is returned when the record store cannot be reached.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrQueuePublishFailed is returned when publishing a delivery task fails
	// after the bounded retry budget is exhausted. The record stays pending.
	ErrQueuePublishFailed = errors.New("failed to publish delivery task")

	// ErrUnsupportedChannelType is returned when no sender is registered for
	// a channel. This is a permanent, non-retryable condition.
	ErrUnsupportedChannelType = errors.New("unsupported channel type")

	// ErrStoreNil is returned when a nil store is provided to a constructor.
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrPublisherNil is returned when a nil publisher is provided.
	ErrPublisherNil = errors.New("publisher cannot be nil")

	// ErrRegistryNil is returned when a nil sender registry is provided.
	ErrRegistryNil = errors.New("sender registry cannot be nil")
)

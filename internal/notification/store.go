package notification

import "context"

// Store handles notification record persistence and retrieval.
// The store exclusively owns record status; the delivery queue never
// mutates records.
type Store interface {
	// Create inserts a new record with status pending and returns its id.
	Create(ctx context.Context, recipientID string, channel Channel, content string) (string, error)

	// UpdateStatus sets the status for the given id. A missing id is a
	// no-op, not an error, to tolerate late updates from redelivered tasks.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ListByRecipient returns all records for a recipient ordered by
	// created_at descending. An empty slice is returned when none exist.
	ListByRecipient(ctx context.Context, recipientID string) ([]Record, error)
}

package notification

import "time"

// Channel identifies the transport a notification is delivered over.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in-app"
)

// Valid reports whether the channel is one of the supported transports.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

// Status represents the delivery lifecycle state of a notification.
// A record starts pending and transitions exactly once to a terminal value.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Record is the durable notification state owned by the record store.
type Record struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"user_id"`
	Channel     Channel   `json:"type"`
	Content     string    `json:"content"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task is the queue-resident snapshot of a record, serialized as the wire
// payload for a delivery attempt. Field names are fixed by the wire format.
type Task struct {
	ID          string  `json:"id"`
	RecipientID string  `json:"user_id"`
	Channel     Channel `json:"type"`
	Content     string  `json:"content"`
}

// Complete reports whether all fields required for dispatch are present.
func (t Task) Complete() bool {
	return t.ID != "" && t.RecipientID != "" && t.Channel != "" && t.Content != ""
}

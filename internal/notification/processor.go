package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/herald-io/herald/internal/metrics"
)

// Decision is the single terminal settlement for a processed message.
type Decision int

const (
	// DecisionAck settles the message permanently: it was either delivered to
	// a terminal status or discarded as a poison message.
	DecisionAck Decision = iota

	// DecisionRequeue rejects the message for redelivery after a transient
	// infrastructure failure.
	DecisionRequeue
)

// parseResult classifies an inbound message body before dispatch.
type parseResult int

const (
	parseOK parseResult = iota
	parseEmpty
	parseMalformed
	parseIncomplete
)

// Processor turns a raw queue message into a terminal ack/requeue decision.
//
// Poison messages (empty, malformed, incomplete) are acked so they never loop
// through redelivery. A sender returning false is a terminal business outcome
// and is also acked. Only infrastructure failures request redelivery.
type Processor struct {
	store    Store
	registry *Registry
	log      *slog.Logger
}

// ProcessorOption is a functional option for configuring a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the logger for the processor.
func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// NewProcessor creates a new Processor.
func NewProcessor(store Store, registry *Registry, opts ...ProcessorOption) (*Processor, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if registry == nil {
		return nil, ErrRegistryNil
	}

	p := &Processor{
		store:    store,
		registry: registry,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process handles one message body and returns its settlement decision.
func (p *Processor) Process(ctx context.Context, body []byte) Decision {
	task, res := parseTask(body)
	switch res {
	case parseEmpty:
		p.log.WarnContext(ctx, "received empty message body, discarding")
		return DecisionAck
	case parseMalformed:
		p.log.WarnContext(ctx, "received malformed message, discarding",
			slog.String("body", string(body)))
		return DecisionAck
	case parseIncomplete:
		p.log.WarnContext(ctx, "received incomplete delivery task, discarding",
			slog.String("body", string(body)))
		return DecisionAck
	}

	p.log.InfoContext(ctx, "processing notification",
		slog.String("notification_id", task.ID),
		slog.String("recipient_id", task.RecipientID),
		slog.String("type", string(task.Channel)))

	sender, err := p.registry.Resolve(task.Channel)
	if err != nil {
		// No sender will newly appear for this channel on redelivery, so the
		// task can never succeed. Record the terminal failure and discard
		// instead of requeueing forever.
		if errors.Is(err, ErrUnsupportedChannelType) {
			return p.reconcile(ctx, task, StatusFailed)
		}
		return DecisionRequeue
	}

	ok, err := sender.Send(ctx, task.RecipientID, task.Content)
	if err != nil {
		p.log.ErrorContext(ctx, "sender failed, requeueing",
			slog.String("notification_id", task.ID),
			slog.String("error", err.Error()))
		return DecisionRequeue
	}

	status := StatusFailed
	if ok {
		status = StatusDelivered
	}
	return p.reconcile(ctx, task, status)
}

// reconcile writes the terminal status and settles the message. A store
// failure here leaves the record untouched, so redelivery is safe.
func (p *Processor) reconcile(ctx context.Context, task Task, status Status) Decision {
	if err := p.store.UpdateStatus(ctx, task.ID, status); err != nil {
		p.log.ErrorContext(ctx, "status update failed, requeueing",
			slog.String("notification_id", task.ID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return DecisionRequeue
	}

	metrics.NotificationsSent.WithLabelValues(string(task.Channel), string(status)).Inc()

	if status == StatusDelivered {
		p.log.InfoContext(ctx, "notification delivered",
			slog.String("notification_id", task.ID))
	} else {
		p.log.ErrorContext(ctx, "notification delivery failed",
			slog.String("notification_id", task.ID))
	}
	return DecisionAck
}

func parseTask(body []byte) (Task, parseResult) {
	if len(body) == 0 {
		return Task{}, parseEmpty
	}

	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return Task{}, parseMalformed
	}

	if !task.Complete() {
		return Task{}, parseIncomplete
	}
	return task, parseOK
}

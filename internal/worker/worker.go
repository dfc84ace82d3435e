// Package worker runs the long-lived consumer loop of the delivery pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/herald-io/herald/internal/notification"
	"github.com/herald-io/herald/internal/queue"
)

var (
	// ErrConsumerNil is returned when a nil consumer is provided.
	ErrConsumerNil = errors.New("consumer cannot be nil")

	// ErrProcessorNil is returned when a nil processor is provided.
	ErrProcessorNil = errors.New("processor cannot be nil")
)

// Processor decides the settlement for one message body.
type Processor interface {
	Process(ctx context.Context, body []byte) notification.Decision
}

// Worker pulls deliveries one at a time and settles each with an ack or a
// requeue. Messages are processed strictly in dequeue order within a single
// worker instance; multiple instances interleave arbitrarily.
type Worker struct {
	consumer queue.Consumer
	proc     Processor
	id       uuid.UUID
	log      *slog.Logger

	processTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option is a functional option for configuring a Worker.
type Option func(*Worker)

// WithLogger sets the logger for the worker.
func WithLogger(log *slog.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// WithProcessTimeout bounds the processing time of a single message.
func WithProcessTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.processTimeout = d
		}
	}
}

// New creates a new Worker.
func New(consumer queue.Consumer, proc Processor, opts ...Option) (*Worker, error) {
	if consumer == nil {
		return nil, ErrConsumerNil
	}
	if proc == nil {
		return nil, ErrProcessorNil
	}

	w := &Worker{
		consumer:       consumer,
		proc:           proc,
		id:             uuid.New(),
		log:            slog.Default(),
		processTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins consuming in the background. Call Stop to shut down.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return fmt.Errorf("worker already started")
	}

	ctx, cancel := context.WithCancel(ctx)

	deliveries, err := w.consumer.Consume(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("open delivery stream: %w", err)
	}
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx, deliveries)

	w.log.Info("worker started", slog.String("worker_id", w.id.String()))
	return nil
}

// Stop cancels consumption and waits for the in-flight message to finish its
// ack or nack before returning.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return fmt.Errorf("worker not started")
	}
	cancel()

	w.log.Info("worker stopping, waiting for in-flight message",
		slog.String("worker_id", w.id.String()))
	w.wg.Wait()
	w.log.Info("worker stopped", slog.String("worker_id", w.id.String()))
	return nil
}

// Run starts the worker and returns a function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run(ctx context.Context, deliveries <-chan queue.Delivery) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(d)
		}
	}
}

// handle settles exactly one delivery. Processing runs under a fresh context
// so a shutdown does not abandon the message mid-flight.
func (w *Worker) handle(d queue.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("panic while processing message, requeueing",
				slog.String("worker_id", w.id.String()),
				slog.Any("panic", r))
			w.settle(d, notification.DecisionRequeue)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), w.processTimeout)
	defer cancel()

	w.settle(d, w.proc.Process(ctx, d.Body()))
}

func (w *Worker) settle(d queue.Delivery, decision notification.Decision) {
	var err error
	switch decision {
	case notification.DecisionRequeue:
		err = d.Nack(true)
	default:
		err = d.Ack()
	}
	if err != nil {
		w.log.Error("failed to settle message",
			slog.String("worker_id", w.id.String()),
			slog.String("error", err.Error()))
	}
}

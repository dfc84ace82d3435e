package queue

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process implementation of Publisher and Consumer.
// Suitable for development and testing.
//
// It mirrors the broker semantics the pipeline relies on: FIFO delivery, one
// in-flight message per consumer stream, redelivery on Nack(requeue) and on
// consumer cancellation with an unsettled message.
type MemoryBroker struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	wake     chan struct{}
}

// NewMemoryBroker creates an empty in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		wake: make(chan struct{}, 1),
	}
}

// Publish appends a message to the queue.
func (b *MemoryBroker) Publish(ctx context.Context, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	msg := make([]byte, len(body))
	copy(msg, body)
	b.messages = append(b.messages, msg)

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close rejects further publishes. Messages already queued remain consumable.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Len returns the number of visible (not in-flight) messages.
func (b *MemoryBroker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// Consume starts a delivery stream. The next message is only handed out once
// the previous one has been settled, giving prefetch=1 behavior per stream.
func (b *MemoryBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			body, ok := b.pop()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-b.wake:
					continue
				}
			}

			settled := make(chan bool, 1)
			d := &memoryDelivery{body: body, settled: settled}

			select {
			case out <- d:
			case <-ctx.Done():
				b.pushFront(body)
				return
			}

			select {
			case requeue := <-settled:
				if requeue {
					b.pushFront(body)
				}
			case <-ctx.Done():
				// Consumer went away mid-processing; the unsettled message
				// becomes visible again, like a broker redelivery.
				b.pushFront(body)
				return
			}
		}
	}()

	return out, nil
}

func (b *MemoryBroker) pop() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.messages) == 0 {
		return nil, false
	}
	msg := b.messages[0]
	b.messages = b.messages[1:]
	return msg, true
}

func (b *MemoryBroker) pushFront(body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append([][]byte{body}, b.messages...)

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

type memoryDelivery struct {
	body    []byte
	settled chan bool
	once    sync.Once
}

func (d *memoryDelivery) Body() []byte { return d.body }

func (d *memoryDelivery) Ack() error {
	d.once.Do(func() { d.settled <- false })
	return nil
}

func (d *memoryDelivery) Nack(requeue bool) error {
	d.once.Do(func() { d.settled <- requeue })
	return nil
}

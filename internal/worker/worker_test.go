package worker_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-io/herald/internal/notification"
	"github.com/herald-io/herald/internal/queue"
	"github.com/herald-io/herald/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSender is a sender with a fixed outcome.
type stubSender struct {
	ok bool
}

func (s stubSender) Send(ctx context.Context, recipientID, content string) (bool, error) {
	return s.ok, nil
}

// flakyStore fails a configurable number of leading UpdateStatus calls and
// counts terminal writes per id.
type flakyStore struct {
	notification.Store
	mu       sync.Mutex
	failures int
	writes   map[string]int
}

func newFlakyStore(inner notification.Store, failures int) *flakyStore {
	return &flakyStore{Store: inner, failures: failures, writes: make(map[string]int)}
}

func (s *flakyStore) UpdateStatus(ctx context.Context, id string, status notification.Status) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return notification.ErrStoreUnavailable
	}
	s.writes[id]++
	s.mu.Unlock()
	return s.Store.UpdateStatus(ctx, id, status)
}

func (s *flakyStore) writeCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[id]
}

// panicProcessor always panics, then flips to acking.
type panicProcessor struct {
	mu     sync.Mutex
	panics int
	calls  int
}

func (p *panicProcessor) Process(ctx context.Context, body []byte) notification.Decision {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.panics > 0 {
		p.panics--
		panic("boom")
	}
	return notification.DecisionAck
}

func newPipeline(t *testing.T, store notification.Store, sender notification.Sender) (*queue.MemoryBroker, *notification.Producer, *worker.Worker) {
	t.Helper()

	broker := queue.NewMemoryBroker()

	producer, err := notification.NewProducer(store, broker,
		notification.WithProducerLogger(discardLogger()))
	require.NoError(t, err)

	registry := notification.NewRegistry()
	registry.Register(notification.ChannelEmail, sender)

	proc, err := notification.NewProcessor(store, registry,
		notification.WithProcessorLogger(discardLogger()))
	require.NoError(t, err)

	w, err := worker.New(broker, proc, worker.WithLogger(discardLogger()))
	require.NoError(t, err)

	return broker, producer, w
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil consumer", func(t *testing.T) {
		t.Parallel()

		w, err := worker.New(nil, &panicProcessor{})
		assert.ErrorIs(t, err, worker.ErrConsumerNil)
		assert.Nil(t, w)
	})

	t.Run("nil processor", func(t *testing.T) {
		t.Parallel()

		w, err := worker.New(queue.NewMemoryBroker(), nil)
		assert.ErrorIs(t, err, worker.ErrProcessorNil)
		assert.Nil(t, w)
	})
}

func TestWorker_EndToEndDelivery(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStore()
	_, producer, w := newPipeline(t, store, stubSender{ok: true})

	id, err := producer.Submit(context.Background(), "42", notification.ChannelEmail, "hi")
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.Eventually(t, func() bool {
		rec, ok := store.Get(id)
		return ok && rec.Status == notification.StatusDelivered
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_SenderRejectionIsTerminal(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStore()
	broker, producer, w := newPipeline(t, store, stubSender{ok: false})

	id, err := producer.Submit(context.Background(), "42", notification.ChannelEmail, "hi")
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.Eventually(t, func() bool {
		rec, ok := store.Get(id)
		return ok && rec.Status == notification.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	// A failed business outcome is acked, not redelivered.
	assert.Eventually(t, func() bool { return broker.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWorker_RequeueOnStoreFailure(t *testing.T) {
	t.Parallel()

	mem := notification.NewMemoryStore()
	store := newFlakyStore(mem, 1)
	_, producer, w := newPipeline(t, store, stubSender{ok: true})

	id, err := producer.Submit(context.Background(), "42", notification.ChannelEmail, "hi")
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	// First delivery hits the store outage and is requeued; the second one
	// lands a terminal status exactly once.
	require.Eventually(t, func() bool {
		rec, ok := mem.Get(id)
		return ok && rec.Status == notification.StatusDelivered
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, store.writeCount(id))
}

func TestWorker_PoisonMessagesDoNotCrashLoop(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStore()
	broker, producer, w := newPipeline(t, store, stubSender{ok: true})

	ctx := context.Background()
	require.NoError(t, broker.Publish(ctx, nil))
	require.NoError(t, broker.Publish(ctx, []byte("{not json")))
	require.NoError(t, broker.Publish(ctx, []byte(`{"id":"","user_id":"42","type":"email","content":"hi"}`)))

	// A valid message behind the poison ones must still get through.
	id, err := producer.Submit(ctx, "42", notification.ChannelEmail, "hi")
	require.NoError(t, err)

	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	require.Eventually(t, func() bool {
		rec, ok := store.Get(id)
		return ok && rec.Status == notification.StatusDelivered
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return broker.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWorker_PanicRequeuesMessage(t *testing.T) {
	t.Parallel()

	broker := queue.NewMemoryBroker()
	proc := &panicProcessor{panics: 1}

	w, err := worker.New(broker, proc, worker.WithLogger(discardLogger()))
	require.NoError(t, err)

	require.NoError(t, broker.Publish(context.Background(), []byte("fragile")))
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	// The panicking first attempt is requeued and the redelivery is acked.
	require.Eventually(t, func() bool {
		proc.mu.Lock()
		defer proc.mu.Unlock()
		return proc.calls == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return broker.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWorker_StartStop(t *testing.T) {
	t.Parallel()

	broker := queue.NewMemoryBroker()
	w, err := worker.New(broker, &panicProcessor{}, worker.WithLogger(discardLogger()))
	require.NoError(t, err)

	assert.Error(t, w.Stop(), "stop before start must fail")

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "double start must fail")

	require.NoError(t, w.Stop())
	assert.Error(t, w.Stop(), "double stop must fail")
}

package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("capture queue closed")

// Appender receives normalized entries. It returns the new entry count.
type Appender interface {
	AppendEntry(e Entry) (int, error)
}

// AppendFunc is called after an entry was appended, with its 1-based
// sequence number.
type AppendFunc func(seq int, e Entry)

// Queue processes captured exchanges one at a time, in the order they were
// enqueued. A job's body fetch, normalization and append finish before the
// next job starts.
type Queue struct {
	store       Appender
	jobs        chan Exchange
	log         zerolog.Logger
	onAppend    AppendFunc
	now         func() time.Time
	bodyTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithBuffer sets how many exchanges may wait before Enqueue blocks.
func WithBuffer(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.jobs = make(chan Exchange, n)
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(l zerolog.Logger) QueueOption {
	return func(q *Queue) { q.log = l }
}

// WithAppendHook registers fn to run after each successful append.
func WithAppendHook(fn AppendFunc) QueueOption {
	return func(q *Queue) { q.onAppend = fn }
}

// WithBodyTimeout bounds each response body fetch.
func WithBodyTimeout(d time.Duration) QueueOption {
	return func(q *Queue) { q.bodyTimeout = d }
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// NewQueue creates a queue feeding store and starts its worker. ctx bounds
// body fetches only; the worker runs until Close has flushed pending jobs.
func NewQueue(ctx context.Context, store Appender, opts ...QueueOption) *Queue {
	q := &Queue{
		store:       store,
		jobs:        make(chan Exchange, 256),
		log:         zerolog.Nop(),
		now:         time.Now,
		bodyTimeout: 5 * time.Second,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	go q.run(ctx)
	return q
}

// Enqueue schedules ex for processing. It blocks while the buffer is full.
func (q *Queue) Enqueue(ex Exchange) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.jobs <- ex
	return nil
}

// Close stops accepting exchanges and waits until every job queued before
// the call has been processed.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)
	for ex := range q.jobs {
		q.process(ctx, ex)
	}
}

func (q *Queue) process(ctx context.Context, ex Exchange) {
	fetchCtx, cancel := context.WithTimeout(ctx, q.bodyTimeout)
	body, err := ex.FetchBody(fetchCtx)
	cancel()
	if err != nil {
		q.log.Warn().Err(err).Str("url", ex.URL).Msg("response body unavailable")
		body = ""
	}

	capturedAt := ex.StartedAt
	if capturedAt.IsZero() {
		capturedAt = q.now()
	}
	entry := Normalize(ex, body, capturedAt)

	count, err := q.store.AppendEntry(entry)
	if err != nil {
		q.log.Error().Err(err).Str("method", entry.Method).Str("url", entry.URL).Msg("append entry failed")
		return
	}
	entry.Seq = count
	q.log.Debug().Int("seq", count).Str("method", entry.Method).Str("path", entry.Path).Msg("captured")
	if q.onAppend != nil {
		q.onAppend(count, entry)
	}
}

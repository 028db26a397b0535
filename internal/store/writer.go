package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/pocket/internal/model"
)

// Entry is one key/value pair of a batch enqueue.
type Entry struct {
	Key   string
	Value any
}

// Writer persists snapshots to a Store asynchronously with one queue slot per
// key. A newer snapshot for a key replaces any pending one and cancels the
// save in flight, so the store always converges on the most recently
// enqueued value.
type Writer struct {
	store    Store
	log      zerolog.Logger
	attempts int
	backoff  time.Duration

	mu     sync.Mutex
	slots  map[string]*slot
	failed map[string]error
}

type slot struct {
	pending    []byte
	hasPending bool
	running    bool
	cancel     context.CancelFunc
	idle       chan struct{}
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger used for retries and failures.
func WithLogger(l zerolog.Logger) WriterOption {
	return func(w *Writer) { w.log = l }
}

// WithRetry sets the number of save attempts and the base backoff between them.
func WithRetry(attempts int, backoff time.Duration) WriterOption {
	return func(w *Writer) {
		if attempts > 0 {
			w.attempts = attempts
		}
		w.backoff = backoff
	}
}

// NewWriter creates a Writer over s.
func NewWriter(s Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:    s,
		log:      zerolog.Nop(),
		attempts: 3,
		backoff:  50 * time.Millisecond,
		slots:    make(map[string]*slot),
		failed:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue snapshots v as JSON now and schedules it to be saved under key.
// Only marshal errors are returned; save failures surface through Flush and
// Unsaved.
func (w *Writer) Enqueue(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enqueueLocked(key, data)
	return nil
}

// EnqueueMany snapshots every entry before scheduling any of them, so either
// all of the batch is queued or none is.
func (w *Writer) EnqueueMany(entries ...Entry) error {
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Key, err)
		}
		encoded[i] = data
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range entries {
		w.enqueueLocked(e.Key, encoded[i])
	}
	return nil
}

func (w *Writer) enqueueLocked(key string, data []byte) {
	s, ok := w.slots[key]
	if !ok {
		s = &slot{}
		w.slots[key] = s
	}
	s.pending = data
	s.hasPending = true
	if s.cancel != nil {
		s.cancel()
	}
	if !s.running {
		s.running = true
		s.idle = make(chan struct{})
		go w.drain(key, s)
	}
}

func (w *Writer) drain(key string, s *slot) {
	for {
		w.mu.Lock()
		if !s.hasPending {
			s.running = false
			s.cancel = nil
			close(s.idle)
			w.mu.Unlock()
			return
		}
		data := s.pending
		s.pending = nil
		s.hasPending = false
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		w.mu.Unlock()

		err := w.save(ctx, key, data)
		cancel()

		w.mu.Lock()
		s.cancel = nil
		switch {
		case err == nil:
			delete(w.failed, key)
		case s.hasPending:
			// superseded; the newer snapshot is saved next
		default:
			w.failed[key] = err
			w.log.Error().Err(err).Str("key", key).Msg("save failed, state kept in memory")
		}
		w.mu.Unlock()
	}
}

func (w *Writer) save(ctx context.Context, key string, data []byte) error {
	var err error
	for attempt := 1; attempt <= w.attempts; attempt++ {
		if err = w.store.Save(ctx, key, data); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == w.attempts {
			break
		}
		w.log.Warn().Err(err).Str("key", key).Int("attempt", attempt).Msg("save failed, retrying")
		select {
		case <-time.After(w.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Flush waits until every key has drained, then returns a PersistenceError
// for each key whose latest save failed.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	idle := make(map[string]chan struct{}, len(w.slots))
	for key, s := range w.slots {
		if s.running {
			idle[key] = s.idle
		}
	}
	w.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for key, ch := range idle {
		g.Go(func() error {
			select {
			case <-ch:
				return nil
			case <-gctx.Done():
				return fmt.Errorf("flushing %s: %w", key, gctx.Err())
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return w.Err()
}

// Err joins the outstanding save failures, one PersistenceError per key.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]string, 0, len(w.failed))
	for k := range w.failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, model.PersistenceError{Key: k, Err: w.failed[k]})
	}
	return errors.Join(errs...)
}

// Unsaved lists the keys whose most recent save failed.
func (w *Writer) Unsaved() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]string, 0, len(w.failed))
	for k := range w.failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

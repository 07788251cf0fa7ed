// Package dedupe tracks snapshot delivery keys for at-most-once ingestion.
//
// Upstream feeds redeliver on retry; ingesting the same snapshot twice
// would not corrupt scores (ingestion is append-only and recompute is
// idempotent) but would inflate the time series, so deliveries are deduped
// at the ingress boundary.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen delivery keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key from the seen set, allowing a retry. Use when
	// a delivery was marked seen but failed to enqueue (backpressure).
	Unrecord(ctx context.Context, key string)

	Size() int64
}

const defaultMaxSize = 50_000

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of keys kept in memory. Zero or negative
// means unbounded.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}

// inMemoryDeduper is a bounded set with FIFO eviction. Oldest deliveries
// are forgotten first; by the time a key falls out of the window its
// snapshot is already persisted and a late redelivery is harmless.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // ring of keys in arrival order
	head    int      // next eviction slot when full
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize > 0 {
		if len(d.order) < d.maxSize {
			d.order = append(d.order, key)
		} else {
			// Full: evict the oldest key and reuse its slot.
			evicted := d.order[d.head]
			delete(d.seen, evicted)
			d.order[d.head] = key
			d.head = (d.head + 1) % d.maxSize
		}
	}
	d.seen[key] = struct{}{}
	d.size.Store(int64(len(d.seen)))
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	d.size.Store(int64(len(d.seen)))
	// The stale ring slot is left in place; eviction tolerates keys that
	// are no longer in the set.
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

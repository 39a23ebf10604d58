// Package snapshot owns the published snapshot: it refreshes it from the
// store, swaps it in atomically and tells subscribers about it.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ramo-hub-backend/pkg/hydrator"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/metrics"
	"ramo-hub-backend/pkg/models"
)

// Refresh policies
const (
	// PolicyGeneration drops a result when a refresh started later has
	// already been published
	PolicyGeneration = "generation"
	// PolicyLastCompleted publishes every result in completion order
	PolicyLastCompleted = "last-completed"
)

// Source produces one refresh's worth of raw tables
type Source interface {
	FetchAll(ctx context.Context) hydrator.RawTables
}

// Options configures a Hub
type Options struct {
	Policy  string
	Timeout time.Duration
	Logger  logger.Logger
	Metrics *metrics.Recorder
	// Now stamps FetchedAt; defaults to time.Now
	Now func() time.Time
}

// Hub holds the current snapshot. Reads never block.
type Hub struct {
	source  Source
	policy  string
	timeout time.Duration
	log     logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	current    atomic.Pointer[models.Snapshot]
	generation atomic.Uint64
	loading    atomic.Int32

	// mu serializes publishing and guards subs
	mu     sync.Mutex
	subs   map[int]chan *models.Snapshot
	nextID int
}

// NewHub starts with an empty snapshot (generation 0)
func NewHub(source Source, opts Options) *Hub {
	if opts.Policy == "" {
		opts.Policy = PolicyGeneration
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &Hub{
		source:  source,
		policy:  opts.Policy,
		timeout: opts.Timeout,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
		subs:    make(map[int]chan *models.Snapshot),
	}
	h.current.Store(models.EmptySnapshot())
	return h
}

// Current is the published snapshot; never nil
func (h *Hub) Current() *models.Snapshot {
	return h.current.Load()
}

// Loading reports whether a non-quiet refresh is in flight
func (h *Hub) Loading() bool {
	return h.loading.Load() > 0
}

// Refresh re-reads every table, hydrates and publishes the result. Quiet
// refreshes leave the loading flag alone. The returned snapshot is the one
// visible once Refresh returns, which under PolicyGeneration may be newer
// than the one this call built.
func (h *Hub) Refresh(ctx context.Context, quiet bool) (*models.Snapshot, error) {
	gen := h.generation.Add(1)
	if !quiet {
		h.loading.Add(1)
		defer h.loading.Add(-1)
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	raw := h.source.FetchAll(ctx)
	if err := ctx.Err(); err != nil {
		h.metrics.ObserveRefresh(time.Since(start), metrics.OutcomeCanceled)
		h.log.Warn("Refresh canceled", gen, err)
		return h.Current(), err
	}

	snap := hydrator.Hydrate(raw)
	snap.Generation = gen
	snap.FetchedAt = h.now()

	published, ok := h.publish(snap)
	outcome := metrics.OutcomePublished
	if !ok {
		outcome = metrics.OutcomeStale
		h.log.Debug("Dropped stale refresh", gen, published.Generation)
	}
	h.metrics.ObserveRefresh(time.Since(start), outcome)
	return published, nil
}

func (h *Hub) publish(snap *models.Snapshot) (*models.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.policy == PolicyGeneration {
		if cur := h.current.Load(); cur.Generation > snap.Generation {
			return cur, false
		}
	}
	h.current.Store(snap)
	h.metrics.Published(snap.Generation)
	for _, ch := range h.subs {
		// latest wins: replace an unread snapshot
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	return snap, true
}

// Subscribe returns a channel that receives every published snapshot. A slow
// reader only ever sees the latest one. Call the returned func to stop.
func (h *Hub) Subscribe() (<-chan *models.Snapshot, func()) {
	ch := make(chan *models.Snapshot, 1)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Run refreshes every interval until ctx ends. The first refresh is loud so
// the console shows a loading state on startup.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	quiet := false
	for {
		if _, err := h.Refresh(ctx, quiet); err != nil && !errors.Is(err, context.Canceled) {
			h.log.Warn("Scheduled refresh failed", err)
		}
		quiet = true
		if interval <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

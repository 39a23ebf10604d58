package snapshot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/hydrator"
	"ramo-hub-backend/pkg/metrics"
	"ramo-hub-backend/pkg/models"
)

// gatedSource returns one chapter named after the call number. Calls listed
// in gates block until their gate is closed.
type gatedSource struct {
	mu      sync.Mutex
	calls   int
	gates   map[int]chan struct{}
	started chan int
}

func (s *gatedSource) FetchAll(ctx context.Context) hydrator.RawTables {
	s.mu.Lock()
	s.calls++
	n := s.calls
	gate := s.gates[n]
	s.mu.Unlock()

	if s.started != nil {
		s.started <- n
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	return hydrator.RawTables{
		Chapters: []models.ChapterRow{{ID: int64(n), Name: "call"}},
	}
}

func TestHub_StartsEmpty(t *testing.T) {
	hub := NewHub(&gatedSource{}, Options{})
	snap := hub.Current()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(0), snap.Generation)
	assert.Empty(t, snap.Chapters)
	assert.False(t, hub.Loading())
}

func TestHub_RefreshPublishesWholeSnapshot(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	hub := NewHub(&gatedSource{}, Options{Now: func() time.Time { return fixed }})

	before := hub.Current()
	snap, err := hub.Refresh(context.Background(), false)
	require.NoError(t, err)

	assert.Same(t, snap, hub.Current())
	assert.NotSame(t, before, snap)
	assert.Empty(t, before.Chapters, "previous snapshot is untouched")
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, fixed, snap.FetchedAt)
	require.NotNil(t, snap.Chapter(1))
}

func TestHub_FetchErrorsKeepRefreshing(t *testing.T) {
	store := &failingStore{}
	hub := NewHub(hydrator.NewFetcher(store, nil, nil), Options{})

	snap, err := hub.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, snap.Chapters)
	assert.Len(t, snap.FetchErrors, 13)
}

func TestHub_GenerationPolicyDropsStaleResult(t *testing.T) {
	src := &gatedSource{gates: map[int]chan struct{}{1: make(chan struct{})}, started: make(chan int, 2)}
	rec := metrics.New()
	hub := NewHub(src, Options{Policy: PolicyGeneration, Metrics: rec})

	var slow *models.Snapshot
	done := make(chan struct{})
	go func() {
		defer close(done)
		slow, _ = hub.Refresh(context.Background(), true)
	}()
	require.Equal(t, 1, <-src.started)

	fast, err := hub.Refresh(context.Background(), true)
	require.NoError(t, err)
	<-src.started
	assert.Equal(t, uint64(2), fast.Generation)

	close(src.gates[1])
	<-done

	assert.Same(t, fast, hub.Current())
	assert.Same(t, fast, slow, "stale caller sees the newer snapshot")
	expected := `
# HELP ramohub_refreshes_total Completed refreshes by outcome.
# TYPE ramohub_refreshes_total counter
ramohub_refreshes_total{outcome="published"} 1
ramohub_refreshes_total{outcome="stale"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "ramohub_refreshes_total"))
}

func TestHub_LastCompletedPolicyPublishesEverything(t *testing.T) {
	src := &gatedSource{gates: map[int]chan struct{}{1: make(chan struct{})}, started: make(chan int, 2)}
	hub := NewHub(src, Options{Policy: PolicyLastCompleted})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = hub.Refresh(context.Background(), true)
	}()
	<-src.started

	_, err := hub.Refresh(context.Background(), true)
	require.NoError(t, err)
	<-src.started

	close(src.gates[1])
	<-done

	assert.Equal(t, uint64(1), hub.Current().Generation)
}

func TestHub_LoadingFlag(t *testing.T) {
	src := &gatedSource{
		gates:   map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})},
		started: make(chan int, 2),
	}
	hub := NewHub(src, Options{})

	done := make(chan struct{})
	go func() {
		_, _ = hub.Refresh(context.Background(), true)
		done <- struct{}{}
	}()
	<-src.started
	assert.False(t, hub.Loading(), "quiet refresh does not raise the flag")

	go func() {
		_, _ = hub.Refresh(context.Background(), false)
		done <- struct{}{}
	}()
	<-src.started
	assert.True(t, hub.Loading())

	close(src.gates[1])
	close(src.gates[2])
	<-done
	<-done
	assert.False(t, hub.Loading())
}

func TestHub_CanceledRefreshKeepsSnapshot(t *testing.T) {
	src := &gatedSource{gates: map[int]chan struct{}{1: make(chan struct{})}}
	hub := NewHub(src, Options{Timeout: 10 * time.Millisecond})

	before := hub.Current()
	snap, err := hub.Refresh(context.Background(), false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Same(t, before, snap)
	assert.Same(t, before, hub.Current())
	assert.False(t, hub.Loading())
}

func TestHub_Subscribers(t *testing.T) {
	hub := NewHub(&gatedSource{}, Options{})
	ch, stop := hub.Subscribe()

	first, err := hub.Refresh(context.Background(), true)
	require.NoError(t, err)
	second, err := hub.Refresh(context.Background(), true)
	require.NoError(t, err)

	// the unread first snapshot was replaced
	got := <-ch
	assert.Same(t, second, got)
	assert.NotSame(t, first, got)

	stop()
	stop()
	_, open := <-ch
	assert.False(t, open)

	_, err = hub.Refresh(context.Background(), true)
	assert.NoError(t, err)
}

func TestHub_ConcurrentReaders(t *testing.T) {
	hub := NewHub(&gatedSource{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				snap := hub.Current()
				if snap.Generation > 0 {
					assert.NotNil(t, snap.Chapter(int64(snap.Generation)))
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		_, err := hub.Refresh(ctx, true)
		require.NoError(t, err)
	}
	cancel()
	wg.Wait()
}

type failingStore struct{ database.Store }

func (failingStore) Select(context.Context, database.Table, database.Query, interface{}) error {
	return errors.New("offline")
}

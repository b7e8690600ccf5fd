package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePruneStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakePruneStore) DeleteLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func (f *fakePruneStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPruner_Prune(t *testing.T) {
	store := &fakePruneStore{deleted: 4}
	p := NewPruner(store, discardLogger(), 48*time.Hour, time.Hour)

	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	assert.Equal(t, int64(4), p.Prune(context.Background()))
	assert.Equal(t, []time.Time{now.Add(-48 * time.Hour)}, store.cutoffs)
}

func TestPruner_PruneError(t *testing.T) {
	store := &fakePruneStore{err: errors.New("database is down")}
	p := NewPruner(store, discardLogger(), time.Hour, time.Hour)

	assert.Zero(t, p.Prune(context.Background()))
}

func TestPruner_StartAndStop(t *testing.T) {
	store := &fakePruneStore{}
	p := NewPruner(store, discardLogger(), time.Hour, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls() >= 2 }, time.Second, 5*time.Millisecond)

	p.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}

func TestPruner_StopsOnContextCancel(t *testing.T) {
	p := NewPruner(&fakePruneStore{}, discardLogger(), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}

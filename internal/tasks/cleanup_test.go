package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPurgeStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (s *recordingPurgeStore) DeleteCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return 2, s.err
}

func (s *recordingPurgeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

func TestPurgeOnceCutoff(t *testing.T) {
	store := &recordingPurgeStore{}
	p := NewPurger(store, time.Minute)
	p.Now = func() time.Time { return now }

	n, err := p.PurgeOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), store.cutoffs[0])
}

func TestPurgeOnceError(t *testing.T) {
	store := &recordingPurgeStore{err: errors.New("connection reset")}
	p := NewPurger(store, time.Minute)

	_, err := p.PurgeOnce(context.Background())
	assert.Error(t, err)
}

func TestPurgerRunStopsOnCancel(t *testing.T) {
	store := &recordingPurgeStore{}
	p := NewPurger(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.calls() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purger did not stop after cancel")
	}
}

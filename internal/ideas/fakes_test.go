package ideas

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"idea-tasks-backend/internal/tasks"
)

type llmCall struct {
	system string
	user   string
}

// scriptedLLM answers with the queued replies in order.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []llmCall
}

func (l *scriptedLLM) Generate(_ context.Context, system, user string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, llmCall{system, user})
	if l.err != nil {
		return "", l.err
	}
	if len(l.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	r := l.replies[0]
	l.replies = l.replies[1:]
	return r, nil
}

// gatedLLM holds every call until want calls have arrived, so concurrent
// callers all get past their reads before anyone writes.
type gatedLLM struct {
	reply   string
	want    int
	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func newGatedLLM(reply string, want int) *gatedLLM {
	return &gatedLLM{reply: reply, want: want, release: make(chan struct{})}
}

func (l *gatedLLM) Generate(ctx context.Context, _, _ string) (string, error) {
	l.mu.Lock()
	l.arrived++
	if l.arrived == l.want {
		close(l.release)
	}
	l.mu.Unlock()

	select {
	case <-l.release:
		return l.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type memStore struct {
	mu        sync.Mutex
	ideas     []Idea
	tasks     []tasks.Task
	pending   map[uuid.UUID]PendingDecomposition
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{pending: map[uuid.UUID]PendingDecomposition{}}
}

func (s *memStore) CreateIdeaWithTasks(_ context.Context, idea Idea, list []tasks.Task, consume uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if err := s.consumeLocked(idea.UserID, consume); err != nil {
		return err
	}
	s.ideas = append(s.ideas, idea)
	s.tasks = append(s.tasks, list...)
	return nil
}

func (s *memStore) ListIdeas(_ context.Context, userID uuid.UUID) ([]Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Idea
	for i := len(s.ideas) - 1; i >= 0; i-- {
		if s.ideas[i].UserID == userID {
			out = append(out, s.ideas[i])
		}
	}
	return out, nil
}

func (s *memStore) SavePending(_ context.Context, p PendingDecomposition, replaces uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.consumeLocked(p.UserID, replaces); err != nil {
		return err
	}
	s.pending[p.ID] = p
	return nil
}

func (s *memStore) consumeLocked(userID, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	p, ok := s.pending[id]
	if !ok || p.UserID != userID {
		return ErrPendingNotFound
	}
	delete(s.pending, id)
	return nil
}

func (s *memStore) GetPending(_ context.Context, userID, id uuid.UUID) (PendingDecomposition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok || p.UserID != userID {
		return PendingDecomposition{}, ErrPendingNotFound
	}
	return p, nil
}

func (s *memStore) counts() (ideas, taskRows, pending int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ideas), len(s.tasks), len(s.pending)
}

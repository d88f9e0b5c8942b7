package extract

import (
	"context"
	"errors"
	"sync"

	"github.com/dgallion1/lexgest/internal/legal"
)

// scripted replays canned replies in order, repeating the last one.
type scripted struct {
	model   string
	mu      sync.Mutex
	replies []reply
	reqs    []Request
}

type reply struct {
	text string
	err  error
}

func (s *scripted) Model() string { return s.model }

func (s *scripted) Complete(_ context.Context, req Request) (Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if len(s.replies) == 0 {
		return Completion{}, errors.New("no reply scripted")
	}
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	if r.err != nil {
		return Completion{}, r.err
	}
	return Completion{Text: r.text, InputTokens: 10, OutputTokens: 5}, nil
}

func (s *scripted) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]legal.BatchResult
}

func newMemCache() *memCache { return &memCache{data: make(map[string]legal.BatchResult)} }

func (m *memCache) Get(_ context.Context, key string) (legal.BatchResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[key]
	return r, ok, nil
}

func (m *memCache) Put(_ context.Context, key string, res legal.BatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = res
	return nil
}

package infra

import (
	"context"
	"sync"

	"semaforo/sema/domain"
)

type Counters struct {
	Released int64
	Acquired int64
	Timeout  int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para o host standalone e para desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu     sync.Mutex
	total  Counters
	byName map[string]Counters

	trackNames bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackNames(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackNames = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byName: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.OpEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bump := func(c *Counters) {
		switch {
		case ev.Op == domain.OpRelease:
			c.Released++
		case ev.Acquired:
			c.Acquired++
		default:
			c.Timeout++
		}
	}

	bump(&s.total)
	if s.trackNames {
		name := string(ev.Name)
		c := s.byName[name]
		bump(&c)
		s.byName[name] = c
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByName() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byName))
	for k, v := range s.byName {
		out[k] = v
	}
	return out
}

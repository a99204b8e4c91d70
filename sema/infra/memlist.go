package infra

import (
	"context"
	"sync"
	"time"

	"semaforo/sema/domain"
)

// MemoryListStore implementa domain.ListStore em memória, com as mesmas
// garantias de atomicidade exigidas do store externo: push atômico e
// cada entrada entregue a no máximo um BlockingPop.
//
// É o substituto do store real na execução standalone/debug e nos
// testes. Não persiste nada e não serve para coordenar processos
// distintos — para isso existe o RedisListStore.
type MemoryListStore struct {
	mu           sync.Mutex
	lists        map[string]*memList
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type memList struct {
	items [][]byte
	// waiters em ordem de chegada; cada canal tem buffer 1 e recebe no
	// máximo um valor na vida.
	waiters  []chan []byte
	lastSeen time.Time
}

type MemoryListOption func(*MemoryListStore)

func WithIdleTTL(d time.Duration) MemoryListOption {
	return func(s *MemoryListStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) MemoryListOption {
	return func(s *MemoryListStore) { s.cleanupEvery = d }
}

func NewMemoryListStore(opts ...MemoryListOption) *MemoryListStore {
	s := &MemoryListStore{
		lists:        make(map[string]*memList),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// get cria a lista se preciso; chamar com s.mu travado.
func (s *MemoryListStore) get(list string) *memList {
	l, ok := s.lists[list]
	if !ok {
		l = &memList{}
		s.lists[list] = l
	}
	l.lastSeen = time.Now()
	return l
}

// Push entrega direto para o waiter mais antigo, se houver; senão
// enfileira. Nunca bloqueia.
func (s *MemoryListStore) Push(_ context.Context, list string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.get(list)
	if len(l.waiters) > 0 {
		w := l.waiters[0]
		l.waiters = l.waiters[1:]
		w <- value
		return nil
	}
	l.items = append(l.items, value)
	return nil
}

func (s *MemoryListStore) BlockingPop(ctx context.Context, list string, wait time.Duration) ([]byte, error) {
	s.mu.Lock()
	if wait <= 0 {
		// poll: não cria a lista só para constatar que está vazia
		l, ok := s.lists[list]
		if !ok || len(l.items) == 0 {
			s.mu.Unlock()
			return nil, domain.ErrTimeout
		}
		l.lastSeen = time.Now()
		v := l.items[0]
		l.items = l.items[1:]
		s.mu.Unlock()
		return v, nil
	}

	l := s.get(list)
	if len(l.items) > 0 {
		v := l.items[0]
		l.items = l.items[1:]
		s.mu.Unlock()
		return v, nil
	}

	w := make(chan []byte, 1)
	l.waiters = append(l.waiters, w)
	s.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case v := <-w:
		return v, nil
	case <-timer.C:
		s.abandon(list, w)
		return nil, domain.ErrTimeout
	case <-ctx.Done():
		s.abandon(list, w)
		return nil, ctx.Err()
	}
}

// abandon tira o waiter da fila. Se um Push já tinha entregado o valor
// antes da desistência, a vaga volta para a frente da lista — nenhum
// release pode se perder.
func (s *MemoryListStore) abandon(list string, w chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[list]
	if ok {
		for i, c := range l.waiters {
			if c == w {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				return
			}
		}
	}

	select {
	case v := <-w:
		if !ok {
			l = &memList{}
			s.lists[list] = l
		}
		l.lastSeen = time.Now()
		if len(l.waiters) > 0 {
			// tem gente esperando: repassa em vez de enfileirar
			next := l.waiters[0]
			l.waiters = l.waiters[1:]
			next <- v
			return
		}
		l.items = append([][]byte{v}, l.items...)
	default:
	}
}

// Cleanup remove listas vazias e sem waiters paradas há mais que idleTTL.
func (s *MemoryListStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, l := range s.lists {
		if len(l.items) == 0 && len(l.waiters) == 0 && l.lastSeen.Before(cutoff) {
			delete(s.lists, name)
		}
	}
}

// Len devolve quantas vagas a lista tem agora. Útil em testes e no
// endpoint de inspeção do host standalone.
func (s *MemoryListStore) Len(list string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.lists[list]; ok {
		return len(l.items)
	}
	return 0
}

// DoneContext é o mínimo necessário para aceitar context.Context sem
// acoplar o janitor a um contexto específico.
type DoneContext interface {
	Done() <-chan struct{}
}

// StartJanitor inicia uma goroutine que limpa listas inativas
// periodicamente. Pare cancelando o contexto.
func (s *MemoryListStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

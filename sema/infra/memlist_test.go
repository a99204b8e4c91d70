package infra

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"semaforo/sema/domain"
)

func TestMemoryListStore_ReleaseThenAcquireSucceeds(t *testing.T) {
	s := NewMemoryListStore()

	if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	start := time.Now()
	v, err := s.BlockingPop(context.Background(), "s", 1*time.Second)
	if err != nil {
		t.Fatalf("expected immediate acquire, got %v", err)
	}
	if string(v) != "1" {
		t.Fatalf("expected pushed payload, got %q", v)
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatalf("acquire should not have waited, took %s", time.Since(start))
	}
}

func TestMemoryListStore_AcquireWithoutReleaseTimesOut(t *testing.T) {
	s := NewMemoryListStore()

	start := time.Now()
	_, err := s.BlockingPop(context.Background(), "s", 100*time.Millisecond)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("timed out too early: %s", elapsed)
	}

	// o timeout não pode ter consumido nada: release+acquire seguem funcionando
	if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	if _, err := s.BlockingPop(context.Background(), "s", 1*time.Second); err != nil {
		t.Fatalf("expected acquire after release to succeed, got %v", err)
	}
}

func TestMemoryListStore_NonpositiveWaitIsANonBlockingPoll(t *testing.T) {
	s := NewMemoryListStore()

	start := time.Now()
	_, err := s.BlockingPop(context.Background(), "s", 0)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("poll should return immediately, took %s", time.Since(start))
	}

	if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	if _, err := s.BlockingPop(context.Background(), "s", 0); err != nil {
		t.Fatalf("expected poll to succeed with a permit available, got %v", err)
	}
}

func TestMemoryListStore_ThreePermitsServeExactlyThreeAcquires(t *testing.T) {
	s := NewMemoryListStore()

	for i := 0; i < 3; i++ {
		if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
			t.Fatalf("unexpected push error: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.BlockingPop(context.Background(), "s", 1*time.Second)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("expected all 3 acquires to succeed, got %v", err)
		}
	}

	// a 4ª, sem vaga, expira na hora
	if _, err := s.BlockingPop(context.Background(), "s", 0); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected 4th acquire to time out, got %v", err)
	}
}

func TestMemoryListStore_SinglePermitWakesExactlyOneWaiter(t *testing.T) {
	s := NewMemoryListStore()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.BlockingPop(context.Background(), "s", 500*time.Millisecond)
			errs <- err
		}()
	}

	// dá tempo dos dois entrarem na fila de waiters antes do release
	time.Sleep(100 * time.Millisecond)
	if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	wg.Wait()
	close(errs)

	acquired, timedOut := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			acquired++
		case errors.Is(err, domain.ErrTimeout):
			timedOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if acquired != 1 || timedOut != 1 {
		t.Fatalf("expected exactly one winner, got acquired=%d timedOut=%d", acquired, timedOut)
	}
}

func TestMemoryListStore_CancelledAcquireReturnsCtxErr(t *testing.T) {
	s := NewMemoryListStore()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := s.BlockingPop(ctx, "s", 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 1*time.Second {
		t.Fatalf("cancel should have unblocked quickly, took %s", time.Since(start))
	}
}

func TestMemoryListStore_AbandonedDeliveryGoesBackToTheList(t *testing.T) {
	s := NewMemoryListStore()

	// monta a corrida na mão: waiter registrado, Push entrega, e só
	// então o waiter desiste
	w := make(chan []byte, 1)
	s.mu.Lock()
	l := s.get("s")
	l.waiters = append(l.waiters, w)
	s.mu.Unlock()

	if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	s.abandon("s", w)

	if got := s.Len("s"); got != 1 {
		t.Fatalf("expected the delivered permit back on the list, Len=%d", got)
	}
	if _, err := s.BlockingPop(context.Background(), "s", 0); err != nil {
		t.Fatalf("expected the recovered permit to be acquirable, got %v", err)
	}
}

func TestMemoryListStore_CleanupRemovesIdleEmptyLists(t *testing.T) {
	s := NewMemoryListStore(WithIdleTTL(2*time.Millisecond), WithCleanupEvery(0))

	if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	if _, err := s.BlockingPop(context.Background(), "s", 0); err != nil {
		t.Fatalf("unexpected pop error: %v", err)
	}

	time.Sleep(4 * time.Millisecond)
	s.Cleanup()

	s.mu.Lock()
	n := len(s.lists)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected idle empty list to be collected, %d left", n)
	}
}

func TestMemoryListStore_CleanupKeepsListsWithPermits(t *testing.T) {
	s := NewMemoryListStore(WithIdleTTL(2*time.Millisecond), WithCleanupEvery(0))

	if err := s.Push(context.Background(), "s", []byte("1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	time.Sleep(4 * time.Millisecond)
	s.Cleanup()

	if got := s.Len("s"); got != 1 {
		t.Fatalf("expected permit to survive cleanup, Len=%d", got)
	}
}

package producer

import (
	"context"
	"testing"
	"time"
)

func TestSemaphore_AcquireReleaseInvariant(t *testing.T) {
	s := newSemaphore(2)

	if !s.TryAcquire() {
		t.Fatal("TryAcquire() = false on fresh semaphore, want true")
	}
	if !s.TryAcquire() {
		t.Fatal("second TryAcquire() = false, want true")
	}
	if s.TryAcquire() {
		t.Fatal("TryAcquire() = true with no tokens left, want false")
	}
	if got := s.Available(); got != 0 {
		t.Errorf("Available() = %d, want 0", got)
	}

	s.Release(2)
	if got := s.Available(); got != 2 {
		t.Errorf("Available() after Release(2) = %d, want 2", got)
	}
}

func TestSemaphore_AcquireBlocksUntilRelease(t *testing.T) {
	s := newSemaphore(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v, want nil", err)
	}

	acquired := make(chan struct{})
	go func() {
		_ = s.Acquire(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire() returned before a token was released")
	case <-time.After(50 * time.Millisecond):
	}

	s.Release(1)
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Acquire() did not unblock after Release")
	}
}

func TestSemaphore_AcquireRespectsContextCancellation(t *testing.T) {
	s := newSemaphore(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.Acquire(ctx); err == nil {
		t.Fatal("Acquire() error = nil on an exhausted semaphore with a cancelled context, want deadline error")
	}
}

func TestWindowFIFO_OrderAndLen(t *testing.T) {
	w := newWindowFIFO()
	op1 := &sendOp{sequenceID: 1}
	op2 := &sendOp{sequenceID: 2}
	op3 := &sendOp{sequenceID: 3}

	w.PushBack(op1)
	w.PushBack(op2)
	w.PushBack(op3)

	if got := w.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	if got := w.PeekFront(); got != op1 {
		t.Errorf("PeekFront() = %v, want op1", got)
	}

	popped := w.PopFront()
	if popped != op1 {
		t.Errorf("PopFront() = %v, want op1", popped)
	}
	if got := w.PeekFront(); got != op2 {
		t.Errorf("PeekFront() after pop = %v, want op2", got)
	}
	if got := w.Len(); got != 2 {
		t.Errorf("Len() after pop = %d, want 2", got)
	}
}

func TestWindowFIFO_EmptyPeekAndPop(t *testing.T) {
	w := newWindowFIFO()
	if got := w.PeekFront(); got != nil {
		t.Errorf("PeekFront() on empty window = %v, want nil", got)
	}
	if got := w.PopFront(); got != nil {
		t.Errorf("PopFront() on empty window = %v, want nil", got)
	}
}

func TestWindowFIFO_ItemsIsASnapshot(t *testing.T) {
	w := newWindowFIFO()
	op1 := &sendOp{sequenceID: 1}
	w.PushBack(op1)

	snap := w.Items()
	w.PushBack(&sendOp{sequenceID: 2})

	if len(snap) != 1 {
		t.Fatalf("Items() snapshot len = %d, want 1 (unaffected by later PushBack)", len(snap))
	}
}

func TestWindowFIFO_Clear(t *testing.T) {
	w := newWindowFIFO()
	w.PushBack(&sendOp{sequenceID: 1})
	w.PushBack(&sendOp{sequenceID: 2})

	cleared := w.Clear()
	if len(cleared) != 2 {
		t.Fatalf("Clear() returned %d ops, want 2", len(cleared))
	}
	if got := w.Len(); got != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", got)
	}
}

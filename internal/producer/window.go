package producer

import "context"

// semaphore is the counting permit pool backing max_pending_messages
// (spec.md §4.4 invariant 3: permits held + permits available always equals
// max_pending_messages). Acquisition happens outside the producer's
// serialization mutex so a blocked sender never prevents the ack handler,
// timeout sweeper, or Close from draining the window and returning permits.
type semaphore struct {
	tokens chan struct{}
}

func newSemaphore(n int) *semaphore {
	s := &semaphore{tokens: make(chan struct{}, n)}
	for i := 0; i < n; i++ {
		s.tokens <- struct{}{}
	}
	return s
}

func (s *semaphore) Acquire(ctx context.Context) error {
	select {
	case <-s.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) TryAcquire() bool {
	select {
	case <-s.tokens:
		return true
	default:
		return false
	}
}

func (s *semaphore) Release(n int) {
	for i := 0; i < n; i++ {
		s.tokens <- struct{}{}
	}
}

func (s *semaphore) Available() int { return len(s.tokens) }

// windowFIFO is the in-flight window: Send Operations written to the
// connection, oldest (lowest sequence id) first, awaiting ack. All access
// happens under the producer's mutex, so the type itself needs no locking.
type windowFIFO struct {
	items []*sendOp
}

func newWindowFIFO() *windowFIFO { return &windowFIFO{} }

func (w *windowFIFO) PushBack(op *sendOp) { w.items = append(w.items, op) }

func (w *windowFIFO) PeekFront() *sendOp {
	if len(w.items) == 0 {
		return nil
	}
	return w.items[0]
}

func (w *windowFIFO) PopFront() *sendOp {
	if len(w.items) == 0 {
		return nil
	}
	op := w.items[0]
	w.items[0] = nil
	w.items = w.items[1:]
	return op
}

func (w *windowFIFO) Len() int { return len(w.items) }

// Items returns a snapshot slice safe to iterate after releasing the mutex.
func (w *windowFIFO) Items() []*sendOp {
	out := make([]*sendOp, len(w.items))
	copy(out, w.items)
	return out
}

// Clear empties the window and returns everything it held, for the timeout
// sweeper's "fail the entire window" case and for Close/reconnect teardown.
func (w *windowFIFO) Clear() []*sendOp {
	old := w.items
	w.items = nil
	return old
}

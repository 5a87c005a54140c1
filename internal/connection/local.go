package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// LocalBroker is an in-memory Connection used by tests and the demo command
// in place of a real broker. It assigns ledger/entry ids to Send frames and
// acks them asynchronously on its own executor, exactly like a real broker
// would from the producer's point of view. Test hooks let callers delay every
// ack (AckDelay) or drop acks entirely (SkipAck, which also provides the
// silence the timeout-sweeper tests need); no hook reorders acks.
type LocalBroker struct {
	id       string
	ledgerID uint64
	nextSeq  atomic.Uint64 // broker-assigned entry id, independent per ledger
	exec     *serialExecutor

	mu        sync.Mutex
	active    bool
	writable  bool
	producers map[uint64]ProducerHandler
	names     map[uint64]string

	// AckDelay, if non-zero, delays every ack by this duration.
	AckDelay time.Duration
	// SkipAck, if set, is called per send; returning true drops the ack
	// entirely (simulating a message the broker silently lost, exercised
	// by the send-timeout sweeper tests).
	SkipAck func(producerID, sequenceID uint64) bool
}

// NewLocalBroker returns an active, writable fake connection identified by
// id, backed by ledgerID as its (fixed, for simplicity) BookKeeper ledger.
func NewLocalBroker(id string, ledgerID uint64) *LocalBroker {
	return &LocalBroker{
		id:        id,
		ledgerID:  ledgerID,
		exec:      newSerialExecutor(),
		active:    true,
		writable:  true,
		producers: make(map[uint64]ProducerHandler),
		names:     make(map[uint64]string),
	}
}

func (b *LocalBroker) ID() string          { return b.id }
func (b *LocalBroker) Executor() Executor  { return b.exec }

func (b *LocalBroker) RegisterProducer(producerID uint64, handler ProducerHandler) {
	b.mu.Lock()
	b.producers[producerID] = handler
	b.mu.Unlock()
}

func (b *LocalBroker) RemoveProducer(producerID uint64) {
	b.mu.Lock()
	delete(b.producers, producerID)
	delete(b.names, producerID)
	b.mu.Unlock()
}

// SendRequest handles the two RPCs the producer core issues: create-producer
// (assigns a producer name if the caller didn't already hold one) and
// close-producer (just acknowledges).
func (b *LocalBroker) SendRequest(ctx context.Context, frame *Frame) (*Response, error) {
	b.mu.Lock()
	active := b.active
	b.mu.Unlock()
	if !active {
		return nil, fmt.Errorf("connection: broker %s is not active", b.id)
	}

	switch frame.Kind {
	case FrameCreateProducer:
		b.mu.Lock()
		name := b.names[frame.ProducerID]
		if name == "" {
			name = fmt.Sprintf("local-producer-%d", frame.ProducerID)
			b.names[frame.ProducerID] = name
		}
		b.mu.Unlock()
		return &Response{ProducerName: name}, nil
	case FrameCloseProducer:
		return &Response{}, nil
	default:
		return nil, fmt.Errorf("connection: SendRequest: unsupported frame kind %v", frame.Kind)
	}
}

// Write "transmits" a Send frame: it assigns entry/ledger ids and schedules
// an ack on the broker's own executor, simulating the asynchronous
// broker-ack round trip. The dispatch's retained buffer reference is
// released once the simulated write completes, per spec.md §3 invariant 5.
func (b *LocalBroker) Write(frame *Frame) {
	defer frame.Buf.Release()

	if frame.Kind != FrameSend {
		return
	}

	b.mu.Lock()
	handler := b.producers[frame.ProducerID]
	b.mu.Unlock()
	if handler == nil {
		return
	}

	if b.SkipAck != nil && b.SkipAck(frame.ProducerID, frame.SequenceID) {
		return
	}

	entryID := b.nextSeq.Inc() - 1
	ledgerID := b.ledgerID
	delay := b.AckDelay

	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		handler.AckReceived(b, frame.SequenceID, ledgerID, entryID)
	}()
}

// Flush is a no-op for the in-memory broker: writes are "on the wire" the
// moment Write returns.
func (b *LocalBroker) Flush() {}

func (b *LocalBroker) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *LocalBroker) IsWritable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active && b.writable
}

// Disconnect simulates the channel dying without a graceful close, notifying
// every registered producer's ConnectionFailed — tests use this to drive the
// reconnect orchestrator.
func (b *LocalBroker) Disconnect(err error) {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}
	b.active = false
	handlers := make([]ProducerHandler, 0, len(b.producers))
	for _, h := range b.producers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	if err == nil {
		err = fmt.Errorf("connection: broker %s disconnected", b.id)
	}
	for _, h := range handlers {
		h.ConnectionFailed(err)
	}
}

// Close tears the broker down permanently: any producers still registered
// are notified via ConnectionFailed, exactly as a real connection would
// notify its bound producers when the socket goes away, then the executor
// goroutine is released.
func (b *LocalBroker) Close() {
	b.Disconnect(fmt.Errorf("connection: broker %s closed", b.id))
	b.mu.Lock()
	b.writable = false
	b.mu.Unlock()
	b.exec.close()
}

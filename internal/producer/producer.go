// Package producer implements a Pulsar-style producer client: the
// sequence-id assignment, batching, in-flight window with backpressure,
// acknowledgement correlation, and reconnect-and-replay logic a real
// pulsar.Producer hides behind Send/SendAsync. The broker connection itself,
// topic/partition discovery, and the client-wide id/timer bookkeeping are
// external collaborators this package only depends on through interfaces
// (internal/connection, internal/discovery, internal/client).
package producer

import (
	"context"
	"sync"
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/client"
	"github.com/pulsar-local-lab/producer-core/internal/compression"
	"github.com/pulsar-local-lab/producer-core/internal/connection"
	"github.com/pulsar-local-lab/producer-core/internal/log"
)

// Producer sends messages to one topic (or topic partition), handling
// batching, ordering, backpressure, and transparent reconnection. The zero
// value is not usable; build one with NewProducer.
type Producer struct {
	opts       Options
	client     *client.Client
	provider   ConnectionProvider
	logger     log.Logger
	producerID uint64
	stats      *stats

	firstAttempt time.Time
	backoff      *backoff
	sweeper      *sweeper
	flusher      *flushTimer

	createdCh       chan error
	createdOnce     sync.Once
	createdResolvedFlag bool

	mu             sync.Mutex
	state          State
	cnx            connection.Connection
	producerName   string
	nextSeq        uint64
	window         *windowFIFO
	permits        *semaphore
	batch          *batchContainer
	connectedSince time.Time
	everConnected  bool
}

// NewProducer builds a Producer for opts.Topic and blocks until it either
// reaches Ready for the first time or permanently fails, bounded by ctx.
// A successful return always yields a Producer in Ready or Connecting (if a
// connection loss raced the return) — never Failed.
func NewProducer(ctx context.Context, opts Options, cl *client.Client, provider ConnectionProvider, logger log.Logger) (*Producer, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Noop
	}

	p := &Producer{
		opts:         opts,
		client:       cl,
		provider:     provider,
		logger:       logger,
		producerID:   cl.NewProducerID(),
		producerName: opts.Name,
		stats:        newStats(opts.Topic),
		state:        StateConnecting,
		window:       newWindowFIFO(),
		permits:      newSemaphore(opts.MaxPendingMessages),
		createdCh:    make(chan error, 1),
		firstAttempt: time.Now(),
		backoff:      newBackoff(defaultMinBackoff, defaultMaxBackoff),
	}
	if opts.BatchingEnabled {
		p.batch = newBatchContainer(opts.BatchingMaxMessages, opts.BatchingMaxBytes)
	}
	p.sweeper = newSweeper(p)
	p.flusher = newFlushTimer(p)

	p.sweeper.start()
	go p.requestConnection(context.Background())

	select {
	case err := <-p.createdCh:
		if err != nil {
			return nil, err
		}
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Producer) resolveCreated(err error) {
	p.createdOnce.Do(func() {
		p.mu.Lock()
		p.createdResolvedFlag = true
		p.mu.Unlock()
		p.createdCh <- err
		close(p.createdCh)
	})
}

func (p *Producer) createdResolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createdResolvedFlag
}

// SendAsync submits msg and returns a channel that receives exactly one
// SendResult once the message is acknowledged or permanently fails
// (spec.md §4.2). msg must not be reused across calls unless it is marked
// Replicated.
func (p *Producer) SendAsync(ctx context.Context, msg *Message) <-chan SendResult {
	result := make(chan SendResult, 1)
	p.dispatch(ctx, msg, func(id MessageID, err error) {
		result <- SendResult{ID: id, Err: err}
	})
	return result
}

// Send is the blocking counterpart to SendAsync.
func (p *Producer) Send(ctx context.Context, msg *Message) (MessageID, error) {
	ch := p.SendAsync(ctx, msg)
	select {
	case res := <-ch:
		return res.ID, res.Err
	case <-ctx.Done():
		return MessageID{}, ctx.Err()
	}
}

// dispatch runs the send_async algorithm (spec.md §4.2) in order:
// state gate, backpressure admission, checksum, reuse check, sequence
// assignment, and either direct dispatch or batch accumulation.
func (p *Producer) dispatch(ctx context.Context, msg *Message, cb sendCallback) {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()
	if err := admissionGate(state); err != nil {
		cb(MessageID{}, err)
		return
	}

	if p.opts.BlockIfQueueFull {
		if err := p.permits.Acquire(ctx); err != nil {
			cb(MessageID{}, wrap(ErrInterrupted, err))
			return
		}
	} else if !p.permits.TryAcquire() {
		cb(MessageID{}, ErrQueueFull)
		return
	}

	released := false
	releasePermit := func() {
		if !released {
			released = true
			p.permits.Release(1)
		}
	}

	if !msg.hasChecksum {
		msg.checksum = connection.Checksum(msg.Payload)
		msg.hasChecksum = true
	}

	if msg.stamped && !msg.Replicated {
		releasePermit()
		cb(MessageID{}, invalidMessage("message already submitted; a Message must not be reused"))
		return
	}

	p.mu.Lock()
	if err := admissionGate(p.state); err != nil {
		p.mu.Unlock()
		releasePermit()
		cb(MessageID{}, err)
		return
	}

	seq := p.nextSeq
	p.nextSeq++
	msg.producerName = p.producerName
	msg.sequenceID = seq
	msg.publishTime = time.Now()
	msg.stamped = true

	p.stats.recordSent(len(msg.Payload))

	if p.opts.BatchingEnabled {
		if !p.batch.HasRoomFor(len(msg.Payload)) {
			p.flushBatchLocked()
		}
		p.batch.Add(msg, seq, cb)
		if p.batch.ReachedLimit() {
			p.flushBatchLocked()
		}
		p.mu.Unlock()
		return
	}

	op, err := p.buildSendOpLocked(seq, 1, len(msg.Payload), msg.Payload, msg.Key, msg.Properties, []sendCallback{cb})
	if err != nil {
		p.mu.Unlock()
		releasePermit()
		cb(MessageID{}, wrap(ErrUnexpected, err))
		return
	}
	p.window.PushBack(op)
	pending := p.window.Len()
	p.scheduleWriteLocked(op)
	p.mu.Unlock()
	p.stats.setPending(pending)
}

// flushBatchLocked drains the open batch into one Send Operation and
// dispatches it. Caller must hold p.mu.
func (p *Producer) flushBatchLocked() {
	f := p.batch.Flush()
	if f == nil {
		return
	}
	op, err := p.buildSendOpLocked(f.firstSeq, f.numMessages, f.size, f.payload, f.key, f.properties, f.callbacks)
	if err != nil {
		for _, cb := range f.callbacks {
			p.safeInvoke(cb, MessageID{}, wrap(ErrUnexpected, err))
		}
		p.permits.Release(f.numMessages)
		return
	}
	p.window.PushBack(op)
	p.scheduleWriteLocked(op)
}

// buildSendOpLocked compresses payload and builds the wire frame for a
// singleton or flushed batch. Caller must hold p.mu.
func (p *Producer) buildSendOpLocked(seq uint64, numMessages, uncompressedSize int, payload []byte, key string, props map[string]string, callbacks []sendCallback) (*sendOp, error) {
	codec, err := compression.Get(p.opts.Compression)
	if err != nil {
		return nil, err
	}
	compressed := codec.Encode(nil, payload)

	metadata := connection.Metadata{
		ProducerName: p.producerName,
		PublishTime:  time.Now(),
		Compression:  p.opts.Compression,
		Checksum:     connection.Checksum(payload),
		PartitionKey: key,
		Properties:   props,
	}
	if p.opts.Compression != compression.None {
		metadata.UncompressedSize = uint32(uncompressedSize)
	}

	frame, err := connection.NewSend(p.producerID, seq, numMessages, metadata, compressed)
	if err != nil {
		return nil, err
	}

	op := getSendOp()
	op.sequenceID = seq
	op.frame = frame
	op.numMessages = numMessages
	op.size = uncompressedSize
	op.createdAt = time.Now()
	op.callbacks = append(op.callbacks, callbacks...)
	return op, nil
}

// scheduleWriteLocked hands op's frame to the bound connection's executor,
// or leaves it queued in the window for the next ConnectionOpened replay if
// no connection is currently bound. Caller must hold p.mu.
func (p *Producer) scheduleWriteLocked(op *sendOp) {
	if p.cnx == nil {
		return
	}
	cnx := p.cnx
	frame := op.frame
	frame.Buf.Retain()
	cnx.Executor().Post(func() {
		cnx.Write(frame)
	})
}

// CloseAsync begins an orderly shutdown: Closing, a close-producer RPC on
// the current connection (if any), then Closed with every outstanding Send
// Operation failed with ErrAlreadyClosed (spec.md §4.10).
func (p *Producer) CloseAsync() <-chan error {
	result := make(chan error, 1)

	p.mu.Lock()
	switch p.state {
	case StateClosing, StateClosed:
		p.mu.Unlock()
		result <- nil
		return result
	}
	cnx := p.cnx
	p.state = StateClosing
	p.mu.Unlock()

	p.sweeper.stop()
	p.flusher.stop()

	if cnx == nil {
		p.finishClose()
		result <- nil
		return result
	}

	go func() {
		requestID := p.client.NewRequestID()
		frame, err := connection.NewCloseProducer(p.producerID, requestID)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), p.client.OperationTimeout())
			_, err = cnx.SendRequest(ctx, frame)
			cancel()
		}
		p.finishClose()
		result <- err
	}()
	return result
}

// Close is the blocking counterpart to CloseAsync.
func (p *Producer) Close(ctx context.Context) error {
	ch := p.CloseAsync()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Producer) finishClose() {
	p.mu.Lock()
	p.state = StateClosed
	cnx := p.cnx
	ops := p.window.Clear()
	var batchFlush *flushed
	if p.batch != nil {
		batchFlush = p.batch.Flush()
	}
	p.mu.Unlock()

	if cnx != nil {
		cnx.RemoveProducer(p.producerID)
	}
	for _, op := range ops {
		p.resolveOp(op, MessageID{}, false, ErrAlreadyClosed)
	}
	// Any messages still sitting in the open batch never got a wire frame;
	// fail them directly rather than routing them through the window, since
	// there is nothing in flight to ack.
	if batchFlush != nil {
		p.permits.Release(batchFlush.numMessages)
		p.stats.recordFailure(0)
		for _, cb := range batchFlush.callbacks {
			p.safeInvoke(cb, MessageID{}, ErrAlreadyClosed)
		}
	}
}

// IsConnected reports whether the producer currently holds a live
// connection (Ready and the bound connection is active).
func (p *Producer) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateReady && p.cnx != nil && p.cnx.IsActive()
}

// GetProducerName returns the broker-assigned (or caller-pinned) name.
func (p *Producer) GetProducerName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.producerName
}

// GetConnectionID returns the bound connection's id, or "" if unbound.
func (p *Producer) GetConnectionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cnx == nil {
		return ""
	}
	return p.cnx.ID()
}

// GetConnectedSince returns when the current connection was bound.
func (p *Producer) GetConnectedSince() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectedSince
}

// GetPendingQueueSize returns the number of Send Operations currently
// in-flight (written, awaiting ack) plus queued batches.
func (p *Producer) GetPendingQueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.window.Len()
	if p.batch != nil && !p.batch.IsEmpty() {
		n++
	}
	return n
}

// GetStats returns a point-in-time snapshot of the producer's own counters;
// cumulative totals are exported through Prometheus (see stats.go).
func (p *Producer) GetStats() Stats {
	return Stats{
		Topic:       p.opts.Topic,
		PendingSize: p.GetPendingQueueSize(),
	}
}

// GetOldestPendingDelayMillis returns how long the window's head Send
// Operation has been waiting for an ack, in milliseconds. Returns 0 when
// nothing is in flight.
func (p *Producer) GetOldestPendingDelayMillis() int64 {
	p.mu.Lock()
	head := p.window.PeekFront()
	p.mu.Unlock()
	if head == nil {
		return 0
	}
	return time.Since(head.createdAt).Milliseconds()
}

// State returns the producer's current lifecycle state.
func (p *Producer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

package producer

import (
	"context"
	"errors"
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/connection"
)

// ConnectionProvider resolves a usable Connection for the producer's topic,
// standing in for the client's connection pool — itself out of scope per
// spec.md §1, "only their interfaces matter".
type ConnectionProvider interface {
	GetConnection(ctx context.Context) (connection.Connection, error)
}

// backoff is a simple doubling backoff with no jitter: deterministic enough
// for tests to reason about, which matters more here than smoothing out
// thundering-herd reconnects against a single in-memory fake broker.
type backoff struct {
	min, max, cur time.Duration
}

func newBackoff(min, max time.Duration) *backoff {
	return &backoff{min: min, max: max, cur: min}
}

func (b *backoff) next() time.Duration {
	d := b.cur
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return d
}

func (b *backoff) reset() { b.cur = b.min }

// requestConnection asks the provider for a connection and hands the result
// to ConnectionOpened/ConnectionFailed exactly as an externally-notified
// connection would, so both the initial connect and every retry funnel
// through the same reconnect orchestrator logic (spec.md §4.9).
func (p *Producer) requestConnection(ctx context.Context) {
	cnx, err := p.provider.GetConnection(ctx)
	if err != nil {
		p.ConnectionFailed(err)
		return
	}
	p.ConnectionOpened(cnx)
}

func (p *Producer) scheduleReconnect() {
	delay := p.backoff.next()
	p.logger.Debug("scheduling reconnect", map[string]interface{}{"delay": delay.String()})
	p.client.Timer().Schedule(delay, func() {
		p.mu.Lock()
		done := p.state == StateClosing || p.state == StateClosed || p.state == StateFailed
		p.mu.Unlock()
		if done {
			return
		}
		p.requestConnection(context.Background())
	})
}

// ConnectionOpened is the reconnect orchestrator's entry point (spec.md
// §4.9 steps 1-3): bind to the new connection, issue the create-producer
// request, and on success replay the in-flight window before becoming Ready.
func (p *Producer) ConnectionOpened(cnx connection.Connection) {
	p.mu.Lock()
	if p.state == StateClosing || p.state == StateClosed {
		p.mu.Unlock()
		cnx.Close()
		return
	}
	p.cnx = cnx
	producerName := p.producerName
	p.mu.Unlock()

	cnx.RegisterProducer(p.producerID, p)

	requestID := p.client.NewRequestID()
	frame, err := connection.NewProducer(p.opts.Topic, p.producerID, requestID, producerName)
	if err != nil {
		p.onCreateFailure(cnx, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.client.OperationTimeout())
	defer cancel()
	resp, err := cnx.SendRequest(ctx, frame)
	if err != nil {
		p.onCreateFailure(cnx, err)
		return
	}
	p.onCreateSuccess(cnx, resp)
}

// ConnectionFailed handles both an outright dial failure (cnx never bound)
// and an already-bound connection dying asynchronously — in both cases the
// producer falls back to Connecting and schedules a fresh attempt.
func (p *Producer) ConnectionFailed(err error) {
	p.onCreateFailure(nil, err)
}

func (p *Producer) onCreateSuccess(cnx connection.Connection, resp *connection.Response) {
	p.mu.Lock()
	if p.state == StateClosing || p.state == StateClosed {
		p.mu.Unlock()
		go func() {
			reqID := p.client.NewRequestID()
			if frame, err := connection.NewCloseProducer(p.producerID, reqID); err == nil {
				ctx, cancel := context.WithTimeout(context.Background(), p.client.OperationTimeout())
				defer cancel()
				_, _ = cnx.SendRequest(ctx, frame)
			}
			cnx.Close()
		}()
		return
	}

	if p.producerName == "" {
		p.producerName = resp.ProducerName
	}
	p.backoff.reset()
	p.connectedSince = time.Now()
	first := !p.everConnected
	p.everConnected = true
	if first && p.opts.BatchingEnabled {
		p.flusher.start()
	}
	ops := p.window.Items()
	p.mu.Unlock()

	// Replay the window on the new connection's executor, in sequence-id
	// order, then flip to Ready — writes never happen under the mutex.
	cnx.Executor().Post(func() {
		for _, op := range ops {
			op.frame.Buf.Retain()
			cnx.Write(op.frame)
		}
		cnx.Flush()

		p.mu.Lock()
		if p.state != StateClosing && p.state != StateClosed {
			p.state = StateReady
		}
		p.mu.Unlock()
	})

	if first {
		p.resolveCreated(nil)
	}
}

func (p *Producer) onCreateFailure(cnx connection.Connection, err error) {
	p.mu.Lock()
	if p.state == StateClosing || p.state == StateClosed {
		p.mu.Unlock()
		if cnx != nil {
			cnx.Close()
		}
		return
	}
	p.state = StateConnecting
	p.cnx = nil
	p.mu.Unlock()

	var bq *BacklogQuotaError
	if errors.As(err, &bq) {
		if bq.Kind == BacklogQuotaExceeded {
			p.failAllPending(bq)
			p.mu.Lock()
			p.state = StateFailed
			p.mu.Unlock()
			p.resolveCreated(bq)
			return
		}
		p.logger.Warn("backlog quota blocking producer creation, retrying", map[string]interface{}{"topic": p.opts.Topic})
		p.scheduleReconnect()
		return
	}

	if p.createdResolved() || time.Since(p.firstAttempt) < p.client.OperationTimeout() {
		p.scheduleReconnect()
		return
	}

	p.mu.Lock()
	p.state = StateFailed
	p.mu.Unlock()
	p.resolveCreated(wrap(ErrUnexpected, err))
}

// failAllPending fails every Send Operation currently queued or in-flight,
// used when the producer transitions to Failed for good.
func (p *Producer) failAllPending(err error) {
	p.mu.Lock()
	ops := p.window.Clear()
	p.mu.Unlock()
	for _, op := range ops {
		p.resolveOp(op, MessageID{}, false, err)
	}
}

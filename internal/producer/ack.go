package producer

import (
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/connection"
)

// AckReceived implements connection.ProducerHandler. It only ever resolves
// the window's head: Pulsar brokers ack in send order, so any sequence id
// other than the head's means either a desynced connection (ahead) or a
// stale ack for an op the timeout sweeper already failed (behind).
func (p *Producer) AckReceived(cnx connection.Connection, sequenceID, ledgerID, entryID uint64) {
	p.mu.Lock()
	head := p.window.PeekFront()
	if head == nil {
		p.mu.Unlock()
		p.logger.Warn("ack received with empty window, ignoring", map[string]interface{}{
			"sequence_id": sequenceID,
		})
		return
	}

	switch {
	case sequenceID > head.sequenceID:
		p.mu.Unlock()
		p.logger.Warn("ack desync, forcing reconnect", map[string]interface{}{
			"expected": head.sequenceID, "got": sequenceID,
		})
		cnx.Close()
		return
	case sequenceID < head.sequenceID:
		p.mu.Unlock()
		p.logger.Debug("stale ack for already-resolved send, ignoring", map[string]interface{}{
			"sequence_id": sequenceID,
		})
		return
	default:
		op := p.window.PopFront()
		pending := p.window.Len()
		p.mu.Unlock()
		p.stats.setPending(pending)

		id := MessageID{LedgerID: ledgerID, EntryID: entryID, PartitionIndex: p.opts.PartitionIndex}
		p.resolveOp(op, id, true, nil)
	}
}

// resolveOp releases the op's permits, invokes its callbacks, and recycles
// it. Exactly one of hasID/err applies: an ack supplies the base MessageID,
// a failure supplies err for every callback instead.
func (p *Producer) resolveOp(op *sendOp, base MessageID, hasID bool, err error) {
	p.permits.Release(op.numMessages)

	latency := time.Since(op.createdAt)
	if err == nil {
		p.stats.recordAck(latency)
	} else {
		p.stats.recordFailure(latency)
	}

	n := len(op.callbacks)
	for i, cb := range op.callbacks {
		id := MessageID{BatchIndex: -1}
		if hasID {
			id = base
			if n > 1 {
				id.BatchIndex = int32(i)
			} else {
				id.BatchIndex = -1
			}
		}
		p.safeInvoke(cb, id, err)
	}

	op.frame.Buf.Release()
	putSendOp(op)
}

// safeInvoke guards against a panicking application callback taking down
// the producer's internal goroutines (spec.md §4.6/§7: callback exceptions
// are logged and swallowed, never propagated).
func (p *Producer) safeInvoke(cb sendCallback, id MessageID, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("send callback panicked", map[string]interface{}{"recovered": r})
		}
	}()
	cb(id, err)
}

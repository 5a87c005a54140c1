package producer

import "github.com/pulsar-local-lab/producer-core/internal/client"

// flushTimer periodically flushes a partially-filled batch so a slow
// trickle of messages doesn't wait forever for batching_max_messages
// (spec.md §4.8). It self-reschedules for the life of the producer once
// started, stopping only on Close.
type flushTimer struct {
	p       *Producer
	task    *client.ScheduledTask
	started bool
}

func newFlushTimer(p *Producer) *flushTimer {
	return &flushTimer{p: p}
}

func (f *flushTimer) start() {
	if f.started || !f.p.opts.BatchingEnabled {
		return
	}
	f.started = true
	f.task = f.p.client.Timer().Schedule(f.p.opts.BatchingMaxPublishDelay, f.fire)
}

func (f *flushTimer) stop() {
	if f.task != nil {
		f.task.Stop()
	}
}

func (f *flushTimer) fire() {
	p := f.p
	p.mu.Lock()
	if p.state == StateClosed || p.state == StateFailed {
		p.mu.Unlock()
		return
	}
	if p.batch != nil && !p.batch.IsEmpty() {
		p.flushBatchLocked()
	}
	p.mu.Unlock()

	f.task.Reset(p.opts.BatchingMaxPublishDelay)
}

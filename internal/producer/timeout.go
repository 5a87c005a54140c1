package producer

import (
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/client"
)

// sweeper enforces send_timeout_ms by periodically checking the window's
// oldest unacknowledged Send Operation (spec.md §4.7). A timeout fails the
// entire window, not just the head: once the oldest op has gone stale, the
// ops behind it were submitted after it, and splitting the window would let
// the batch after a failed one succeed out of submission order.
type sweeper struct {
	p       *Producer
	task    *client.ScheduledTask
	enabled bool
}

func newSweeper(p *Producer) *sweeper {
	return &sweeper{p: p, enabled: p.opts.SendTimeout > 0}
}

func (s *sweeper) start() {
	if !s.enabled {
		return
	}
	s.task = s.p.client.Timer().Schedule(s.p.opts.SendTimeout, s.fire)
}

func (s *sweeper) stop() {
	if s.task != nil {
		s.task.Stop()
	}
}

func (s *sweeper) fire() {
	p := s.p
	p.mu.Lock()
	head := p.window.PeekFront()
	now := time.Now()
	var expired []*sendOp
	if head != nil && now.Sub(head.createdAt) >= p.opts.SendTimeout {
		expired = p.window.Clear()
	}
	p.mu.Unlock()

	if len(expired) > 0 {
		p.logger.Warn("send timeout, failing in-flight window", map[string]interface{}{
			"count": len(expired),
		})
		for _, op := range expired {
			p.resolveOp(op, MessageID{}, false, ErrTimeout)
		}
	}

	p.mu.Lock()
	terminal := p.state == StateClosed || p.state == StateFailed
	var next time.Duration
	if head := p.window.PeekFront(); head != nil {
		next = p.opts.SendTimeout - time.Since(head.createdAt)
		if next < 0 {
			next = 0
		}
	} else {
		next = p.opts.SendTimeout
	}
	p.mu.Unlock()

	if terminal {
		return
	}
	s.task.Reset(next)
}

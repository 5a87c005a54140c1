package producer

import (
	"context"
	"testing"

	"github.com/pulsar-local-lab/producer-core/internal/connection"
	"github.com/pulsar-local-lab/producer-core/internal/log"
)

// recordingConn is a minimal connection.Connection fake that only tracks
// whether Close was called, for tests that drive AckReceived directly
// without a full producer lifecycle.
type recordingConn struct {
	closed bool
}

func (c *recordingConn) ID() string                     { return "recording-conn" }
func (c *recordingConn) Executor() connection.Executor   { return nil }
func (c *recordingConn) SendRequest(ctx context.Context, f *connection.Frame) (*connection.Response, error) {
	return &connection.Response{}, nil
}
func (c *recordingConn) RegisterProducer(uint64, connection.ProducerHandler) {}
func (c *recordingConn) RemoveProducer(uint64)                               {}
func (c *recordingConn) Write(*connection.Frame)                            {}
func (c *recordingConn) Flush()                                             {}
func (c *recordingConn) IsActive() bool                                     { return !c.closed }
func (c *recordingConn) IsWritable() bool                                   { return !c.closed }
func (c *recordingConn) Close()                                             { c.closed = true }

func newTestProducerForAck(t *testing.T) *Producer {
	t.Helper()
	return &Producer{
		logger:  log.Noop,
		window:  newWindowFIFO(),
		permits: newSemaphore(10),
		stats:   newStats("ack-test"),
	}
}

func pushFakeOp(p *Producer, seq uint64) (*sendOp, chan error) {
	p.permits.TryAcquire() // mirrors the permit dispatch would have taken before this op was written

	resultCh := make(chan error, 1)
	op := &sendOp{
		sequenceID: seq,
		frame:      &connection.Frame{Buf: connection.NewBuffer([]byte("x"))},
		numMessages: 1,
		callbacks: []sendCallback{func(_ MessageID, err error) {
			resultCh <- err
		}},
	}
	p.window.PushBack(op)
	return op, resultCh
}

func TestAckReceived_ExactMatchResolvesHeadAndPops(t *testing.T) {
	p := newTestProducerForAck(t)
	_, resultCh := pushFakeOp(p, 5)
	cnx := &recordingConn{}

	p.AckReceived(cnx, 5, 1, 100)

	select {
	case err := <-resultCh:
		if err != nil {
			t.Errorf("callback err = %v, want nil", err)
		}
	default:
		t.Fatal("callback was not invoked for a matching ack")
	}
	if got := p.window.Len(); got != 0 {
		t.Errorf("window.Len() after matching ack = %d, want 0", got)
	}
	if cnx.closed {
		t.Error("connection was closed on a matching ack, want it left alone")
	}
}

func TestAckReceived_AheadOfHeadForcesReconnect(t *testing.T) {
	p := newTestProducerForAck(t)
	_, resultCh := pushFakeOp(p, 5)
	cnx := &recordingConn{}

	p.AckReceived(cnx, 9, 1, 100)

	if !cnx.closed {
		t.Error("AckReceived with sequenceID ahead of the window head did not close the connection, want it to force a reconnect")
	}
	if got := p.window.Len(); got != 1 {
		t.Errorf("window.Len() after a desynced ack = %d, want 1 (head must stay until its own ack arrives)", got)
	}
	select {
	case err := <-resultCh:
		t.Errorf("callback was invoked with err = %v on a desynced ack, want it left untouched", err)
	default:
	}
}

func TestAckReceived_BehindHeadIsIgnoredAsStale(t *testing.T) {
	p := newTestProducerForAck(t)
	_, resultCh := pushFakeOp(p, 5)
	cnx := &recordingConn{}

	p.AckReceived(cnx, 3, 1, 100)

	if cnx.closed {
		t.Error("a stale (behind-head) ack closed the connection, want it silently ignored")
	}
	if got := p.window.Len(); got != 1 {
		t.Errorf("window.Len() after a stale ack = %d, want 1", got)
	}
	select {
	case err := <-resultCh:
		t.Errorf("callback was invoked with err = %v on a stale ack, want it left untouched", err)
	default:
	}
}

func TestAckReceived_EmptyWindowIsIgnored(t *testing.T) {
	p := newTestProducerForAck(t)
	cnx := &recordingConn{}

	p.AckReceived(cnx, 1, 1, 100) // must not panic on a nil PeekFront

	if cnx.closed {
		t.Error("an ack against an empty window closed the connection, want it silently ignored")
	}
}

func TestSafeInvoke_RecoversFromPanickingCallback(t *testing.T) {
	p := &Producer{logger: log.Noop}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("safeInvoke let a callback panic escape: %v", r)
		}
	}()
	p.safeInvoke(func(MessageID, error) { panic("boom") }, MessageID{}, nil)
}

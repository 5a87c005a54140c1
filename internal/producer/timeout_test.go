package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/connection"
)

func TestSweeper_TimeoutFailsEntireWindowNotJustHead(t *testing.T) {
	broker := connection.NewLocalBroker("broker-1", 1)
	broker.SkipAck = func(producerID, sequenceID uint64) bool { return true } // acks never arrive

	p := mustNewProducer(t, Options{
		Topic:              "timeout-1",
		MaxPendingMessages: 10,
		SendTimeout:        30 * time.Millisecond,
	}, newFixedProvider(broker))
	defer p.Close(context.Background())

	ch1 := p.SendAsync(context.Background(), &Message{Payload: []byte("first")})
	ch2 := p.SendAsync(context.Background(), &Message{Payload: []byte("second")})

	for i, ch := range []<-chan SendResult{ch1, ch2} {
		select {
		case res := <-ch:
			if !errors.Is(res.Err, ErrTimeout) {
				t.Errorf("message %d resolved with err = %v, want errors.Is(..., ErrTimeout)", i, res.Err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d was never resolved by the timeout sweeper", i)
		}
	}
}

func TestSweeper_DoesNothingWhileAcksArriveInTime(t *testing.T) {
	broker := connection.NewLocalBroker("broker-1", 1)

	p := mustNewProducer(t, Options{
		Topic:              "timeout-2",
		MaxPendingMessages: 10,
		SendTimeout:        200 * time.Millisecond,
	}, newFixedProvider(broker))
	defer p.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := p.Send(ctx, &Message{Payload: []byte("acked promptly")}); err != nil {
		t.Fatalf("Send() error = %v, want nil", err)
	}

	// Give the sweeper a chance to fire at least once; the message already
	// acked, so it must not have been failed out from under us.
	time.Sleep(250 * time.Millisecond)
	if got := p.GetPendingQueueSize(); got != 0 {
		t.Errorf("GetPendingQueueSize() = %d after a promptly-acked send survived a sweep, want 0", got)
	}
}

func TestSweeper_DisabledWhenSendTimeoutIsZero(t *testing.T) {
	broker := connection.NewLocalBroker("broker-1", 1)
	broker.SkipAck = func(producerID, sequenceID uint64) bool { return true }

	p := mustNewProducer(t, Options{
		Topic:              "timeout-3",
		MaxPendingMessages: 10,
		SendTimeout:        0,
	}, newFixedProvider(broker))
	defer p.Close(context.Background())

	ch := p.SendAsync(context.Background(), &Message{Payload: []byte("never acked, never swept")})

	select {
	case res := <-ch:
		t.Fatalf("send resolved (err=%v) with SendTimeout disabled, want it to stay pending", res.Err)
	case <-time.After(150 * time.Millisecond):
	}
	if got := p.GetPendingQueueSize(); got != 1 {
		t.Errorf("GetPendingQueueSize() = %d, want 1 (message still parked with no sweeper to fail it)", got)
	}
}

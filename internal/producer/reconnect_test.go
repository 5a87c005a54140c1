package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/connection"
)

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 40*time.Millisecond)

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 40 * time.Millisecond}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Errorf("next() call %d = %v, want %v", i, got, w)
		}
	}
}

func TestBackoff_ResetReturnsToMin(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 40*time.Millisecond)
	b.next()
	b.next()
	b.reset()
	if got := b.next(); got != 10*time.Millisecond {
		t.Errorf("next() after reset() = %v, want the min backoff (10ms)", got)
	}
}

func TestProducer_ReconnectsAndReplaysWindowOnNewConnection(t *testing.T) {
	broker1 := connection.NewLocalBroker("broker-1", 1)
	broker1.SkipAck = func(producerID, sequenceID uint64) bool { return true } // stays pending until it migrates

	provider := newFixedProvider(broker1)
	p := mustNewProducer(t, Options{
		Topic:              "reconnect-1",
		MaxPendingMessages: 10,
		BlockIfQueueFull:   true,
	}, provider)
	defer p.Close(context.Background())

	result := p.SendAsync(context.Background(), &Message{Payload: []byte("migrates to broker-2")})

	// Give the write a moment to land on broker-1 before it dies, then swap
	// the provider to a healthy broker and kill broker-1.
	time.Sleep(20 * time.Millisecond)
	broker2 := connection.NewLocalBroker("broker-2", 1)
	provider.set(broker2, nil)
	broker1.Disconnect(errors.New("simulated link drop"))

	select {
	case res := <-result:
		if res.Err != nil {
			t.Errorf("replayed send resolved with err = %v, want nil", res.Err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("send was never resolved after reconnecting to broker-2")
	}

	if got := p.GetConnectionID(); got != "broker-2" {
		t.Errorf("GetConnectionID() = %q after reconnect, want %q", got, "broker-2")
	}
}

func TestProducer_InitialConnectFailureRetriesUntilSuccess(t *testing.T) {
	provider := &flakyThenWorkingProvider{failures: 2}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := NewProducer(ctx, Options{Topic: "reconnect-2", MaxPendingMessages: 10}, newTestClient(), provider, nil)
	if err != nil {
		t.Fatalf("NewProducer() error = %v, want nil (should retry past the first two dial failures)", err)
	}
	defer p.Close(context.Background())

	if !p.IsConnected() {
		t.Error("IsConnected() = false after NewProducer eventually succeeded, want true")
	}
}

// flakyThenWorkingProvider fails GetConnection a fixed number of times before
// handing back a working broker, exercising the reconnect orchestrator's
// initial-connect retry path.
type flakyThenWorkingProvider struct {
	failures int
	broker   *connection.LocalBroker
}

func (p *flakyThenWorkingProvider) GetConnection(ctx context.Context) (connection.Connection, error) {
	if p.failures > 0 {
		p.failures--
		return nil, errors.New("dial failed")
	}
	if p.broker == nil {
		p.broker = connection.NewLocalBroker("flaky-broker", 1)
	}
	return p.broker, nil
}

package producer

import "testing"

func TestBatchContainer_HasRoomForEmptyAlwaysTrue(t *testing.T) {
	b := newBatchContainer(2, 10)
	if !b.HasRoomFor(1000) {
		t.Fatal("HasRoomFor() = false on an empty batch, want true (a single oversized message must still fit alone)")
	}
}

func TestBatchContainer_HasRoomForRespectsMessageAndByteLimits(t *testing.T) {
	b := newBatchContainer(2, 10)
	b.Add(&Message{Payload: []byte("12345")}, 1, nil)

	if !b.HasRoomFor(5) {
		t.Fatal("HasRoomFor(5) = false, want true (5+5=10 fits the byte limit exactly)")
	}
	if b.HasRoomFor(6) {
		t.Fatal("HasRoomFor(6) = true, want false (5+6=11 exceeds the byte limit)")
	}

	b.Add(&Message{Payload: []byte("12345")}, 2, nil)
	if b.HasRoomFor(1) {
		t.Fatal("HasRoomFor(1) = true after hitting maxMessages, want false")
	}
}

func TestBatchContainer_ReachedLimit(t *testing.T) {
	b := newBatchContainer(2, 1024)
	b.Add(&Message{Payload: []byte("a")}, 1, nil)
	if b.ReachedLimit() {
		t.Fatal("ReachedLimit() = true with 1/2 messages, want false")
	}
	b.Add(&Message{Payload: []byte("b")}, 2, nil)
	if !b.ReachedLimit() {
		t.Fatal("ReachedLimit() = false with 2/2 messages, want true")
	}
}

func TestBatchContainer_FlushResetsAndPreservesOrder(t *testing.T) {
	b := newBatchContainer(10, 1024)
	var calls []uint64
	cb := func(seq uint64) sendCallback {
		return func(MessageID, error) { calls = append(calls, seq) }
	}

	b.Add(&Message{Payload: []byte("one"), Key: "k"}, 1, cb(1))
	b.Add(&Message{Payload: []byte("two")}, 2, cb(2))
	b.Add(&Message{Payload: []byte("three")}, 3, cb(3))

	f := b.Flush()
	if f == nil {
		t.Fatal("Flush() = nil on a non-empty batch")
	}
	if f.firstSeq != 1 {
		t.Errorf("firstSeq = %d, want 1", f.firstSeq)
	}
	if f.numMessages != 3 {
		t.Errorf("numMessages = %d, want 3", f.numMessages)
	}
	if f.key != "k" {
		t.Errorf("key = %q, want the first entry's key %q", f.key, "k")
	}
	wantSize := len("one") + len("two") + len("three")
	if f.size != wantSize+4*3 {
		t.Errorf("size = %d, want %d (payload bytes plus a 4-byte length prefix per entry)", f.size, wantSize+4*3)
	}
	if len(f.callbacks) != 3 {
		t.Fatalf("callbacks len = %d, want 3", len(f.callbacks))
	}
	f.callbacks[0](MessageID{}, nil)
	f.callbacks[1](MessageID{}, nil)
	f.callbacks[2](MessageID{}, nil)
	if len(calls) != 3 || calls[0] != 1 || calls[1] != 2 || calls[2] != 3 {
		t.Errorf("callbacks fired in order %v, want [1 2 3]", calls)
	}

	if !b.IsEmpty() {
		t.Error("IsEmpty() = false after Flush(), want true")
	}
	if b.Flush() != nil {
		t.Error("Flush() on an empty batch = non-nil, want nil")
	}
}

package producer

import "encoding/binary"

// batchEntry is one message waiting in the open batch.
type batchEntry struct {
	msg      *Message
	seq      uint64
	callback sendCallback
}

// batchContainer accumulates messages into a single on-wire Send Operation
// (spec.md §4.3). It is owned by the producer and only ever touched under
// its mutex. Each entry's payload is length-prefixed in the flushed buffer so
// a consumer could recover individual messages, though this module never
// needs to read that format back.
type batchContainer struct {
	entries     []batchEntry
	size        int // accumulated uncompressed payload bytes
	maxMessages int
	maxBytes    int
}

func newBatchContainer(maxMessages, maxBytes int) *batchContainer {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	if maxBytes <= 0 {
		maxBytes = defaultBatchingMaxBytes
	}
	return &batchContainer{maxMessages: maxMessages, maxBytes: maxBytes}
}

func (b *batchContainer) IsEmpty() bool { return len(b.entries) == 0 }

func (b *batchContainer) Len() int { return len(b.entries) }

// HasRoomFor reports whether one more message of payloadLen bytes fits
// without exceeding either the message-count or byte-size limit.
func (b *batchContainer) HasRoomFor(payloadLen int) bool {
	if len(b.entries) == 0 {
		return true
	}
	if len(b.entries) >= b.maxMessages {
		return false
	}
	return b.size+payloadLen <= b.maxBytes
}

func (b *batchContainer) Add(msg *Message, seq uint64, cb sendCallback) {
	b.entries = append(b.entries, batchEntry{msg: msg, seq: seq, callback: cb})
	b.size += len(msg.Payload)
}

// ReachedLimit reports whether the batch is now full and should flush
// immediately rather than wait for the flush timer.
func (b *batchContainer) ReachedLimit() bool {
	return len(b.entries) >= b.maxMessages || b.size >= b.maxBytes
}

// flushed is what Flush hands back: the combined payload plus the per-entry
// bookkeeping the producer needs to build a sendOp.
type flushed struct {
	payload     []byte
	firstSeq    uint64
	numMessages int
	size        int
	key         string
	properties  map[string]string
	callbacks   []sendCallback
}

// Flush concatenates every entry's payload as a length-prefixed run and
// resets the container to empty. The first entry's key/properties become the
// batch's outer metadata, matching how a single Send frame only carries one
// partition key for the whole batch.
func (b *batchContainer) Flush() *flushed {
	if len(b.entries) == 0 {
		return nil
	}
	out := &flushed{
		firstSeq:    b.entries[0].seq,
		numMessages: len(b.entries),
		key:         b.entries[0].msg.Key,
		properties:  b.entries[0].msg.Properties,
		callbacks:   make([]sendCallback, len(b.entries)),
	}
	for i, e := range b.entries {
		var lenPrefix [4]byte
		binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(e.msg.Payload)))
		out.payload = append(out.payload, lenPrefix[:]...)
		out.payload = append(out.payload, e.msg.Payload...)
		out.callbacks[i] = e.callback
	}
	out.size = len(out.payload)

	b.entries = nil
	b.size = 0
	return out
}

const defaultBatchingMaxBytes = 128 * 1024

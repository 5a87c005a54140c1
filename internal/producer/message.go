package producer

import "time"

// Message is an application record submitted to SendAsync. Callers build one
// per logical message; the producer stamps the unexported fields in place as
// it assigns a sequence id and checksum, which is how the reuse check (spec
// invariant: a message may not be submitted twice) detects a caller handing
// back a *Message it already sent.
type Message struct {
	Payload    []byte
	Properties map[string]string
	Key        string

	// Replicated marks a message produced by geo-replication rather than a
	// direct caller; it is exempt from the reuse check since replication
	// legitimately resends the same stamped message to a new cluster.
	Replicated bool

	stamped      bool
	producerName string
	sequenceID   uint64
	publishTime  time.Time
	checksum     uint64
	hasChecksum  bool
}

// MessageID identifies one message's position in a topic once acknowledged.
// BatchIndex is -1 for a message that was not part of a batch.
type MessageID struct {
	LedgerID       uint64
	EntryID        uint64
	PartitionIndex int32
	BatchIndex     int32
}

// SendResult is delivered on the channel SendAsync returns.
type SendResult struct {
	ID  MessageID
	Err error
}

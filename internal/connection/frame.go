package connection

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/pulsar-local-lab/producer-core/internal/compression"
)

// FrameKind identifies the wire message type, mirroring the handful of RPCs
// spec.md §6 names: a data send, a create-producer request, and a
// close-producer request.
type FrameKind uint8

const (
	// FrameSend carries one on-wire Send Operation (singleton or batch).
	FrameSend FrameKind = iota + 1
	// FrameCreateProducer registers a producer on a connection.
	FrameCreateProducer
	// FrameCloseProducer unregisters a producer from a connection.
	FrameCloseProducer
)

// Metadata is the per-send wire metadata a producer stamps before dispatch
// (spec.md §4.2 step 5): producer identity, ordering, timing, and the
// optional compression/checksum fields.
type Metadata struct {
	ProducerName     string
	SequenceID       uint64
	PublishTime      time.Time
	Compression      compression.Type
	UncompressedSize uint32
	Checksum         uint64
	NumMessages      int
	PartitionKey     string
	Properties       map[string]string
}

// Frame is a fully-built wire message: a FrameKind plus a reference-counted
// payload buffer ready to hand to a Connection's write path.
type Frame struct {
	Kind       FrameKind
	ProducerID uint64
	RequestID  uint64
	SequenceID uint64
	Buf        *Buffer
}

// NewSend builds a Send frame for producerID carrying numMessages app
// messages (1 for a non-batched send) under metadata, with payload already
// compressed by the caller. The payload checksum the caller stamped on
// metadata is encoded into the header; the frame itself carries no separate
// checksum. This is the "frame codec" collaborator spec.md §6 describes.
func NewSend(producerID uint64, sequenceID uint64, numMessages int, metadata Metadata, payload []byte) (*Frame, error) {
	if numMessages <= 0 {
		return nil, fmt.Errorf("connection: NewSend: numMessages must be positive, got %d", numMessages)
	}
	metadata.SequenceID = sequenceID
	metadata.NumMessages = numMessages

	header := encodeMetadata(metadata)
	buf := make([]byte, 0, 1+8+8+4+len(header)+len(payload))
	buf = append(buf, byte(FrameSend))
	buf = appendUint64(buf, producerID)
	buf = appendUint64(buf, sequenceID)
	buf = appendUint32(buf, uint32(len(header)))
	buf = append(buf, header...)
	buf = append(buf, payload...)

	return &Frame{
		Kind:       FrameSend,
		ProducerID: producerID,
		SequenceID: sequenceID,
		Buf:        NewBuffer(buf),
	}, nil
}

// NewProducer builds a create-producer request frame.
func NewProducer(topic string, producerID uint64, requestID uint64, producerName string) (*Frame, error) {
	if topic == "" {
		return nil, fmt.Errorf("connection: NewProducer: topic must not be empty")
	}
	buf := []byte{byte(FrameCreateProducer)}
	buf = appendUint64(buf, producerID)
	buf = appendUint64(buf, requestID)
	buf = appendString(buf, topic)
	buf = appendString(buf, producerName)

	return &Frame{
		Kind:       FrameCreateProducer,
		ProducerID: producerID,
		RequestID:  requestID,
		Buf:        NewBuffer(buf),
	}, nil
}

// NewCloseProducer builds a close-producer request frame.
func NewCloseProducer(producerID uint64, requestID uint64) (*Frame, error) {
	buf := []byte{byte(FrameCloseProducer)}
	buf = appendUint64(buf, producerID)
	buf = appendUint64(buf, requestID)

	return &Frame{
		Kind:       FrameCloseProducer,
		ProducerID: producerID,
		RequestID:  requestID,
		Buf:        NewBuffer(buf),
	}, nil
}

func encodeMetadata(m Metadata) []byte {
	buf := appendString(nil, m.ProducerName)
	buf = appendUint64(buf, uint64(m.PublishTime.UnixNano()))
	buf = append(buf, byte(m.Compression))
	buf = appendUint32(buf, m.UncompressedSize)
	buf = appendUint64(buf, m.Checksum)
	buf = appendUint32(buf, uint32(m.NumMessages))
	buf = appendString(buf, m.PartitionKey)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// Checksum returns the xxHash64 checksum of data, used as the
// application-level payload checksum (spec.md §4.2 step 3). LocalBroker does
// not verify it.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

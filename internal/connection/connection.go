// Package connection defines the multiplexed broker connection spec.md §1
// calls an external collaborator ("only its interface matters"): the frame
// writer, request/response correlator, and channel liveness the producer
// core depends on but never implements. It also provides Frame/Buffer (the
// wire-level types the frame codec collaborator produces) and a LocalBroker
// fake used by tests and the demo command in place of a real broker.
package connection

import "context"

// Executor is a connection's serialized I/O execution context (spec.md
// §4.5, §5: "posted to the connection's I/O executor... not the caller's
// thread"). All writes for a given connection that go through the same
// Executor are totally ordered.
type Executor interface {
	Post(fn func())
}

// Response is the result of a request/response RPC (create-producer or
// close-producer). ProducerName is populated only for a successful
// create-producer response, matching spec.md §4.9 step 2 ("the broker
// returns a definitive producer_name").
type Response struct {
	ProducerName string
	Err          error
}

// ProducerHandler receives the inbound callbacks spec.md §6 lists: a
// connection becoming available, a connection failing before it ever
// succeeded, and an ack arriving for a previously-sent sequence id.
type ProducerHandler interface {
	ConnectionOpened(cnx Connection)
	ConnectionFailed(err error)
	AckReceived(cnx Connection, sequenceID uint64, ledgerID uint64, entryID uint64)
}

// Connection is the multiplexed, persistent, framed connection to a broker.
// A Producer holds at most one Connection at a time and never writes to it
// directly — writes are always posted to Executor() (spec.md §4.5).
type Connection interface {
	// ID identifies the connection for logging/diagnostics and for
	// GetConnectionId().
	ID() string

	// Executor returns the serialized I/O execution context for this
	// connection.
	Executor() Executor

	// SendRequest issues a request/response RPC (create-producer,
	// close-producer) and blocks for a response or ctx cancellation.
	SendRequest(ctx context.Context, frame *Frame) (*Response, error)

	// RegisterProducer binds handler to receive inbound callbacks
	// addressed to producerID on this connection.
	RegisterProducer(producerID uint64, handler ProducerHandler)

	// RemoveProducer unbinds a previously registered producer.
	RemoveProducer(producerID uint64)

	// Write enqueues frame for transmission. Must be called from within
	// Executor() to preserve ordering.
	Write(frame *Frame)

	// Flush forces any buffered writes out onto the wire.
	Flush()

	// IsActive reports whether the underlying channel is still alive.
	IsActive() bool

	// IsWritable reports whether the channel can currently accept more
	// writes without blocking (backpressure from the transport itself).
	IsWritable() bool

	// Close tears the connection down. Safe to call multiple times.
	Close()
}

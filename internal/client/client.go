// Package client models the client-wide collaborator the producer core
// depends on but does not own: producer-id/request-id allocation, a shared
// timer wheel, and the operation timeout. Spec.md lists these as external
// collaborators ("only their interfaces matter"); this package provides the
// interface plus one concrete, dependency-free implementation suitable for
// a single process.
package client

import (
	"time"

	"go.uber.org/atomic"
)

// Client is the subset of the client-wide object a Producer depends on.
type Client struct {
	producerIDs *IDGenerator
	requestIDs  *IDGenerator
	timer       *TimerWheel
	opTimeout   time.Duration
}

// New builds a Client with fresh id generators and a running timer wheel.
// operationTimeout is the duration used to gate reconnect-retry decisions
// (spec.md §4.9, §9).
func New(operationTimeout time.Duration) *Client {
	return &Client{
		producerIDs: NewIDGenerator(),
		requestIDs:  NewIDGenerator(),
		timer:       NewTimerWheel(),
		opTimeout:   operationTimeout,
	}
}

// NewProducerID returns a fresh, process-unique producer id.
func (c *Client) NewProducerID() uint64 { return c.producerIDs.Next() }

// NewRequestID returns a fresh, process-unique request id for RPC correlation.
func (c *Client) NewRequestID() uint64 { return c.requestIDs.Next() }

// Timer returns the shared timer wheel used to schedule sweepers and flush
// timers so that many producers don't each spin their own goroutine.
func (c *Client) Timer() *TimerWheel { return c.timer }

// OperationTimeout is the duration RPCs (create-producer, close-producer)
// are allowed before being treated as failed for retry-gating purposes.
func (c *Client) OperationTimeout() time.Duration { return c.opTimeout }

// Close stops the shared timer wheel. Safe to call once all owned producers
// have been closed.
func (c *Client) Close() { c.timer.Close() }

// IDGenerator hands out strictly increasing, never-reused uint64 values.
type IDGenerator struct {
	next atomic.Uint64
}

// NewIDGenerator returns a generator starting at 0.
func NewIDGenerator() *IDGenerator { return &IDGenerator{} }

// Next returns the next id in the sequence (fetch-and-increment).
func (g *IDGenerator) Next() uint64 { return g.next.Inc() - 1 }

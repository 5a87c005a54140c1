package producer

import (
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/compression"
)

// Options configures a Producer, covering the knobs spec.md §6 names:
// max_pending_messages, block_if_queue_full, send_timeout_ms,
// compression_type, and the batching_* family.
type Options struct {
	Topic string
	// Name pins the producer's name instead of letting the broker assign
	// one. Leave empty to let the create-producer response supply it.
	Name           string
	PartitionIndex int32

	MaxPendingMessages int
	BlockIfQueueFull   bool

	// SendTimeout bounds how long a Send Operation may sit in the window
	// unacknowledged before the whole window fails. Zero disables the
	// sweeper.
	SendTimeout time.Duration

	Compression compression.Type

	BatchingEnabled         bool
	BatchingMaxMessages     int
	BatchingMaxBytes        int
	BatchingMaxPublishDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxPendingMessages <= 0 {
		o.MaxPendingMessages = 1000
	}
	if o.BatchingMaxMessages <= 0 {
		o.BatchingMaxMessages = 1000
	}
	if o.BatchingMaxBytes <= 0 {
		o.BatchingMaxBytes = defaultBatchingMaxBytes
	}
	if o.BatchingMaxPublishDelay <= 0 {
		o.BatchingMaxPublishDelay = 10 * time.Millisecond
	}
	return o
}

const (
	defaultMinBackoff = 100 * time.Millisecond
	defaultMaxBackoff = 60 * time.Second
)

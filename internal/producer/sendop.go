package producer

import (
	"sync"
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/connection"
)

// sendCallback resolves one application-level send. err is nil on ack.
type sendCallback func(MessageID, error)

// sendOp is one on-wire Send Operation sitting in the in-flight window: a
// singleton carries one callback, a batch carries one per constituent
// message (spec.md §4.3/§4.4). sendOps are pooled since a high-throughput
// producer allocates and retires them continuously.
type sendOp struct {
	sequenceID  uint64
	frame       *connection.Frame
	numMessages int
	size        int
	createdAt   time.Time
	callbacks   []sendCallback
}

var sendOpPool = sync.Pool{New: func() interface{} { return &sendOp{} }}

func getSendOp() *sendOp {
	return sendOpPool.Get().(*sendOp)
}

func putSendOp(op *sendOp) {
	op.frame = nil
	op.callbacks = op.callbacks[:0]
	sendOpPool.Put(op)
}

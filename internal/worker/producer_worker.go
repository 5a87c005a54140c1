package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pulsar-local-lab/producer-core/internal/client"
	"github.com/pulsar-local-lab/producer-core/internal/compression"
	"github.com/pulsar-local-lab/producer-core/internal/config"
	"github.com/pulsar-local-lab/producer-core/internal/generator"
	"github.com/pulsar-local-lab/producer-core/internal/log"
	"github.com/pulsar-local-lab/producer-core/internal/metrics"
	"github.com/pulsar-local-lab/producer-core/internal/producer"
	"github.com/pulsar-local-lab/producer-core/pkg/ratelimit"
)

// ProducerWorker drives one internal/producer.Producer in a tight send loop,
// recording latency and throughput into a shared metrics.Collector.
type ProducerWorker struct {
	id         int
	prod       *producer.Producer
	pool       *generator.PayloadPool
	collector  *metrics.Collector
	limiter    *ratelimit.Limiter
	config     *config.Config
	workerCtx  context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// compressionFromConfig maps the config package's string compression type
// onto the producer package's compression.Type.
func compressionFromConfig(ct string) compression.Type {
	switch ct {
	case config.CompressionLZ4:
		return compression.LZ4
	case config.CompressionZLIB:
		return compression.ZLib
	case config.CompressionZSTD:
		return compression.ZSTD
	default:
		return compression.None
	}
}

// NewProducerWorker builds a producer worker backed by a freshly created
// internal/producer.Producer for cfg.Pulsar.Topic.
func NewProducerWorker(ctx context.Context, id int, cfg *config.Config, collector *metrics.Collector, cl *client.Client, provider producer.ConnectionProvider, logger log.Logger) (*ProducerWorker, error) {
	opts := producer.Options{
		Topic:                   cfg.Pulsar.Topic,
		MaxPendingMessages:      cfg.Producer.MaxPendingMsg,
		BlockIfQueueFull:        true,
		SendTimeout:             cfg.Producer.SendTimeout,
		Compression:             compressionFromConfig(cfg.Producer.CompressionType),
		BatchingEnabled:         cfg.Producer.BatchingEnabled,
		BatchingMaxMessages:     cfg.Producer.BatchingMaxSize,
		BatchingMaxPublishDelay: 10 * time.Millisecond,
	}

	prod, err := producer.NewProducer(ctx, opts, cl, provider, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	pool := generator.NewPayloadPool(cfg.Producer.MessageSize, 100)

	var limiter *ratelimit.Limiter
	if cfg.Performance.RateLimitEnabled && cfg.Performance.TargetThroughput > 0 {
		ratePerWorker := cfg.Performance.TargetThroughput / cfg.Producer.NumProducers
		limiter = ratelimit.NewLimiter(ratePerWorker)
	}

	return &ProducerWorker{
		id:        id,
		prod:      prod,
		pool:      pool,
		collector: collector,
		limiter:   limiter,
		config:    cfg,
	}, nil
}

// Start runs the send loop until the worker's context is cancelled or the
// configured test duration elapses.
func (pw *ProducerWorker) Start(ctx context.Context) error {
	workCtx := pw.workerCtx
	if workCtx == nil {
		workCtx = ctx
	}

	pw.wg.Add(1)
	defer pw.wg.Done()

	if pw.config.Performance.Warmup > 0 {
		time.Sleep(pw.config.Performance.Warmup)
	}

	startTime := time.Now()
	for {
		select {
		case <-workCtx.Done():
			return nil
		default:
		}

		if pw.config.Performance.Duration > 0 &&
			time.Since(startTime) >= pw.config.Performance.Duration {
			return nil
		}

		if pw.limiter != nil {
			if err := pw.limiter.Wait(workCtx); err != nil {
				return nil
			}
		}

		payload := pw.pool.Get()
		generator.GenerateRandomPayloadTo(payload)

		sendStart := time.Now()
		_, err := pw.prod.Send(workCtx, &producer.Message{Payload: payload})
		sendLatency := time.Since(sendStart)

		pw.pool.Put(payload)

		if err != nil {
			if workCtx.Err() != nil {
				return nil
			}
			pw.collector.RecordFailure()
			continue
		}

		pw.collector.RecordSend(len(payload), sendLatency)
	}
}

// Stop closes the underlying producer: in-flight sends fail with
// ErrAlreadyClosed, and any messages still sitting in an open (unflushed)
// batch fail the same way rather than being silently dropped.
func (pw *ProducerWorker) Stop() error {
	return pw.prod.Close(context.Background())
}

// ID returns the worker ID.
func (pw *ProducerWorker) ID() int {
	return pw.id
}

// OldestPendingDelayMillis reports how long this worker's oldest in-flight
// message has been awaiting an ack, in milliseconds.
func (pw *ProducerWorker) OldestPendingDelayMillis() int64 {
	return pw.prod.GetOldestPendingDelayMillis()
}

// UpdateRateLimiter updates the rate limiter with a new rate per second. A
// rate of 0 disables rate limiting.
func (pw *ProducerWorker) UpdateRateLimiter(ratePerSecond int) {
	if ratePerSecond <= 0 {
		if pw.limiter != nil {
			pw.limiter.Stop()
			pw.limiter = nil
		}
		return
	}

	if pw.limiter != nil {
		pw.limiter.SetRate(ratePerSecond)
	} else {
		pw.limiter = ratelimit.NewLimiter(ratePerSecond)
	}
}

// SetContext sets the worker's context and cancel function. Must be called
// before Start() to enable proper shutdown.
func (pw *ProducerWorker) SetContext(ctx context.Context, cancel context.CancelFunc) {
	pw.workerCtx = ctx
	pw.cancelFunc = cancel
}

// CancelContext cancels the worker's context, signaling it to stop.
func (pw *ProducerWorker) CancelContext() {
	if pw.cancelFunc != nil {
		pw.cancelFunc()
	}
}

// WaitForCompletion waits for the worker's goroutine to finish.
func (pw *ProducerWorker) WaitForCompletion() {
	pw.wg.Wait()
}

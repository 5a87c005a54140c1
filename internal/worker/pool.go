package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pulsar-local-lab/producer-core/internal/client"
	"github.com/pulsar-local-lab/producer-core/internal/config"
	"github.com/pulsar-local-lab/producer-core/internal/connection"
	"github.com/pulsar-local-lab/producer-core/internal/log"
	"github.com/pulsar-local-lab/producer-core/internal/metrics"
	"github.com/pulsar-local-lab/producer-core/internal/producer"
)

// Pool represents a pool of producer workers sharing one client and one
// simulated broker connection for cfg.Pulsar.Topic.
type Pool struct {
	workers   []Worker
	collector *metrics.Collector
	config    *config.Config
	client    *client.Client
	provider  producer.ConnectionProvider
	logger    log.Logger
	wg        sync.WaitGroup
	mu        sync.RWMutex
	running   bool
}

// Worker interface for producer workers.
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	ID() int
	OldestPendingDelayMillis() int64
}

// localBrokerProvider hands every producer the same in-memory broker
// connection, standing in for a real client connection pool that would
// otherwise dial and cache one connection per broker address.
type localBrokerProvider struct {
	cnx *connection.LocalBroker
}

func (p *localBrokerProvider) GetConnection(ctx context.Context) (connection.Connection, error) {
	return p.cnx, nil
}

// NewProducerPool creates a new producer worker pool. All workers in the
// pool publish to cfg.Pulsar.Topic through a single simulated broker
// connection, matching how producers on the same topic partition share a
// broker connection in a real deployment.
func NewProducerPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*Pool, error) {
	collector := metrics.NewCollector(cfg.Metrics.HistogramBuckets)

	cl := client.New(cfg.Producer.SendTimeout)
	broker := connection.NewLocalBroker(cfg.Pulsar.ServiceURL, 1)
	provider := &localBrokerProvider{cnx: broker}

	pool := &Pool{
		workers:   make([]Worker, 0, cfg.Producer.NumProducers),
		collector: collector,
		config:    cfg,
		client:    cl,
		provider:  provider,
		logger:    logger,
	}

	for i := 0; i < cfg.Producer.NumProducers; i++ {
		workerCtx, cancelFunc := context.WithCancel(ctx)

		w, err := NewProducerWorker(workerCtx, i, cfg, collector, cl, provider, logger)
		if err != nil {
			cancelFunc()
			pool.Stop()
			return nil, fmt.Errorf("failed to create producer worker %d: %w", i, err)
		}
		w.SetContext(workerCtx, cancelFunc)

		pool.workers = append(pool.workers, w)
	}

	return pool, nil
}

// NewWorker builds a producer worker sharing this pool's client, connection
// provider and metrics collector, for use with AddWorker.
func (p *Pool) NewWorker(ctx context.Context, id int) (Worker, error) {
	p.mu.RLock()
	cfg := p.config
	cl := p.client
	provider := p.provider
	logger := p.logger
	collector := p.collector
	p.mu.RUnlock()

	return NewProducerWorker(ctx, id, cfg, collector, cl, provider, logger)
}

// Start starts all workers in the pool
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pool already running")
	}
	p.running = true
	p.mu.Unlock()

	// Start all workers
	for _, worker := range p.workers {
		p.wg.Add(1)
		go func(w Worker) {
			defer p.wg.Done()
			if err := w.Start(ctx); err != nil {
				// Silently handle error - logging to stdout breaks the TUI
				// In production, would log to file or structured logger
				_ = err
			}
		}(worker)
	}

	return nil
}

// Stop stops all workers in the pool
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	// Stop all workers, collecting every producer-close failure rather
	// than bailing out on the first one.
	var result *multierror.Error
	for _, worker := range p.workers {
		if err := worker.Stop(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	// Wait for all workers to finish with timeout
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// All workers stopped successfully
	case <-time.After(10 * time.Second):
		// Timeout - workers taking too long to stop
		return fmt.Errorf("timeout waiting for workers to stop")
	}

	return result.ErrorOrNil()
}

// GetMetrics returns the metrics collector
func (p *Pool) GetMetrics() *metrics.Collector {
	return p.collector
}

// IsRunning returns whether the pool is running
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// WorkerCount returns the number of workers
func (p *Pool) WorkerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.workers)
}

// OldestPendingDelayMillis returns the largest in-flight ack wait across all
// workers, for a dashboard "oldest pending message age" gauge.
func (p *Pool) OldestPendingDelayMillis() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var max int64
	for _, w := range p.workers {
		if d := w.OldestPendingDelayMillis(); d > max {
			max = d
		}
	}
	return max
}

// AddWorker adds a new worker to the pool dynamically
func (p *Pool) AddWorker(ctx context.Context, workerFactory func(int) (Worker, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	workerID := len(p.workers)
	worker, err := workerFactory(workerID)
	if err != nil {
		return fmt.Errorf("failed to create worker %d: %w", workerID, err)
	}

	// Set per-worker context for ProducerWorker
	if pw, ok := worker.(*ProducerWorker); ok {
		workerCtx, cancelFunc := context.WithCancel(ctx)
		pw.SetContext(workerCtx, cancelFunc)
	}

	p.workers = append(p.workers, worker)

	// Start the worker if pool is running
	if p.running {
		p.wg.Add(1)
		go func(w Worker) {
			defer p.wg.Done()
			if err := w.Start(ctx); err != nil {
				// Silently handle error - logging to stdout breaks the TUI
				_ = err
			}
		}(worker)
	}

	return nil
}

// RemoveWorker removes the last worker from the pool with graceful shutdown
func (p *Pool) RemoveWorker() error {
	p.mu.Lock()

	if len(p.workers) == 0 {
		p.mu.Unlock()
		return fmt.Errorf("no workers to remove")
	}

	// Don't allow removing the last worker
	if len(p.workers) == 1 {
		p.mu.Unlock()
		return fmt.Errorf("cannot remove last worker")
	}

	// Get the last worker and current target rate
	lastWorker := p.workers[len(p.workers)-1]
	currentTargetRate := p.config.Performance.TargetThroughput

	// Remove from slice immediately to prevent new rate calculations from including it
	p.workers = p.workers[:len(p.workers)-1]
	newWorkerCount := len(p.workers)

	p.mu.Unlock()

	// Step 1: Cancel the worker's context to signal it to stop
	if pw, ok := lastWorker.(*ProducerWorker); ok {
		pw.CancelContext()

		// Step 2: Wait for the goroutine to finish (with timeout)
		done := make(chan struct{})
		go func() {
			pw.WaitForCompletion()
			close(done)
		}()

		select {
		case <-done:
			// Worker stopped gracefully
		case <-time.After(5 * time.Second):
			// Timeout - continue anyway to prevent UI hang
			// The worker will eventually stop but might still try to send to closed client
		}
	}

	// Step 3: Now it's safe to stop (close the underlying producer)
	if err := lastWorker.Stop(); err != nil {
		// Don't return error - worker is already removed from pool
		_ = err
	}

	// Step 4: Recalculate rate limits for remaining workers
	if currentTargetRate > 0 && newWorkerCount > 0 {
		p.mu.Lock()
		ratePerWorker := currentTargetRate / newWorkerCount
		if ratePerWorker == 0 {
			ratePerWorker = 1
		}
		for _, worker := range p.workers {
			if pw, ok := worker.(*ProducerWorker); ok {
				pw.UpdateRateLimiter(ratePerWorker)
			}
		}
		p.mu.Unlock()
	}

	return nil
}

// GetConfig returns the current configuration
func (p *Pool) GetConfig() *config.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// UpdateTargetRate updates the target throughput rate and propagates to all workers
func (p *Pool) UpdateTargetRate(rate int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Update config
	p.config.Performance.TargetThroughput = rate
	if rate > 0 {
		p.config.Performance.RateLimitEnabled = true
	} else {
		p.config.Performance.RateLimitEnabled = false
	}

	// Calculate per-worker rate
	numWorkers := len(p.workers)
	if numWorkers == 0 {
		return
	}

	ratePerWorker := 0
	if rate > 0 {
		ratePerWorker = rate / numWorkers
		if ratePerWorker == 0 {
			ratePerWorker = 1 // Ensure at least 1 msg/s per worker
		}
	}

	// Update all producer workers
	for _, worker := range p.workers {
		if pw, ok := worker.(*ProducerWorker); ok {
			pw.UpdateRateLimiter(ratePerWorker)
		}
	}
}

// UpdateBatchSize updates the batching max size
func (p *Pool) UpdateBatchSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Producer.BatchingMaxSize = size
}

// UpdateCompression updates the compression type
func (p *Pool) UpdateCompression(compressionType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Producer.CompressionType = compressionType
}

// UpdateMessageSize updates the message size
func (p *Pool) UpdateMessageSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Producer.MessageSize = size
}

// RestartWorkers restarts all workers to apply immutable configuration changes.
// This is needed for settings like batch size, compression, and message size.
func (p *Pool) RestartWorkers(ctx context.Context) error {
	p.mu.Lock()

	// Store current state
	wasRunning := p.running
	currentWorkerCount := len(p.workers)
	currentConfig := p.config

	// Stop all workers
	oldWorkers := p.workers
	p.workers = make([]Worker, 0, currentWorkerCount)
	p.mu.Unlock()

	// Cancel all worker contexts and wait for them to stop
	for _, worker := range oldWorkers {
		if pw, ok := worker.(*ProducerWorker); ok {
			pw.CancelContext()
		}
	}

	// Wait for all goroutines to finish (with timeout)
	done := make(chan struct{})
	go func() {
		for _, worker := range oldWorkers {
			if pw, ok := worker.(*ProducerWorker); ok {
				pw.WaitForCompletion()
			}
		}
		close(done)
	}()

	select {
	case <-done:
		// All workers stopped
	case <-time.After(10 * time.Second):
		// Timeout - continue anyway
	}

	// Stop all old workers
	for _, worker := range oldWorkers {
		_ = worker.Stop()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	// Create new workers with updated configuration
	for i := 0; i < currentWorkerCount; i++ {
		workerCtx, cancelFunc := context.WithCancel(ctx)

		w, err := NewProducerWorker(workerCtx, i, currentConfig, p.collector, p.client, p.provider, p.logger)
		if err != nil {
			cancelFunc()
			return fmt.Errorf("failed to create worker %d during restart: %w", i, err)
		}
		w.SetContext(workerCtx, cancelFunc)

		p.mu.Lock()
		p.workers = append(p.workers, w)
		p.mu.Unlock()
	}

	// Start workers if pool was running before
	if wasRunning {
		return p.Start(ctx)
	}

	return nil
}

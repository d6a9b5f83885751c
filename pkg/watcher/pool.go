package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// ErrPoolClosed is returned by Submit once the pool has started draining.
var ErrPoolClosed = errors.New("worker pool is closed")

// PoolStatus represents the pool's lifecycle state.
type PoolStatus string

const (
	PoolStatusRunning  PoolStatus = "running"
	PoolStatusDraining PoolStatus = "draining"
	PoolStatusStopped  PoolStatus = "stopped"
)

// Job is a unit of summarization work. ctx is cancelled when a drain deadline
// passes; the job is still invoked so it can record its own abandonment.
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	Workers   int
	QueueSize int

	// OnStart and OnFinish are called around every job, typically to move
	// the in-flight gauge.
	OnStart  func()
	OnFinish func()
}

// Pool is a bounded set of workers reading from a job channel.
type Pool struct {
	config PoolConfig
	logger logging.Logger

	jobs chan Job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	status PoolStatus

	// ctx is handed to jobs. It outlives any caller context and is cancelled
	// only when Drain gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc

	inFlight  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a pool and starts its workers.
func NewPool(config PoolConfig, logger logging.Logger) *Pool {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: config,
		logger: logger.With(logging.F("component", "worker_pool")),
		jobs:   make(chan Job, config.QueueSize),
		status: PoolStatusRunning,
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < config.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(job)
			}
		}()
	}
	return p
}

// Submit enqueues job. It blocks only while the queue is full, and returns
// early if ctx is cancelled or the pool is draining.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.status != PoolStatusRunning {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run(job Job) {
	p.inFlight.Add(1)
	if p.config.OnStart != nil {
		p.config.OnStart()
	}
	defer func() {
		p.inFlight.Add(-1)
		if p.config.OnFinish != nil {
			p.config.OnFinish()
		}
	}()

	if err := p.safeRun(job); err != nil {
		p.failed.Add(1)
		p.logger.Debug("Job failed", logging.F("job_id", job.ID), logging.Err(err))
		return
	}
	p.processed.Add(1)
}

func (p *Pool) safeRun(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Job panicked", logging.F("job_id", job.ID), logging.F("panic", fmt.Sprint(r)))
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(p.ctx)
}

// Drain stops accepting jobs and waits for queued and running jobs to finish.
// When ctx ends first, the job context is cancelled and Drain waits for the
// workers to unwind, reporting false. A ctx without a deadline waits forever.
func (p *Pool) Drain(ctx context.Context) bool {
	p.mu.Lock()
	if p.status == PoolStatusRunning {
		p.status = PoolStatusDraining
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	completed := true
	select {
	case <-done:
	case <-ctx.Done():
		completed = false
		p.logger.Warn("Drain deadline reached, cancelling remaining jobs",
			logging.F("in_flight", p.inFlight.Load()),
			logging.F("queued", len(p.jobs)))
		p.cancel()
		<-done
	}

	p.mu.Lock()
	p.status = PoolStatusStopped
	p.mu.Unlock()
	p.cancel()
	return completed
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	status := p.status
	p.mu.RUnlock()

	return PoolStats{
		Status:    status,
		Workers:   p.config.Workers,
		Queued:    len(p.jobs),
		InFlight:  p.inFlight.Load(),
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Status    PoolStatus
	Workers   int
	Queued    int
	InFlight  int64
	Processed int64
	Failed    int64
}

// drainContext bounds a drain by d, or not at all when d is zero. Cancelling
// parent does not cut the drain short.
func drainContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.WithoutCancel(parent))
	}
	return context.WithTimeout(context.WithoutCancel(parent), d)
}

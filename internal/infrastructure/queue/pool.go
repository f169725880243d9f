package queue

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const channelBuffer = 256

// ErrPoolStopped is returned by Do once the pool has been shut down.
var ErrPoolStopped = errors.New("queue: pool stopped")

const (
	jobQueued int32 = iota
	jobClaimed
	jobAbandoned
)

type job struct {
	fn    func()
	state atomic.Int32
	done  chan struct{}
}

// Pool runs CPU-bound work on a fixed set of workers so that bursts of
// requests cannot run more than a bounded number of jobs at once.
type Pool struct {
	jobs    chan *job
	workers int
	log     zerolog.Logger

	stopOnce sync.Once
	stopped  chan struct{}
	wg       sync.WaitGroup
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, runtime.NumCPU() is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{
		jobs:    make(chan *job, channelBuffer),
		workers: numWorkers,
		log:     log,
		stopped: make(chan struct{}),
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	p.log.Debug().Int("workers", p.workers).Msg("worker pool started")
}

// Stop signals every worker to exit and waits for them.
func (p *Pool) Stop() {
	p.stop()
	p.wg.Wait()
}

func (p *Pool) stop() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

// Do runs fn on a worker and blocks until it has finished. If ctx is done
// or the pool stops before a worker picks the job up, fn never runs and the
// corresponding error is returned.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	j := &job{fn: fn, done: make(chan struct{})}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return ErrPoolStopped
	case p.jobs <- j:
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		if j.state.CompareAndSwap(jobQueued, jobAbandoned) {
			return ctx.Err()
		}
	case <-p.stopped:
		if j.state.CompareAndSwap(jobQueued, jobAbandoned) {
			return ErrPoolStopped
		}
	}
	// a worker already claimed the job
	<-j.done
	return nil
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.stop()
			return
		case <-p.stopped:
			return
		case j := <-p.jobs:
			p.run(id, j)
		}
	}
}

func (p *Pool) run(id int, j *job) {
	if !j.state.CompareAndSwap(jobQueued, jobClaimed) {
		return
	}
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker_id", id).Msg("job panicked")
		}
	}()
	j.fn()
}

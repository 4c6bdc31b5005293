package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofhir/hl7v2/pkg/parser"
)

// ErrNoParser is returned when the pool has no parser configured.
var ErrNoParser = errors.New("worker: no parser configured")

// Parser parses one raw message. *parser.Parser satisfies it.
type Parser interface {
	ParseBytes(b []byte) (*parser.Document, error)
}

// Pool runs a fixed set of parsing goroutines.
type Pool struct {
	workers    int
	jobsChan   chan Job
	resultChan chan *JobResult
	parser     Parser
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	totalDuration atomic.Int64
}

// NewPool creates a pool with the given number of workers. If workers <= 0,
// it defaults to runtime.NumCPU().
func NewPool(p Parser, workers int) *Pool {
	return NewPoolContext(context.Background(), p, workers)
}

// NewPoolContext is NewPool with a parent context. Cancelling ctx stops the
// workers after their current job.
func NewPoolContext(ctx context.Context, p Parser, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)

	pool := &Pool{
		workers:    workers,
		jobsChan:   make(chan Job, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		parser:     p,
		ctx:        ctx,
		cancel:     cancel,
	}
	pool.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}
	return pool
}

// Submit queues a job, blocking while the queue is full. It returns false
// when the pool is closed or cancelled.
func (p *Pool) Submit(job Job) bool {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()
	if p.closed.Load() {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// TrySubmit queues a job without blocking.
func (p *Pool) TrySubmit(job Job) bool {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()
	if p.closed.Load() {
		return false
	}
	select {
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	default:
		return false
	}
}

// Results returns the channel results are delivered on. It is closed once
// the pool is closed and every worker has exited.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// stop refuses further submissions and closes the job queue once.
func (p *Pool) stop() bool {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	if p.closed.Swap(true) {
		return false
	}
	close(p.jobsChan)
	return true
}

// Close cancels pending work, discards undelivered results and waits for
// the workers to exit.
func (p *Pool) Close() {
	// Cancel first so that a blocked Submit releases the submit lock.
	p.cancel()
	if !p.stop() {
		return
	}

	done := make(chan struct{})
	go func() {
		for range p.resultChan {
		}
		close(done)
	}()
	p.wg.Wait()
	close(p.resultChan)
	<-done
}

// Finish stops accepting jobs without waiting. Queued jobs still run, and
// Results is closed once the last of them is delivered. Use it when a
// consumer reads Results directly.
func (p *Pool) Finish() {
	if !p.stop() {
		return
	}
	go func() {
		p.wg.Wait()
		close(p.resultChan)
		p.cancel()
	}()
}

// CloseAndWait stops accepting jobs, lets queued jobs finish and returns
// every result not already read from Results.
func (p *Pool) CloseAndWait() *BatchResult {
	if p.closed.Load() {
		return &BatchResult{}
	}

	// Results are drained before stopping so that workers, and any Submit
	// waiting on them, keep making progress.
	collected := make(chan []*JobResult)
	go func() {
		var results []*JobResult
		for r := range p.resultChan {
			results = append(results, r)
		}
		collected <- results
	}()

	if !p.stop() {
		// Lost a race with Close, which owns the result channel now.
		<-collected
		return &BatchResult{}
	}
	p.wg.Wait()
	close(p.resultChan)
	p.cancel()

	results := <-collected
	br := summarize(results)
	br.TotalJobs = int(p.jobsSubmitted.Load()) //nolint:gosec // job counts fit in int
	return br
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Workers       int           `json:"workers"`
	JobsSubmitted uint64        `json:"jobs_submitted"`
	JobsCompleted uint64        `json:"jobs_completed"`
	JobsFailed    uint64        `json:"jobs_failed"`
	AvgDuration   time.Duration `json:"avg_duration_ns"`
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		JobsFailed:    p.jobsFailed.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		if p.ctx.Err() != nil {
			return
		}
		result := p.process(job)
		p.jobsCompleted.Add(1)
		if result.Error != nil {
			p.jobsFailed.Add(1)
		}
		p.totalDuration.Add(int64(result.Duration))

		select {
		case <-p.ctx.Done():
			return
		case p.resultChan <- result:
		}
	}
}

func (p *Pool) process(job Job) *JobResult {
	start := time.Now()
	result := &JobResult{ID: job.ID, Index: job.Index, Line: job.Line}
	if p.parser == nil {
		result.Error = ErrNoParser
	} else {
		result.Document, result.Error = p.parser.ParseBytes(job.Message)
	}
	result.Duration = time.Since(start)
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / int64(completed)) //nolint:gosec // job counts fit in int64
}

package worker

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gofhir/hl7v2/pkg/parser"
)

// ParseFunc parses one raw message.
type ParseFunc func(ctx context.Context, msg []byte) (*parser.Document, error)

// BatchParser parses a slice of messages in parallel.
type BatchParser struct {
	parse   ParseFunc
	workers int
}

// NewBatchParser creates a batch parser. If workers <= 0, it defaults to
// runtime.NumCPU().
func NewBatchParser(fn ParseFunc, workers int) *BatchParser {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchParser{parse: fn, workers: workers}
}

// ForParser adapts a parser to a ParseFunc.
func ForParser(p *parser.Parser) ParseFunc {
	return func(_ context.Context, msg []byte) (*parser.Document, error) {
		return p.ParseBytes(msg)
	}
}

// ParseBatch parses every message and returns the results in input order.
// Messages not reached before ctx is cancelled have a nil result.
func (bp *BatchParser) ParseBatch(ctx context.Context, messages [][]byte) *BatchResult {
	if len(messages) <= 2 {
		return bp.parseSequential(ctx, messages)
	}
	return bp.parseParallel(ctx, messages)
}

func (bp *BatchParser) run(ctx context.Context, i int, msg []byte) *JobResult {
	start := time.Now()
	doc, err := bp.parse(ctx, msg)
	return &JobResult{
		ID:       strconv.Itoa(i),
		Index:    i,
		Document: doc,
		Error:    err,
		Duration: time.Since(start),
	}
}

func (bp *BatchParser) parseSequential(ctx context.Context, messages [][]byte) *BatchResult {
	results := make([]*JobResult, len(messages))
	for i, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		results[i] = bp.run(ctx, i, msg)
	}
	return summarize(results)
}

func (bp *BatchParser) parseParallel(ctx context.Context, messages [][]byte) *BatchResult {
	workers := min(bp.workers, len(messages))
	indexes := make(chan int)
	results := make([]*JobResult, len(messages))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				// Each index is written by exactly one goroutine.
				results[i] = bp.run(ctx, i, messages[i])
			}
		}()
	}

feed:
	for i := range messages {
		select {
		case <-ctx.Done():
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()
	return summarize(results)
}

func summarize(results []*JobResult) *BatchResult {
	br := &BatchResult{Results: results, TotalJobs: len(results)}
	for _, r := range results {
		if r == nil {
			continue
		}
		br.CompletedJobs++
		br.TotalDuration += r.Duration
		if r.Error != nil {
			br.FailedJobs++
		}
	}
	return br
}

// ParseBatch parses messages with p on runtime.NumCPU() workers.
func ParseBatch(ctx context.Context, p *parser.Parser, messages [][]byte) *BatchResult {
	return NewBatchParser(ForParser(p), runtime.NumCPU()).ParseBatch(ctx, messages)
}

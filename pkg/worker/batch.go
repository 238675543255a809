package worker

import (
	"context"
	"runtime"
)

// Batch converts jobs on a pool of workers and returns the results in job
// order. Jobs not started before ctx is cancelled report ctx's error.
func Batch(ctx context.Context, convert ConvertFunc, jobs []Job, workers int) *BatchResult {
	if len(jobs) == 0 {
		return &BatchResult{Results: make([]*JobResult, 0)}
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(jobs))

	p := NewPool(ctx, convert, workers)
	go func() {
		for i, job := range jobs {
			job.index = i
			if !p.Submit(job) {
				break
			}
		}
		p.Close()
	}()

	batch := p.collectOrdered(len(jobs))
	for i, r := range batch.Results {
		if r == nil {
			batch.Results[i] = &JobResult{ID: jobs[i].ID, Error: context.Cause(ctx), index: i}
			batch.FailedJobs++
		}
	}
	batch.TotalJobs = len(jobs)
	return batch
}

// collectOrdered drains the results until the pool is closed and places
// each at its submission index.
func (p *Pool) collectOrdered(n int) *BatchResult {
	results := make([]*JobResult, n)
	completed, failed := 0, 0
	var total int64
	for r := range p.resultChan {
		if r.index >= 0 && r.index < n {
			results[r.index] = r
		}
		completed++
		total += r.Duration
		if r.Error != nil {
			failed++
		}
	}
	return &BatchResult{
		Results:       results,
		CompletedJobs: completed,
		FailedJobs:    failed,
		TotalDuration: total,
	}
}

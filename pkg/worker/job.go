package worker

import (
	"context"

	"github.com/gofhir/qconvert/pkg/bundle"
	"github.com/gofhir/qconvert/pkg/outcome"
)

// ConvertFunc converts one resource file. bundle.Converter.Convert has this
// signature.
type ConvertFunc func(ctx context.Context, data []byte) ([]byte, *bundle.Result, error)

// Job is a resource file to convert.
type Job struct {
	// ID identifies the job in its result, usually the input path.
	ID string

	// Data is the resource or Bundle JSON.
	Data []byte

	index int
}

// JobResult is the outcome of one job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Output is the converted JSON; nil when Error is set.
	Output []byte

	// Result holds status and messages.
	Result *bundle.Result

	// Error is set for decode, encode and cancellation failures.
	Error error

	// Duration is the conversion time in nanoseconds.
	Duration int64

	index int
}

// Status returns the conversion status, Aborted when the job failed.
func (r *JobResult) Status() outcome.Status {
	if r.Error != nil || r.Result == nil {
		return outcome.Aborted
	}
	return r.Result.Status
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results contains all job results.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed (including errors).
	CompletedJobs int

	// FailedJobs is the number of jobs that failed with an error.
	FailedJobs int

	// TotalDuration is the total conversion time (in nanoseconds).
	TotalDuration int64
}

// Status returns the worst status across all results; Success when empty.
func (br *BatchResult) Status() outcome.Status {
	s := outcome.Success
	for _, r := range br.Results {
		s = outcome.Worse(s, r.Status())
	}
	return s
}

// HasFailures returns true if any job failed or was aborted.
func (br *BatchResult) HasFailures() bool {
	return br.Status() == outcome.Aborted
}

// CountStatus returns how many jobs ended with status s.
func (br *BatchResult) CountStatus(s outcome.Status) int {
	n := 0
	for _, r := range br.Results {
		if r.Status() == s {
			n++
		}
	}
	return n
}

package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/bundle"
	"github.com/gofhir/qconvert/pkg/outcome"
)

// mockConverter counts calls and echoes its input.
type mockConverter struct {
	callCount atomic.Int32
	delay     time.Duration
	err       error
	status    outcome.Status
}

func (m *mockConverter) Convert(ctx context.Context, data []byte) ([]byte, *bundle.Result, error) {
	m.callCount.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, nil, m.err
	}
	res := &bundle.Result{Report: outcome.NewReport()}
	res.Merge(m.status)
	return bytes.ToUpper(data), res, nil
}

func jobs(n int) []Job {
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{ID: fmt.Sprintf("job-%d", i), Data: []byte(fmt.Sprintf("r%d", i))}
	}
	return out
}

func TestPool_NewPool(t *testing.T) {
	pool := NewPool(context.Background(), (&mockConverter{}).Convert, 2)
	defer pool.Close()

	if pool.workers != 2 {
		t.Errorf("workers = %d; want 2", pool.workers)
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	pool := NewPool(context.Background(), (&mockConverter{}).Convert, 0)
	defer pool.Close()

	if pool.workers <= 0 {
		t.Errorf("workers = %d; want > 0", pool.workers)
	}
}

func TestPool_OneResultPerJob(t *testing.T) {
	conv := &mockConverter{status: outcome.Success}
	pool := NewPool(context.Background(), conv.Convert, 3)

	go func() {
		for _, j := range jobs(20) {
			pool.Submit(j)
		}
		pool.Close()
	}()

	seen := map[string]bool{}
	for r := range pool.Results() {
		if r.Error != nil {
			t.Errorf("%s: %v", r.ID, r.Error)
		}
		if seen[r.ID] {
			t.Errorf("duplicate result for %s", r.ID)
		}
		seen[r.ID] = true
	}
	if len(seen) != 20 {
		t.Errorf("results = %d; want 20", len(seen))
	}
	if got := conv.callCount.Load(); got != 20 {
		t.Errorf("calls = %d; want 20", got)
	}
	if s := pool.Stats(); s.JobsSubmitted != 20 || s.JobsCompleted != 20 {
		t.Errorf("stats = %+v", s)
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool(context.Background(), (&mockConverter{}).Convert, 1)
	pool.Close()
	pool.Close()

	if pool.Submit(Job{ID: "late"}) {
		t.Error("Submit after Close should return false")
	}
}

func TestPool_NoConverter(t *testing.T) {
	pool := NewPool(context.Background(), nil, 1)
	pool.Submit(Job{ID: "x"})
	batch := pool.CloseAndWait()

	if len(batch.Results) != 1 || !errors.Is(batch.Results[0].Error, ErrNoConverter) {
		t.Fatalf("results = %+v", batch.Results)
	}
	if batch.FailedJobs != 1 || batch.Status() != outcome.Aborted {
		t.Errorf("FailedJobs = %d, Status = %v", batch.FailedJobs, batch.Status())
	}
}

func TestBatch_Order(t *testing.T) {
	conv := &mockConverter{status: outcome.Warning}
	batch := Batch(context.Background(), conv.Convert, jobs(50), 4)

	if batch.TotalJobs != 50 || batch.CompletedJobs != 50 {
		t.Fatalf("total/completed = %d/%d", batch.TotalJobs, batch.CompletedJobs)
	}
	for i, r := range batch.Results {
		if r.ID != fmt.Sprintf("job-%d", i) {
			t.Errorf("result %d has ID %s", i, r.ID)
		}
		if string(r.Output) != fmt.Sprintf("R%d", i) {
			t.Errorf("result %d output = %s", i, r.Output)
		}
	}
	if batch.Status() != outcome.Warning {
		t.Errorf("Status = %v; want warning", batch.Status())
	}
	if batch.CountStatus(outcome.Warning) != 50 {
		t.Errorf("CountStatus(warning) = %d", batch.CountStatus(outcome.Warning))
	}
}

func TestBatch_Errors(t *testing.T) {
	conv := &mockConverter{err: errors.New("bad input")}
	batch := Batch(context.Background(), conv.Convert, jobs(5), 2)

	if batch.FailedJobs != 5 {
		t.Errorf("FailedJobs = %d; want 5", batch.FailedJobs)
	}
	if !batch.HasFailures() {
		t.Error("HasFailures() = false")
	}
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &mockConverter{delay: time.Second}
	batch := Batch(ctx, conv.Convert, jobs(10), 2)

	if len(batch.Results) != 10 {
		t.Fatalf("results = %d; want 10", len(batch.Results))
	}
	for i, r := range batch.Results {
		if r == nil || r.Error == nil {
			t.Errorf("result %d should carry the cancellation", i)
		}
	}
}

func TestBatch_Empty(t *testing.T) {
	batch := Batch(context.Background(), (&mockConverter{}).Convert, nil, 4)
	if len(batch.Results) != 0 || batch.Status() != outcome.Success {
		t.Errorf("empty batch = %+v", batch)
	}
}

func TestBatch_RealConverter(t *testing.T) {
	conv, err := bundle.New(qconvert.R4, qconvert.R5)
	if err != nil {
		t.Fatal(err)
	}
	in := []Job{
		{ID: "q", Data: []byte(`{"resourceType":"Questionnaire","item":[{"linkId":"a","type":"choice"}]}`)},
		{ID: "p", Data: []byte(`{"resourceType":"Patient"}`)},
		{ID: "bad", Data: []byte(`[]`)},
	}
	batch := Batch(context.Background(), conv.Convert, in, 2)

	want := []outcome.Status{outcome.Success, outcome.Warning, outcome.Aborted}
	for i, r := range batch.Results {
		if r.Status() != want[i] {
			t.Errorf("%s: Status = %v; want %v", r.ID, r.Status(), want[i])
		}
	}
	if !bytes.Contains(batch.Results[0].Output, []byte(`"coding"`)) {
		t.Errorf("output = %s", batch.Results[0].Output)
	}
}

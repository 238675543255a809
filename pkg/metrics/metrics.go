// Package metrics counts conversions with lock-free atomic counters.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofhir/qconvert/pkg/outcome"
)

// Metrics tracks conversion outcomes and timings.
// All methods are safe for concurrent use.
type Metrics struct {
	conversions atomic.Uint64
	succeeded   atomic.Uint64
	warned      atomic.Uint64
	lossy       atomic.Uint64
	aborted     atomic.Uint64

	// nanoseconds
	timeTotal atomic.Uint64
	timeMin   atomic.Uint64
	timeMax   atomic.Uint64

	messages atomic.Uint64

	steps sync.Map // map[string]*stepMetrics
}

type stepMetrics struct {
	runs      atomic.Uint64
	totalTime atomic.Uint64
	messages  atomic.Uint64
}

// New creates an empty Metrics.
func New() *Metrics {
	m := &Metrics{}
	m.timeMin.Store(^uint64(0))
	return m
}

// RecordConversion records one finished chain and its overall status.
func (m *Metrics) RecordConversion(d time.Duration, status outcome.Status, messages int) {
	m.conversions.Add(1)
	switch status {
	case outcome.Success:
		m.succeeded.Add(1)
	case outcome.Warning:
		m.warned.Add(1)
	case outcome.Loss:
		m.lossy.Add(1)
	default:
		m.aborted.Add(1)
	}
	m.messages.Add(uint64(max(messages, 0))) //nolint:gosec // clamped above

	ns := nanos(d)
	m.timeTotal.Add(ns)
	for {
		old := m.timeMin.Load()
		if ns >= old || m.timeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.timeMax.Load()
		if ns <= old || m.timeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordStep records one run of a named chain step, e.g. "STU3->R4".
func (m *Metrics) RecordStep(name string, d time.Duration, messages int) {
	sm := m.step(name)
	sm.runs.Add(1)
	sm.totalTime.Add(nanos(d))
	sm.messages.Add(uint64(max(messages, 0))) //nolint:gosec // clamped above
}

func (m *Metrics) step(name string) *stepMetrics {
	if v, ok := m.steps.Load(name); ok {
		return v.(*stepMetrics)
	}
	actual, _ := m.steps.LoadOrStore(name, &stepMetrics{})
	return actual.(*stepMetrics)
}

// Conversions returns the number of recorded conversions.
func (m *Metrics) Conversions() uint64 {
	return m.conversions.Load()
}

// CountStatus returns the number of conversions that ended with s.
func (m *Metrics) CountStatus(s outcome.Status) uint64 {
	switch s {
	case outcome.Success:
		return m.succeeded.Load()
	case outcome.Warning:
		return m.warned.Load()
	case outcome.Loss:
		return m.lossy.Load()
	default:
		return m.aborted.Load()
	}
}

// LossRate returns the share of conversions that lost information or
// aborted (0.0 to 1.0).
func (m *Metrics) LossRate() float64 {
	total := m.conversions.Load()
	if total == 0 {
		return 0
	}
	return float64(m.lossy.Load()+m.aborted.Load()) / float64(total)
}

// AverageTime returns the mean conversion duration.
func (m *Metrics) AverageTime() time.Duration {
	total := m.conversions.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.timeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinTime returns the fastest conversion, or 0 before any was recorded.
func (m *Metrics) MinTime() time.Duration {
	v := m.timeMin.Load()
	if v == ^uint64(0) {
		return 0
	}
	return time.Duration(v) //nolint:gosec // nanoseconds within int64 range
}

// MaxTime returns the slowest conversion.
func (m *Metrics) MaxTime() time.Duration {
	return time.Duration(m.timeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// StepStats holds the counters of one chain step.
type StepStats struct {
	Name     string        `json:"name"`
	Runs     uint64        `json:"runs"`
	Total    time.Duration `json:"totalNs"`
	Average  time.Duration `json:"avgNs"`
	Messages uint64        `json:"messages"`
}

// Step returns the counters for name.
func (m *Metrics) Step(name string) (StepStats, bool) {
	v, ok := m.steps.Load(name)
	if !ok {
		return StepStats{Name: name}, false
	}
	return v.(*stepMetrics).stats(name), true
}

// Steps returns the counters of every recorded step, sorted by name.
func (m *Metrics) Steps() []StepStats {
	var out []StepStats
	m.steps.Range(func(key, value any) bool {
		out = append(out, value.(*stepMetrics).stats(key.(string)))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (sm *stepMetrics) stats(name string) StepStats {
	runs := sm.runs.Load()
	total := sm.totalTime.Load()
	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(total / runs) //nolint:gosec // nanoseconds within int64 range
	}
	return StepStats{
		Name:     name,
		Runs:     runs,
		Total:    time.Duration(total), //nolint:gosec // nanoseconds within int64 range
		Average:  avg,
		Messages: sm.messages.Load(),
	}
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Conversions uint64      `json:"conversions"`
	Success     uint64      `json:"success"`
	Warning     uint64      `json:"warning"`
	Loss        uint64      `json:"loss"`
	Aborted     uint64      `json:"aborted"`
	Messages    uint64      `json:"messages"`
	LossRate    float64     `json:"lossRate"`
	AvgTimeNs   int64       `json:"avgTimeNs"`
	MinTimeNs   int64       `json:"minTimeNs"`
	MaxTimeNs   int64       `json:"maxTimeNs"`
	Steps       []StepStats `json:"steps,omitempty"`
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Conversions: m.conversions.Load(),
		Success:     m.succeeded.Load(),
		Warning:     m.warned.Load(),
		Loss:        m.lossy.Load(),
		Aborted:     m.aborted.Load(),
		Messages:    m.messages.Load(),
		LossRate:    m.LossRate(),
		AvgTimeNs:   int64(m.AverageTime()),
		MinTimeNs:   int64(m.MinTime()),
		MaxTimeNs:   int64(m.MaxTime()),
		Steps:       m.Steps(),
	}
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.conversions.Store(0)
	m.succeeded.Store(0)
	m.warned.Store(0)
	m.lossy.Store(0)
	m.aborted.Store(0)
	m.messages.Store(0)
	m.timeTotal.Store(0)
	m.timeMin.Store(^uint64(0))
	m.timeMax.Store(0)
	m.steps.Range(func(key, _ any) bool {
		m.steps.Delete(key)
		return true
	})
}

func nanos(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d.Nanoseconds())
}

// Package registry holds the ordered table of supported FHIR versions and
// resolves conversion chains between them.
package registry

import (
	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/transform"
)

// Entry describes one supported version.
type Entry struct {
	Version    qconvert.FHIRVersion
	ProfileURL string

	// Up converts to the next version; nil for the newest.
	Up transform.Func
	// Down converts to the previous version; nil for the oldest.
	Down transform.Func

	// Index is the position in the registry, oldest first.
	Index int
}

// Registry is an ordered, immutable list of versions. Adjacent entries are
// linked by their Up and Down steps.
type Registry struct {
	entries   []Entry
	byVersion map[qconvert.FHIRVersion]int
}

// New creates a registry from entries, oldest first. Index fields are
// assigned from position.
func New(entries ...Entry) *Registry {
	r := &Registry{
		entries:   make([]Entry, len(entries)),
		byVersion: make(map[qconvert.FHIRVersion]int, len(entries)),
	}
	for i, e := range entries {
		e.Index = i
		if e.ProfileURL == "" {
			e.ProfileURL = e.Version.ProfileURL()
		}
		r.entries[i] = e
		r.byVersion[e.Version] = i
	}
	return r
}

var defaultRegistry = New(
	Entry{Version: qconvert.STU3, Up: transform.STU3ToR4},
	Entry{Version: qconvert.R4, Up: transform.R4ToR4B, Down: transform.R4ToSTU3},
	Entry{Version: qconvert.R4B, Up: transform.R4BToR5, Down: transform.R4BToR4},
	Entry{Version: qconvert.R5, Down: transform.R5ToR4B},
)

// Default returns the registry of STU3, R4, R4B and R5.
func Default() *Registry {
	return defaultRegistry
}

// Lookup returns the entry for v.
func (r *Registry) Lookup(v qconvert.FHIRVersion) (Entry, bool) {
	i, ok := r.byVersion[v]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Versions returns the registered versions, oldest first.
func (r *Registry) Versions() []qconvert.FHIRVersion {
	out := make([]qconvert.FHIRVersion, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Version
	}
	return out
}

// Entries returns a copy of the table.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// ResolveChain returns the adjacent steps converting from into to, one per
// index step. It returns nil when the versions are equal or either one is
// not registered.
func (r *Registry) ResolveChain(from, to qconvert.FHIRVersion) []transform.Func {
	lo, hi, ok := r.span(from, to)
	if !ok {
		return nil
	}
	steps := make([]transform.Func, 0, hi-lo)
	if lo == r.byVersion[from] {
		for i := lo; i < hi; i++ {
			steps = append(steps, r.entries[i].Up)
		}
		return steps
	}
	for i := hi; i > lo; i-- {
		steps = append(steps, r.entries[i].Down)
	}
	return steps
}

// Path lists the versions a conversion passes through, from and to
// included; nil when there is no chain.
func (r *Registry) Path(from, to qconvert.FHIRVersion) []qconvert.FHIRVersion {
	lo, hi, ok := r.span(from, to)
	if !ok {
		return nil
	}
	out := make([]qconvert.FHIRVersion, 0, hi-lo+1)
	if lo == r.byVersion[from] {
		for i := lo; i <= hi; i++ {
			out = append(out, r.entries[i].Version)
		}
		return out
	}
	for i := hi; i >= lo; i-- {
		out = append(out, r.entries[i].Version)
	}
	return out
}

func (r *Registry) span(from, to qconvert.FHIRVersion) (lo, hi int, ok bool) {
	if from == to {
		return 0, 0, false
	}
	fi, ok1 := r.byVersion[from]
	ti, ok2 := r.byVersion[to]
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return min(fi, ti), max(fi, ti), true
}

// ResolveChain resolves against the default registry.
func ResolveChain(from, to qconvert.FHIRVersion) []transform.Func {
	return defaultRegistry.ResolveChain(from, to)
}

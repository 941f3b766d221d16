// Package progress holds the per-worker byte counters shared between range
// fetchers and the dashboard.
//
// Each slot has exactly one writer (its fetcher); any number of goroutines may
// read. Counters never decrease.
package progress

import "sync/atomic"

type Registry struct {
	counters []atomic.Int64
}

// New returns a registry with n zeroed slots.
func New(n int) *Registry {
	if n < 0 {
		n = 0
	}
	return &Registry{counters: make([]atomic.Int64, n)}
}

// Add credits n bytes to worker i. Non-positive deltas are ignored.
func (r *Registry) Add(i int, n int64) {
	if n <= 0 {
		return
	}
	r.counters[i].Add(n)
}

func (r *Registry) Load(i int) int64 {
	return r.counters[i].Load()
}

func (r *Registry) Len() int {
	return len(r.counters)
}

// Snapshot copies the current counters. Slots are read individually, so the
// copy is not a single atomic cut across workers.
func (r *Registry) Snapshot() []int64 {
	out := make([]int64, len(r.counters))
	for i := range r.counters {
		out[i] = r.counters[i].Load()
	}
	return out
}

func (r *Registry) Total() int64 {
	var total int64
	for i := range r.counters {
		total += r.counters[i].Load()
	}
	return total
}

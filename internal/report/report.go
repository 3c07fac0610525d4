// Package report folds per-file scan results into the final report.
package report

import (
	"errors"
	"slices"
	"sync"

	"github.com/sofind/sofind/internal/model"
)

// ErrorEntry is one recorded per-file failure.
type ErrorEntry struct {
	Path string
	Err  error
}

// Report accumulates scan results. Fold may be called from many goroutines;
// all mutation happens under one mutex. Matches are kept in arrival order
// and stably sorted by path on read, so repeated scans of an unchanged tree
// report identical output no matter how workers interleaved.
type Report struct {
	mu      sync.Mutex
	matches []string
	errs    []ErrorEntry
	scanned int
	skipped int
}

func New() *Report {
	return &Report{}
}

// Fold records one result and reports whether it was a match. Files the
// classifier rejected count as skipped, not as errors.
func (r *Report) Fold(res model.Result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case res.Err == nil:
		r.scanned++
		if res.Matched {
			r.matches = append(r.matches, res.Path)
			return true
		}
	case errors.Is(res.Err, model.ErrNotELF), errors.Is(res.Err, model.ErrWrongMachine):
		r.skipped++
	default:
		r.errs = append(r.errs, ErrorEntry{Path: res.Path, Err: res.Err})
	}
	return false
}

// Matches returns the matched paths sorted by path.
func (r *Report) Matches() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.matches)
	slices.Sort(out)
	return out
}

func (r *Report) TotalMatches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

// Errors returns the recorded per-file failures sorted by path.
func (r *Report) Errors() []ErrorEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.errs)
	slices.SortStableFunc(out, func(a, b ErrorEntry) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Scanned is the number of candidates fully parsed, matched or not.
func (r *Report) Scanned() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanned
}

// Skipped is the number of files the classifier rejected.
func (r *Report) Skipped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

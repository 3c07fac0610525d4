// Package scan schedules the per-file export scan over a stream of walked
// entries with a fixed-size worker pool.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/sofind/sofind/internal/elf"
	"github.com/sofind/sofind/internal/log"
	"github.com/sofind/sofind/internal/model"
	"github.com/sofind/sofind/internal/walk"
)

// DefaultJobs is the worker pool size used when the caller does not set one.
const DefaultJobs = 4

const defaultMaxFileSize = 64 << 20

// Scanner runs classify, read exports, match on each file. Stateless per
// file; the only shared pieces are the read buffer pool and its counters.
type Scanner struct {
	target  string
	jobs    int
	maxSize int64
	machine uint16

	bufPool        sync.Pool
	poolNewCounter atomic.Int32
	poolPutCounter atomic.Int32
}

type Options struct {
	Jobs        int    // worker pool size, DefaultJobs when < 1
	MaxFileSize int64  // files bigger than this are skipped, default 64 MiB
	Machine     uint16 // e_machine filter, 0 accepts any architecture
}

// Stats expose buffer pool counters for tests.
type Stats struct {
	PoolNewCounter int
	PoolPutCounter int
}

func New(target string, opts Options) *Scanner {
	if opts.Jobs < 1 {
		opts.Jobs = DefaultJobs
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	s := &Scanner{
		target:  target,
		jobs:    opts.Jobs,
		maxSize: opts.MaxFileSize,
		machine: opts.Machine,
	}
	s.bufPool = sync.Pool{
		New: func() any {
			s.poolNewCounter.Add(1)
			b := make([]byte, opts.MaxFileSize)
			return &b
		},
	}
	return s
}

// Run is one scan in flight.
type Run struct {
	p       *pool[walk.Entry, model.Result]
	results iter.Seq[model.Result]
}

// Do starts scanning the entries of seq and returns a handle carrying the
// results. One Result is produced per entry, including entries that arrive
// from the walker with an error. Per-file failures are data on the Result,
// they never abort the scan of other files.
func (s *Scanner) Do(ctx context.Context, seq iter.Seq2[walk.Entry, error]) *Run {
	p := newPool(ctx, s.jobs, s.scan, walkError)
	r := &Run{p: p}
	r.results = p.Iter(seq)
	return r
}

// Stop halts dispatching of new files, typically after the first match.
// Files already being scanned finish and their results are still yielded.
func (r *Run) Stop() {
	r.p.Stop()
}

// Results yields one Result per scanned entry. Single pass.
func (r *Run) Results() iter.Seq[model.Result] {
	return r.results
}

func walkError(entry walk.Entry, err error) model.Result {
	return model.Result{Path: entry.Path(), Err: fmt.Errorf("walking: %w", err)}
}

func (s *Scanner) scan(ctx context.Context, entry walk.Entry) model.Result {
	ctx = log.ContextAttrs(ctx, slog.String("path", entry.Path()))
	slog.DebugContext(ctx, "scanning")

	res := model.Result{Path: entry.Path()}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	info, err := entry.Stat()
	if err != nil {
		res.Err = fmt.Errorf("scan Stat: %w", err)
		return res
	}
	if info.Size() > s.maxSize {
		slog.DebugContext(ctx, "skipped, too big", "size", info.Size())
		res.Err = fmt.Errorf("entry of %d bytes: %w", info.Size(), model.ErrTooBig)
		return res
	}

	f, err := entry.Open()
	if err != nil {
		res.Err = fmt.Errorf("scan Open: %w", err)
		return res
	}
	defer func() {
		_ = f.Close() // ignoring close error for a read-only scan
	}()

	// classify on the header alone; a text file that slipped past the
	// name patterns is rejected without reading its body
	var hdr [elf.HeaderLen]byte
	n, err := io.ReadFull(f, hdr[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		res.Err = fmt.Errorf("scan Read: %w", err)
		return res
	}
	switch elf.Classify(hdr[:n], s.machine) {
	case elf.NotBinary:
		res.Err = model.ErrNotELF
		return res
	case elf.WrongArchitecture:
		res.Err = model.ErrWrongMachine
		return res
	}

	bp := s.bufPool.Get().(*[]byte)
	defer func() {
		s.poolPutCounter.Add(1)
		s.bufPool.Put(bp)
	}()
	copy(*bp, hdr[:n])
	m, err := io.ReadFull(f, (*bp)[n:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		res.Err = fmt.Errorf("scan Read: %w", err)
		return res
	}
	// IMPORTANT: the pooled buffer keeps bytes of the previous file, only
	// data[:n+m] belongs to this one
	data := (*bp)[:n+m]

	exports, err := elf.ReadExports(data)
	if err != nil {
		res.Err = fmt.Errorf("reading exports: %w", err)
		return res
	}
	res.Exports = len(exports)
	res.Matched = elf.Matches(exports, s.target)
	if res.Matched {
		slog.InfoContext(ctx, "found symbol", "symbol", s.target)
	} else {
		slog.DebugContext(ctx, "no symbol", "symbol", s.target, "file", filepath.Base(entry.Path()))
	}
	return res
}

// Stats returns the buffer pool counters.
func (s *Scanner) Stats() Stats {
	return Stats{
		PoolNewCounter: int(s.poolNewCounter.Load()),
		PoolPutCounter: int(s.poolPutCounter.Load()),
	}
}

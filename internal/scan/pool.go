package scan

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

// pool fans work out over a bounded set of goroutines and returns results
// as an iterator. It separates two kinds of stopping: Stop halts dispatch
// of new entries while already dispatched work still runs and delivers its
// result, cancelling the parent context abandons everything. A worker is
// never interrupted mid-file.
type pool[E, D any] struct {
	runCtx       context.Context
	cancelRun    context.CancelFunc
	dispatchCtx  context.Context
	stopDispatch context.CancelFunc
	g            *errgroup.Group
	out          chan D
	work         func(context.Context, E) D
	errResult    func(E, error) D
}

// newPool builds a pool of limit workers. work maps one entry to one
// result; errResult converts an entry that arrived with an error (e.g. an
// unreadable directory) into a result, without occupying a worker.
func newPool[E, D any](
	parent context.Context,
	limit int,
	work func(context.Context, E) D,
	errResult func(E, error) D,
) *pool[E, D] {
	runCtx, cancelRun := context.WithCancel(parent)
	dispatchCtx, stopDispatch := context.WithCancel(runCtx)
	g := &errgroup.Group{}
	g.SetLimit(limit + 1) // one extra slot for the producer

	return &pool[E, D]{
		runCtx:       runCtx,
		cancelRun:    cancelRun,
		dispatchCtx:  dispatchCtx,
		stopDispatch: stopDispatch,
		g:            g,
		out:          make(chan D, limit),
		work:         work,
		errResult:    errResult,
	}
}

// Stop halts dispatching of new work. In-flight results are still
// delivered through Iter.
func (p *pool[E, D]) Stop() {
	p.stopDispatch()
}

func (p *pool[E, D]) goWorkers(seq iter.Seq2[E, error]) {
	p.g.Go(func() error {
		for entry, err := range seq {
			if p.dispatchCtx.Err() != nil {
				return nil
			}
			if err != nil {
				p.deliver(p.errResult(entry, err))
				continue
			}
			// blocks when all workers are busy, which bounds how far
			// the producer can run ahead on a large tree
			p.g.Go(func() error {
				// the slot wait above can outlive a Stop; an entry that
				// sees it is not worked on
				if p.dispatchCtx.Err() != nil {
					return nil
				}
				p.deliver(p.work(p.runCtx, entry))
				return nil
			})
		}
		return nil
	})
}

func (p *pool[E, D]) deliver(d D) {
	select {
	case p.out <- d:
	case <-p.runCtx.Done():
	}
}

// Iter runs the pool over seq and yields one result per entry. The
// iterator ends when seq is exhausted (or dispatch was stopped) and every
// dispatched worker has delivered.
func (p *pool[E, D]) Iter(seq iter.Seq2[E, error]) iter.Seq[D] {
	return func(yield func(D) bool) {
		defer p.cancelRun()
		p.goWorkers(seq)

		go func() {
			_ = p.g.Wait()
			close(p.out)
		}()

		for d := range p.out {
			if p.runCtx.Err() != nil {
				return
			}
			if !yield(d) {
				return
			}
		}
	}
}

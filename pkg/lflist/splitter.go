package lflist

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

const (
	// BatchUnit is the size of the first batch handed out by TrySplit.
	BatchUnit = 1 << 10
	// MaxBatch caps the doubling batch size.
	MaxBatch = 1 << 25
)

// Splitter is a late-binding, fail-fast cursor that hands out copies of
// growing runs of elements for parallel consumption. The size estimate,
// start position and epoch are taken on first use.
type Splitter[T comparable] struct {
	l        *List[T]
	current  *cell[T]
	est      int
	expected uint64
	batch    int
}

func (l *List[T]) Splitter() *Splitter[T] {
	return &Splitter[T]{l: l, est: -1}
}

func (s *Splitter[T]) bind() int {
	if s.est < 0 {
		s.expected = s.l.epoch.Load()
		s.current = s.l.head.nextLive()
		s.est = s.l.Len()
	}
	return s.est
}

func (s *Splitter[T]) check() error {
	if s.l.epoch.Load() != s.expected {
		return ErrConcurrentModification
	}
	return nil
}

func (s *Splitter[T]) more() bool {
	return s.current != nil && s.current != s.l.tail
}

// EstimateSize returns the number of elements not yet handed out.
func (s *Splitter[T]) EstimateSize() int {
	return s.bind()
}

// TrySplit copies the next batch into a buffer and returns a cursor over
// it, or nil when fewer than two elements remain.
func (s *Splitter[T]) TrySplit() *ArrayCursor[T] {
	est := s.bind()
	if est <= 1 || !s.more() {
		return nil
	}
	n := BatchUnit
	if s.batch > 0 {
		n = s.batch * 2
	}
	n = min(n, est, MaxBatch)
	buf := make([]T, 0, n)
	p := s.current
	for p != s.l.tail && len(buf) < n {
		buf = append(buf, p.node.Value())
		p = p.nextLive()
	}
	if len(buf) == 0 {
		return nil
	}
	s.current = p
	s.batch = n
	s.est = est - len(buf)
	return &ArrayCursor[T]{buf: buf}
}

// TryAdvance calls fn with the next element, if any.
func (s *Splitter[T]) TryAdvance(fn func(T)) (bool, error) {
	est := s.bind()
	if err := s.check(); err != nil {
		return false, err
	}
	if est <= 0 || !s.more() {
		return false, nil
	}
	p := s.current
	s.est--
	s.current = p.nextLive()
	fn(p.node.Value())
	return true, s.check()
}

// ForEachRemaining calls fn for every element not yet handed out.
func (s *Splitter[T]) ForEachRemaining(fn func(T)) error {
	n := s.bind()
	if err := s.check(); err != nil {
		return err
	}
	p := s.current
	s.current = nil
	s.est = 0
	for ; n > 0 && p != nil && p != s.l.tail; n-- {
		v := p.node.Value()
		p = p.nextLive()
		fn(v)
	}
	return s.check()
}

// Parallel drains s: every split batch runs in its own errgroup goroutine,
// at most workers at a time (unbounded if workers <= 0), and the remainder
// runs last. The first error cancels the context handed to fn.
func (s *Splitter[T]) Parallel(ctx context.Context, workers int, fn func(context.Context, T) error) error {
	wrapErr := errWrapper("Parallel")
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	drain := func(seq iter.Seq[T]) error {
		for v := range seq {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, v); err != nil {
				return err
			}
		}
		return nil
	}
	for gctx.Err() == nil {
		batch := s.TrySplit()
		if batch == nil {
			break
		}
		g.Go(func() error {
			return drain(batch.All())
		})
	}
	if err := g.Wait(); err != nil {
		return wrapErr(err)
	}
	if err := ctx.Err(); err != nil {
		return wrapErr(err)
	}
	var ferr error
	err := s.ForEachRemaining(func(v T) {
		if ferr == nil {
			ferr = fn(ctx, v)
		}
	})
	if ferr != nil {
		return wrapErr(ferr)
	}
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

// ArrayCursor is a fixed cursor over a batch copied out by TrySplit. It
// does not reference the list.
type ArrayCursor[T any] struct {
	buf []T
	pos int
}

func (a *ArrayCursor[T]) EstimateSize() int {
	return len(a.buf) - a.pos
}

func (a *ArrayCursor[T]) TryAdvance(fn func(T)) bool {
	if a.pos >= len(a.buf) {
		return false
	}
	v := a.buf[a.pos]
	a.pos++
	fn(v)
	return true
}

func (a *ArrayCursor[T]) ForEachRemaining(fn func(T)) {
	for a.pos < len(a.buf) {
		v := a.buf[a.pos]
		a.pos++
		fn(v)
	}
}

// TrySplit hands the first half of the remaining elements to a new cursor.
func (a *ArrayCursor[T]) TrySplit() *ArrayCursor[T] {
	lo := a.pos
	mid := (lo + len(a.buf)) / 2
	if lo >= mid {
		return nil
	}
	a.pos = mid
	return &ArrayCursor[T]{buf: a.buf[lo:mid]}
}

// All consumes the cursor.
func (a *ArrayCursor[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for a.pos < len(a.buf) {
			v := a.buf[a.pos]
			a.pos++
			if !yield(v) {
				return
			}
		}
	}
}

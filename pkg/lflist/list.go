// Package lflist implements a lock-free singly linked list that keeps
// insertion order, or comparator order when a comparator is given.
//
// The chain runs between two private sentinels. Every structural change is a
// CAS on the successor pointer of a single node; a removed node first gets
// its successor swapped to a marker node, which stops concurrent inserts
// behind it, and is then unlinked by whichever goroutine gets there first.
// Len is an atomic counter kept next to the chain, not derived from it, and
// may briefly disagree with a concurrent traversal.
package lflist

import (
	"fmt"
	"iter"
	"sync/atomic"
)

type List[T comparable] struct {
	head *cell[T]
	tail *cell[T]

	// last is a hint for the cell preceding tail. It is only trusted after
	// re-reading last.next == tail, and only ever moved by CAS.
	last atomic.Pointer[cell[T]]

	size  atomic.Int64
	epoch atomic.Uint64

	cmp       func(a, b T) int
	opts      options
	immutable bool
}

// New returns an empty list. With a nil cmp the list keeps insertion order;
// otherwise inserts keep it sorted ascending by cmp, equal values in
// insertion order.
func New[T comparable](cmp func(a, b T) int, opts ...Option) *List[T] {
	l := &List[T]{cmp: cmp}
	for _, o := range opts {
		o(&l.opts)
	}
	l.init()
	return l
}

// Empty returns a list that is always empty. Every mutation on it fails
// with ErrUnsupported.
func Empty[T comparable]() *List[T] {
	l := New[T](nil)
	l.immutable = true
	return l
}

func (l *List[T]) init() {
	l.head = &cell[T]{kind: kindHead}
	l.tail = &cell[T]{kind: kindTail}
	l.head.next.Store(l.tail)
	l.last.Store(l.head)
}

func (l *List[T]) mutable() error {
	if l.immutable {
		return ErrUnsupported
	}
	return nil
}

// Len returns the element counter. It is exact when no mutation is in
// flight.
func (l *List[T]) Len() int {
	if n := l.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

func (l *List[T]) IsEmpty() bool {
	return l.Front() == nil
}

// Epoch is bumped by every insert and removal.
func (l *List[T]) Epoch() uint64 {
	return l.epoch.Load()
}

func (l *List[T]) Sorted() bool {
	return l.cmp != nil
}

func (l *List[T]) Comparator() func(a, b T) int {
	return l.cmp
}

// Front returns the first live node or nil.
func (l *List[T]) Front() *Node[T] {
	return l.head.nextLive().value()
}

// cells walks the live cells from front to back.
func (l *List[T]) cells() iter.Seq[*cell[T]] {
	return func(yield func(*cell[T]) bool) {
		for c := l.head.nextLive(); c != nil && c.kind == kindValue; c = c.nextLive() {
			if !yield(c) {
				return
			}
		}
	}
}

// All iterates over the values from front to back. Elements inserted or
// removed behind the iterator's position may or may not be seen.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for c := range l.cells() {
			if !yield(c.node.Value()) {
				return
			}
		}
	}
}

func (l *List[T]) Nodes() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for c := range l.cells() {
			if !yield(c.node) {
				return
			}
		}
	}
}

func (l *List[T]) Values() []T {
	a := make([]T, 0, l.Len())
	for v := range l.All() {
		a = append(a, v)
	}
	return a
}

func (l *List[T]) String() string {
	return fmt.Sprint(l.Values())
}

// window returns adjacent cells pred and curr, where curr is the first live
// cell after start for which stop reports true, or the tail. Deleted cells
// on the way are unlinked. A nil stop walks to the tail.
func (l *List[T]) window(start *cell[T], stop func(*cell[T]) bool) (pred, curr *cell[T]) {
	pred = start
retry:
	if pred != l.head && pred.isDeleted() {
		pred = l.head
	}
	curr = pred.next.Load()
	if curr.isMarker() {
		pred = l.head
		goto retry
	}
	for curr != l.tail {
		succ := curr.next.Load()
		if succ.isMarker() {
			succ = succ.next.Load()
			if !pred.next.CompareAndSwap(curr, succ) {
				l.retried(OpUnlink)
				pred = l.head
				goto retry
			}
			if succ == l.tail {
				l.last.CompareAndSwap(curr, pred)
			}
			curr = succ
			continue
		}
		if stop != nil && stop(curr) {
			return pred, curr
		}
		pred, curr = curr, succ
	}
	return pred, curr
}

// tailPred returns a cell whose successor was the tail when it was read.
func (l *List[T]) tailPred() *cell[T] {
	p := l.last.Load()
	if p.next.Load() == l.tail {
		return p
	}
	q, _ := l.window(p, nil)
	l.last.CompareAndSwap(p, q)
	return q
}

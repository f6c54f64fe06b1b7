package lflist

import (
	"sync/atomic"
)

type cellKind uint8

const (
	kindValue cellKind = iota
	kindHead
	kindTail
	kindMarker
)

// cell is one placement of a Node in one list. Every insert links a fresh
// cell, so a cell is deleted at most once and never moves: a goroutine that
// still holds the cell of an earlier placement only ever sees its marker.
type cell[T comparable] struct {
	next atomic.Pointer[cell[T]]
	node *Node[T]
	kind cellKind
}

// Node is an element of a List. The handle returned by Insert or Remove can
// be passed back to RemoveNode, Update and InsertNode.
type Node[T comparable] struct {
	v     atomic.Pointer[T]
	cur   atomic.Pointer[cell[T]]
	owner atomic.Pointer[List[T]]
	claim atomic.Bool
}

// NewNode returns a detached node holding v, ready for InsertNode. The zero
// Node is a valid detached node as well.
func NewNode[T comparable](v T) *Node[T] {
	var n Node[T]
	n.v.Store(&v)
	return &n
}

func (n *Node[T]) Value() T {
	var zero T
	if n == nil {
		return zero
	}
	if p := n.v.Load(); p != nil {
		return *p
	}
	return zero
}

// Set replaces the value in place. A linked node in a sorted list keeps its
// position until Update moves it, and concurrent sorted inserts compare
// against the new value meanwhile. To change the sort key under concurrent
// inserts, remove the node and insert the new value.
func (n *Node[T]) Set(v T) {
	n.v.Store(&v)
}

func (n *Node[T]) Linked() bool {
	if n.owner.Load() == nil {
		return false
	}
	c := n.cur.Load()
	return c != nil && !c.isDeleted()
}

// Next returns the following live node, or nil at the end of the list. A
// removed node still leads to the elements that followed it.
func (n *Node[T]) Next() *Node[T] {
	if n == nil {
		return nil
	}
	c := n.cur.Load()
	if c == nil {
		return nil
	}
	return c.nextLive().value()
}

func newCell[T comparable](n *Node[T]) *cell[T] {
	return &cell[T]{node: n}
}

// value returns the node of a value cell, nil for the tail.
func (c *cell[T]) value() *Node[T] {
	if c == nil || c.kind != kindValue {
		return nil
	}
	return c.node
}

func (c *cell[T]) isMarker() bool {
	return c != nil && c.kind == kindMarker
}

func (c *cell[T]) isDeleted() bool {
	return c.next.Load().isMarker()
}

// successor looks through a deletion marker.
func (c *cell[T]) successor() *cell[T] {
	succ := c.next.Load()
	if succ.isMarker() {
		succ = succ.next.Load()
	}
	return succ
}

// nextLive returns the first live cell or the tail following c. Removed
// cells still lead back into the chain through their frozen successor.
func (c *cell[T]) nextLive() *cell[T] {
	succ := c.successor()
	for succ != nil && succ.kind == kindValue && succ.isDeleted() {
		succ = succ.successor()
	}
	return succ
}

func newMarker[T comparable](succ *cell[T]) *cell[T] {
	m := &cell[T]{kind: kindMarker}
	m.next.Store(succ)
	return m
}

package lflist

// Insert adds v and returns its node. Without a comparator, or when v is
// not less than the current last element, v is appended; otherwise it is
// placed before the first element greater than v.
func (l *List[T]) Insert(v T) (*Node[T], error) {
	if err := l.mutable(); err != nil {
		return nil, errWrapper("Insert")(err)
	}
	n := NewNode(v)
	n.claim.Store(true)
	l.link(v, n)
	return n, nil
}

// InsertNode is Insert with a caller supplied node, which must not be
// linked into any list. A removed node can be inserted again, into this
// or another list.
func (l *List[T]) InsertNode(v T, n *Node[T]) error {
	wrapErr := errWrapper("InsertNode")
	if err := l.mutable(); err != nil {
		return wrapErr(err)
	}
	if n == nil {
		return wrapErr(ErrNilNode)
	}
	if !n.claim.CompareAndSwap(false, true) {
		return wrapErr(ErrNodeInUse)
	}
	n.Set(v)
	l.link(v, n)
	return nil
}

// link places n in a fresh cell. The cell stays private until the CAS that
// publishes it, so retries may rewrite its successor freely.
func (l *List[T]) link(v T, n *Node[T]) {
	c := newCell(n)
	n.owner.Store(l)
	for {
		p := l.tailPred()
		// checked against the last element read in this attempt, so a
		// lost append re-decides between append and sorted insert
		if l.cmp != nil && p != l.head && l.cmp(v, p.node.Value()) < 0 {
			l.linkSorted(v, c)
			return
		}
		if l.tryAppend(p, c) {
			return
		}
		l.retried(OpAppend)
	}
}

// tryAppend links c after p if p still precedes the tail.
func (l *List[T]) tryAppend(p, c *cell[T]) bool {
	c.next.Store(l.tail)
	if !p.next.CompareAndSwap(l.tail, c) {
		return false
	}
	c.node.cur.Store(c)
	l.last.CompareAndSwap(p, c)
	l.linked(OpAppend)
	return true
}

func (l *List[T]) linkSorted(v T, c *cell[T]) {
	greater := func(x *cell[T]) bool {
		return l.cmp(v, x.node.Value()) < 0
	}
	for {
		pred, curr := l.window(l.head, greater)
		c.next.Store(curr)
		if pred.next.CompareAndSwap(curr, c) {
			c.node.cur.Store(c)
			if curr == l.tail {
				l.last.CompareAndSwap(pred, c)
			}
			l.linked(OpSortedInsert)
			return
		}
		l.retried(OpSortedInsert)
	}
}

// appendLast appends n regardless of the comparator.
func (l *List[T]) appendLast(n *Node[T]) {
	c := newCell(n)
	n.owner.Store(l)
	for {
		if l.tryAppend(l.tailPred(), c) {
			return
		}
		l.retried(OpAppend)
	}
}

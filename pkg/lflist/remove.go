package lflist

// RemoveNode unlinks n. It returns false if n is not in the list, including
// when another goroutine removed it first.
func (l *List[T]) RemoveNode(n *Node[T]) (bool, error) {
	if err := l.mutable(); err != nil {
		return false, errWrapper("RemoveNode")(err)
	}
	if n == nil || n.owner.Load() != l {
		return false, nil
	}
	pred, curr := l.window(l.head, func(c *cell[T]) bool {
		return c.node == n
	})
	if curr == l.tail {
		return false, nil
	}
	return l.unlink(pred, curr), nil
}

// Remove unlinks the first node holding v and returns it, or nil if there
// is none.
func (l *List[T]) Remove(v T) (*Node[T], error) {
	if err := l.mutable(); err != nil {
		return nil, errWrapper("Remove")(err)
	}
	match := func(c *cell[T]) bool {
		return c.node.Value() == v
	}
	for {
		pred, curr := l.window(l.head, match)
		if curr == l.tail {
			return nil, nil
		}
		if l.unlink(pred, curr) {
			return curr.node, nil
		}
		// another remover took curr, the next search skips it
	}
}

// Update re-inserts n with its current value, moving it to the position
// the comparator asks for. Between the removal and the insert the value is
// not in the list; concurrent Updates of the same node are not supported.
func (l *List[T]) Update(n *Node[T]) (bool, error) {
	wrapErr := errWrapper("Update")
	v := n.Value()
	ok, err := l.RemoveNode(n)
	if err != nil {
		return false, wrapErr(err)
	}
	if !ok {
		return false, nil
	}
	if err := l.InsertNode(v, n); err != nil {
		return false, wrapErr(err)
	}
	return true, nil
}

// unlink marks curr as deleted by swinging its successor to a marker, then
// detaches it from pred. It reports false if curr was already deleted. The
// node is released for reuse once the cell is unreachable from head; the
// cell itself is never linked again.
func (l *List[T]) unlink(pred, curr *cell[T]) bool {
	var succ *cell[T]
	for {
		succ = curr.next.Load()
		if succ.isMarker() {
			return false
		}
		if curr.next.CompareAndSwap(succ, newMarker(succ)) {
			break
		}
		l.retried(OpRemove)
	}
	l.unlinked()

	if pred.next.CompareAndSwap(curr, succ) {
		if succ == l.tail {
			l.last.CompareAndSwap(curr, pred)
		}
	} else {
		// pred changed under us; one full pass unlinks every marked node
		l.retried(OpUnlink)
		l.window(l.head, nil)
	}
	curr.node.owner.Store(nil)
	curr.node.claim.Store(false)
	return true
}

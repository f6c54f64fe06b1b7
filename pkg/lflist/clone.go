package lflist

// Clone returns an independent list with the same comparator and options
// holding the current values in the current order. The copy is taken by a
// single scan and is not a snapshot under concurrent mutation.
func (l *List[T]) Clone() (*List[T], error) {
	return l.CloneExcluding(nil)
}

// CloneExcluding is Clone without the node exclude.
func (l *List[T]) CloneExcluding(exclude *Node[T]) (*List[T], error) {
	if err := l.mutable(); err != nil {
		return nil, errWrapper("Clone")(err)
	}
	c := &List[T]{cmp: l.cmp, opts: l.opts}
	c.init()
	for cl := range l.cells() {
		if cl.node == exclude {
			continue
		}
		cn := NewNode(cl.node.Value())
		cn.claim.Store(true)
		c.appendLast(cn)
	}
	l.trace("lflist: cloned", "len", c.Len())
	return c, nil
}

package lflist

// Find returns the first node whose value compares equal to v under cmp,
// or nil.
func (l *List[T]) Find(v T, cmp func(a, b T) int) *Node[T] {
	for c := range l.cells() {
		if cmp(v, c.node.Value()) == 0 {
			return c.node
		}
	}
	return nil
}

func (l *List[T]) Contains(v T) bool {
	for c := range l.cells() {
		if c.node.Value() == v {
			return true
		}
	}
	return false
}

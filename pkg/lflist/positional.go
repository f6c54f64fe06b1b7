package lflist

// Positional access walks from the front, so every call is O(index).

func (l *List[T]) node(index int) (*Node[T], error) {
	if index < 0 || index >= l.Len() {
		return nil, outOfRange(index, l.Len())
	}
	i := 0
	for c := range l.cells() {
		if i == index {
			return c.node, nil
		}
		i++
	}
	// shrank while walking
	return nil, outOfRange(index, l.Len())
}

func (l *List[T]) Get(index int) (T, error) {
	n, err := l.node(index)
	if err != nil {
		var zero T
		return zero, errWrapper("Get")(err)
	}
	return n.Value(), nil
}

func (l *List[T]) RemoveAt(index int) (T, error) {
	var zero T
	wrapErr := errWrapper("RemoveAt")
	if err := l.mutable(); err != nil {
		return zero, wrapErr(err)
	}
	n, err := l.node(index)
	if err != nil {
		return zero, wrapErr(err)
	}
	v := n.Value()
	ok, err := l.RemoveNode(n)
	if err != nil {
		return zero, wrapErr(err)
	}
	if !ok {
		return zero, wrapErr(ErrConcurrentModification)
	}
	return v, nil
}

// CursorAt returns a cursor whose first Next yields the element at index.
// index may equal Len.
func (l *List[T]) CursorAt(index int) (*Cursor[T], error) {
	wrapErr := errWrapper("CursorAt")
	if index < 0 || index > l.Len() {
		return nil, wrapErr(outOfRange(index, l.Len()))
	}
	c := l.Cursor()
	for i := 0; i < index; i++ {
		if _, err := c.Next(); err != nil {
			return nil, wrapErr(err)
		}
	}
	return c, nil
}

package lflist

// Cursor walks a list from front to back. It is fail-fast: once the list
// has been changed by anything other than the cursor itself, Next and the
// mutators return ErrConcurrentModification. Each of the cursor's own
// changes accounts for exactly one epoch step.
type Cursor[T comparable] struct {
	l        *List[T]
	next     *cell[T]
	lastRet  *cell[T]
	expected uint64
}

func (l *List[T]) Cursor() *Cursor[T] {
	c := &Cursor[T]{l: l, expected: l.epoch.Load()}
	c.next = l.head.nextLive()
	return c
}

func (c *Cursor[T]) check() error {
	if c.l.epoch.Load() != c.expected {
		return ErrConcurrentModification
	}
	return nil
}

func (c *Cursor[T]) HasNext() bool {
	return c.next != nil && c.next != c.l.tail
}

func (c *Cursor[T]) Next() (T, error) {
	var zero T
	if err := c.check(); err != nil {
		return zero, err
	}
	if !c.HasNext() {
		return zero, ErrNoSuchElement
	}
	n := c.next
	c.next = n.nextLive()
	c.lastRet = n
	return n.node.Value(), nil
}

// Remove removes the element returned by the last call to Next.
func (c *Cursor[T]) Remove() error {
	wrapErr := errWrapper("Cursor.Remove")
	if c.lastRet == nil {
		return wrapErr(ErrIllegalState)
	}
	if err := c.check(); err != nil {
		return wrapErr(err)
	}
	ok, err := c.l.RemoveNode(c.lastRet.node)
	if err != nil {
		return wrapErr(err)
	}
	if !ok {
		return wrapErr(ErrConcurrentModification)
	}
	c.lastRet = nil
	c.expected++
	return nil
}

// Insert adds v through List.Insert, so it lands where the list's ordering
// puts it rather than at the cursor position.
func (c *Cursor[T]) Insert(v T) error {
	wrapErr := errWrapper("Cursor.Insert")
	if err := c.check(); err != nil {
		return wrapErr(err)
	}
	if _, err := c.l.Insert(v); err != nil {
		return wrapErr(err)
	}
	c.lastRet = nil
	c.expected++
	return nil
}

// Set replaces the value of the element returned by the last call to Next.
func (c *Cursor[T]) Set(v T) error {
	wrapErr := errWrapper("Cursor.Set")
	if c.lastRet == nil {
		return wrapErr(ErrIllegalState)
	}
	if err := c.check(); err != nil {
		return wrapErr(err)
	}
	if err := c.l.mutable(); err != nil {
		return wrapErr(err)
	}
	c.lastRet.node.Set(v)
	return nil
}

package lflist

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainCursor[T comparable](t *testing.T, c *Cursor[T]) []T {
	t.Helper()
	var got []T
	for c.HasNext() {
		v, err := c.Next()
		require.NoError(t, err)
		got = append(got, v)
	}
	return got
}

func TestCursorWalksFrontToBack(t *testing.T) {
	l := New[int](nil)
	insertAll(t, l, 3, 1, 2)

	c := l.Cursor()
	assert.Equal(t, []int{3, 1, 2}, drainCursor(t, c))
	_, err := c.Next()
	assert.ErrorIs(t, err, ErrNoSuchElement)
}

func TestCursorRemoveAndSet(t *testing.T) {
	l := New[int](nil)
	insertAll(t, l, 1, 2, 3, 4)

	c := l.Cursor()
	require.ErrorIs(t, c.Remove(), ErrIllegalState)
	require.ErrorIs(t, c.Set(0), ErrIllegalState)

	for c.HasNext() {
		v, err := c.Next()
		require.NoError(t, err)
		switch {
		case v%2 == 0:
			require.NoError(t, c.Remove())
			require.ErrorIs(t, c.Remove(), ErrIllegalState)
		default:
			require.NoError(t, c.Set(v*10))
		}
	}
	assert.Equal(t, []int{10, 30}, l.Values())
	assert.Equal(t, 2, l.Len())
}

func TestCursorInsertUsesListOrder(t *testing.T) {
	l := New(cmp.Compare[int])
	insertAll(t, l, 10, 20, 30)

	c := l.Cursor()
	v, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, 10, v)
	require.NoError(t, c.Insert(25))
	require.NoError(t, c.Insert(5))

	assert.Equal(t, []int{20, 25, 30}, drainCursor(t, c))
	assert.Equal(t, []int{5, 10, 20, 25, 30}, l.Values())
}

func TestCursorFailsFast(t *testing.T) {
	l := New[int](nil)
	nodes := insertAll(t, l, 1, 2, 3)

	c := l.Cursor()
	_, err := c.Next()
	require.NoError(t, err)

	_, err = l.Insert(4)
	require.NoError(t, err)
	_, err = c.Next()
	require.ErrorIs(t, err, ErrConcurrentModification)
	require.ErrorIs(t, c.Set(9), ErrConcurrentModification)
	require.ErrorIs(t, c.Remove(), ErrConcurrentModification)

	c = l.Cursor()
	_, err = c.Next()
	require.NoError(t, err)
	ok, err := l.RemoveNode(nodes[2])
	require.NoError(t, err)
	require.True(t, ok)
	_, err = c.Next()
	require.ErrorIs(t, err, ErrConcurrentModification)
}

// hookObserver runs onInsert once, from inside the next committed insert.
type hookObserver struct {
	onInsert func()
}

func (h *hookObserver) Inserted(Op) {
	if f := h.onInsert; f != nil {
		h.onInsert = nil
		f()
	}
}
func (h *hookObserver) Removed()   {}
func (h *hookObserver) Retried(Op) {}

func TestCursorSeesChangeDuringItsOwnMutation(t *testing.T) {
	obs := &hookObserver{}
	l := New[int](nil, WithObserver(obs))
	insertAll(t, l, 1, 2)

	c := l.Cursor()
	_, err := c.Next()
	require.NoError(t, err)

	// another writer lands after the cursor's insert, before it returns
	obs.onInsert = func() {
		_, err := l.Insert(4)
		require.NoError(t, err)
	}
	require.NoError(t, c.Insert(3))
	_, err = c.Next()
	require.ErrorIs(t, err, ErrConcurrentModification)

	c = l.Cursor()
	_, err = c.Next()
	require.NoError(t, err)
	require.NoError(t, c.Remove())
	v, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

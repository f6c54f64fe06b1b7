package lflist

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func orders() map[string]func(a, b int) int {
	return map[string]func(a, b int) int{
		"unsorted": nil,
		"sorted":   cmp.Compare[int],
	}
}

func requireSameElements(t *testing.T, want, got []int) {
	t.Helper()
	want = slices.Sorted(slices.Values(want))
	got = slices.Sorted(slices.Values(got))
	require.Equal(t, want, got)
}

func TestConcurrentInsert(t *testing.T) {
	const perWorker = 10000
	for name, order := range orders() {
		if order != nil && testing.Short() {
			continue
		}
		t.Run(name, func(t *testing.T) {
			l := New(order)
			var wg sync.WaitGroup
			for w := range 2 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range perWorker {
						l.Insert(w*perWorker + i)
					}
				}()
			}
			wg.Wait()

			require.Equal(t, 2*perWorker, l.Len())
			values := l.Values()
			want := make([]int, 2*perWorker)
			for i := range want {
				want[i] = i
			}
			requireSameElements(t, want, values)
			if order != nil {
				require.True(t, slices.IsSorted(values))
			}
		})
	}
}

func TestConcurrentInsertAndRemove(t *testing.T) {
	const n = 4000
	for name, order := range orders() {
		t.Run(name, func(t *testing.T) {
			l := New(order)
			nodes := make([]*Node[int], n)
			for i := range n {
				node, err := l.Insert(i)
				require.NoError(t, err)
				nodes[i] = node
			}

			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for w := range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := w; i < n; i += 4 {
						if i%2 != 0 {
							continue
						}
						if i%4 == 0 {
							ok, err := l.RemoveNode(nodes[i])
							if err == nil && !ok {
								err = fmt.Errorf("node %d not found", i)
							}
							if err != nil {
								errs <- err
								return
							}
							continue
						}
						removed, err := l.Remove(i)
						if err == nil && removed == nil {
							err = fmt.Errorf("value %d not found", i)
						}
						if err != nil {
							errs <- err
							return
						}
					}
				}()
			}
			for w := range 2 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := n + w; i < 2*n; i += 2 {
						if _, err := l.Insert(i); err != nil {
							errs <- err
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			var want []int
			for i := range 2 * n {
				if i >= n || i%2 != 0 {
					want = append(want, i)
				}
			}
			values := l.Values()
			require.Equal(t, len(want), l.Len())
			requireSameElements(t, want, values)
			if order != nil {
				require.True(t, slices.IsSorted(values))
			}
		})
	}
}

func TestConcurrentUpdate(t *testing.T) {
	const n = 2000
	l := New(cmp.Compare[int])
	nodes := make([]*Node[int], n)
	for i := range n {
		node, err := l.Insert(i)
		require.NoError(t, err)
		nodes[i] = node
	}

	// each node is handled by exactly one goroutine; odd values are
	// replaced by n+i
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; i < n; i += 4 {
				if i%2 == 0 {
					ok, err := l.Update(nodes[i])
					if err == nil && !ok {
						err = fmt.Errorf("update of %d: not found", i)
					}
					if err != nil {
						errs <- err
						return
					}
					continue
				}
				if _, err := l.RemoveNode(nodes[i]); err != nil {
					errs <- err
					return
				}
				if _, err := l.Insert(n + i); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var want []int
	for i := range n {
		if i%2 == 0 {
			want = append(want, i)
		} else {
			want = append(want, n+i)
		}
	}
	values := l.Values()
	require.Equal(t, n, l.Len())
	require.Equal(t, slices.Sorted(slices.Values(want)), values)
	for i, node := range nodes {
		require.Equal(t, i%2 == 0, node.Linked(), "node %d", i)
	}
}

func TestConcurrentUpdateWhileAppending(t *testing.T) {
	const n = 2000
	l := New[int](nil)
	nodes := make([]*Node[int], n)
	for i := range n {
		node, err := l.Insert(i)
		require.NoError(t, err)
		nodes[i] = node
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i, node := range nodes {
			ok, err := l.Update(node)
			if err == nil && !ok {
				err = fmt.Errorf("update of %d: not found", i)
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := range n {
			if _, err := l.Insert(n + i); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	want := make([]int, 2*n)
	for i := range want {
		want[i] = i
	}
	values := l.Values()
	require.Equal(t, 2*n, l.Len())
	requireSameElements(t, want, values)
}

func TestReadersDuringMutation(t *testing.T) {
	const n = 3000
	l := New(cmp.Compare[int])
	done := make(chan struct{})

	var readers sync.WaitGroup
	for range 2 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				prev := -1
				for v := range l.All() {
					if v < prev {
						t.Errorf("traversal went backwards: %d after %d", v, prev)
						return
					}
					prev = v
				}
				l.Contains(n / 2)
			}
		}()
	}

	var writers sync.WaitGroup
	for w := range 2 {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for i := w; i < n; i += 2 {
				node, _ := l.Insert(i)
				if i%3 == 0 {
					l.RemoveNode(node)
				}
			}
		}()
	}
	writers.Wait()
	close(done)
	readers.Wait()

	require.Equal(t, n-(n+2)/3, l.Len())
	require.True(t, slices.IsSorted(l.Values()))
}

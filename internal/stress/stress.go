// Package stress drives a lflist.List with concurrent producers, removers,
// readers and splitters and checks the list's invariants once the mutators
// are done.
package stress

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ansiwen/golflist/internal/config"
	"github.com/ansiwen/golflist/pkg/lflist"
	"github.com/ansiwen/golflist/pkg/lfmetrics"
)

const (
	// splitWorkers bounds the goroutines of one Splitter.Parallel pass.
	splitWorkers = 4
	scanLimit    = 256
)

type Report struct {
	RunID    string
	Inserted int64
	Removed  int64
	Updated  int64
	Reads    int64
	Splits   int64
	// SplitAborts counts splitter passes that hit a concurrent change.
	SplitAborts int64
	Retries     int64
	Len         int
	Counted     int
	Drained     int64
	Elapsed     time.Duration
	Violations  []string
}

func (r Report) OK() bool {
	return len(r.Violations) == 0
}

type Runner struct {
	cfg  config.Config
	log  *slog.Logger
	id   string
	list *lflist.List[int64]

	inserted    atomic.Int64
	removed     atomic.Int64
	updated     atomic.Int64
	reads       atomic.Int64
	splits      atomic.Int64
	splitAborts atomic.Int64
	retries     atomic.Int64

	forward lflist.Observer
}

// New prepares a run. With a non-nil reg the list's metrics are registered
// under the run ID.
func New(cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*Runner, error) {
	wrapErr := func(err error) error {
		return fmt.Errorf("stress.New: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, wrapErr(err)
	}
	r := &Runner{
		cfg: cfg,
		log: log,
		id:  uuid.NewString(),
	}
	r.log = r.log.With("run", r.id)
	if reg != nil {
		col, err := lfmetrics.New(reg, r.id, func() int {
			return r.list.Len()
		})
		if err != nil {
			return nil, wrapErr(err)
		}
		r.forward = col
	}
	var order func(a, b int64) int
	if cfg.Sorted {
		order = cmp.Compare[int64]
	}
	r.list = lflist.New(order, lflist.WithObserver(r), lflist.WithLogger(r.log))
	return r, nil
}

func (r *Runner) ID() string {
	return r.id
}

func (r *Runner) List() *lflist.List[int64] {
	return r.list
}

func (r *Runner) Inserted(op lflist.Op) {
	if r.forward != nil {
		r.forward.Inserted(op)
	}
}

func (r *Runner) Removed() {
	if r.forward != nil {
		r.forward.Removed()
	}
}

func (r *Runner) Retried(op lflist.Op) {
	r.retries.Add(1)
	if r.forward != nil {
		r.forward.Retried(op)
	}
}

// Run executes the workload and verifies the list afterwards. A run cut
// short by ctx or the configured duration returns the partial report and
// the context error without verification.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	start := time.Now()
	r.log.Info("starting run",
		"producers", r.cfg.Workers.Producers,
		"removers", r.cfg.Workers.Removers,
		"readers", r.cfg.Workers.Readers,
		"splitters", r.cfg.Workers.Splitters,
		"ops_per_producer", r.cfg.OpsPerProducer,
		"sorted", r.cfg.Sorted)

	g, gctx := errgroup.WithContext(ctx)

	var handles chan *lflist.Node[int64]
	if r.cfg.Workers.Removers > 0 {
		handles = make(chan *lflist.Node[int64], 1024)
	}

	var producers, removers sync.WaitGroup
	for p := range r.cfg.Workers.Producers {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			return r.produce(gctx, p, handles)
		})
	}
	g.Go(func() error {
		producers.Wait()
		if handles != nil {
			close(handles)
		}
		return nil
	})
	for range r.cfg.Workers.Removers {
		removers.Add(1)
		g.Go(func() error {
			defer removers.Done()
			return r.consume(gctx, handles)
		})
	}

	quiet := make(chan struct{})
	g.Go(func() error {
		producers.Wait()
		removers.Wait()
		close(quiet)
		return nil
	})
	for range r.cfg.Workers.Readers {
		g.Go(func() error {
			return r.read(gctx, quiet)
		})
	}
	for range r.cfg.Workers.Splitters {
		g.Go(func() error {
			return r.split(gctx, quiet)
		})
	}

	err := g.Wait()
	rep := r.report(time.Since(start))
	if err != nil {
		r.log.Warn("run aborted", "error", err, "inserted", rep.Inserted, "removed", rep.Removed)
		return rep, fmt.Errorf("stress.Run: %w", err)
	}
	r.verify(&rep)
	r.log.Info("run finished",
		"elapsed", rep.Elapsed,
		"inserted", rep.Inserted,
		"removed", rep.Removed,
		"updated", rep.Updated,
		"len", rep.Len,
		"cas_retries", rep.Retries,
		"violations", len(rep.Violations))
	return rep, nil
}

func (r *Runner) limiter() *rate.Limiter {
	if r.cfg.Rate == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(r.cfg.Rate), 1)
}

// value returns the i-th value of producer p; values never repeat across
// producers.
func (r *Runner) value(p, i int) int64 {
	return int64(p*r.cfg.OpsPerProducer + i)
}

// fate decides what the removers do with v.
type fate int

const (
	fateRemoveNode fate = iota
	fateRemoveValue
	fateUpdate
	fateKeep
)

func fateOf(v int64) fate {
	return fate(v % 4)
}

func (r *Runner) produce(ctx context.Context, p int, handles chan<- *lflist.Node[int64]) error {
	lim := r.limiter()
	for _, i := range rand.Perm(r.cfg.OpsPerProducer) {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		n, err := r.list.Insert(r.value(p, i))
		if err != nil {
			return err
		}
		r.inserted.Add(1)
		if handles == nil {
			continue
		}
		select {
		case handles <- n:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) consume(ctx context.Context, handles <-chan *lflist.Node[int64]) error {
	lim := r.limiter()
	for n := range handles {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		v := n.Value()
		switch fateOf(v) {
		case fateRemoveNode:
			ok, err := r.list.RemoveNode(n)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("remove of node %d reported not found", v)
			}
			r.removed.Add(1)
		case fateRemoveValue:
			n, err := r.list.Remove(v)
			if err != nil {
				return err
			}
			if n == nil {
				return fmt.Errorf("remove of value %d reported not found", v)
			}
			r.removed.Add(1)
		case fateUpdate:
			ok, err := r.list.Update(n)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("update of node %d reported not found", v)
			}
			r.updated.Add(1)
		}
	}
	return nil
}

func (r *Runner) read(ctx context.Context, quiet <-chan struct{}) error {
	lim := r.limiter()
	total := r.cfg.Workers.Producers * r.cfg.OpsPerProducer
	for {
		select {
		case <-quiet:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		v := int64(rand.IntN(total))
		r.list.Contains(v)
		if n := r.list.Find(v, cmp.Compare[int64]); n != nil && n.Value() != v {
			return fmt.Errorf("find %d returned node holding %d", v, n.Value())
		}
		if err := r.scan(); err != nil {
			return err
		}
		r.reads.Add(1)
	}
}

// scan walks a prefix of the list. A lagging walk only ever moves forward
// through frozen successors, so a sorted list never goes backwards.
func (r *Runner) scan() error {
	prev, first := int64(0), true
	seen := 0
	for v := range r.list.All() {
		if r.cfg.Sorted && !first && v < prev {
			return fmt.Errorf("traversal went from %d back to %d", prev, v)
		}
		prev, first = v, false
		if seen++; seen == scanLimit {
			break
		}
	}
	return nil
}

func (r *Runner) split(ctx context.Context, quiet <-chan struct{}) error {
	lim := r.limiter()
	for {
		select {
		case <-quiet:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		err := r.list.Splitter().Parallel(ctx, splitWorkers, func(context.Context, int64) error {
			return nil
		})
		switch {
		case errors.Is(err, lflist.ErrConcurrentModification):
			r.splitAborts.Add(1)
		case err != nil:
			return err
		}
		r.splits.Add(1)
	}
}

func (r *Runner) report(elapsed time.Duration) Report {
	return Report{
		RunID:       r.id,
		Inserted:    r.inserted.Load(),
		Removed:     r.removed.Load(),
		Updated:     r.updated.Load(),
		Reads:       r.reads.Load(),
		Splits:      r.splits.Load(),
		SplitAborts: r.splitAborts.Load(),
		Retries:     r.retries.Load(),
		Len:         r.list.Len(),
		Elapsed:     elapsed,
	}
}

// expected returns the values that must remain once all mutators are done.
func (r *Runner) expected() map[int64]struct{} {
	want := make(map[int64]struct{})
	for p := range r.cfg.Workers.Producers {
		for i := range r.cfg.OpsPerProducer {
			v := r.value(p, i)
			if r.cfg.Workers.Removers > 0 {
				if f := fateOf(v); f == fateRemoveNode || f == fateRemoveValue {
					continue
				}
			}
			want[v] = struct{}{}
		}
	}
	return want
}

func (r *Runner) verify(rep *Report) {
	violate := func(format string, args ...any) {
		rep.Violations = append(rep.Violations, fmt.Sprintf(format, args...))
	}

	values := r.list.Values()
	rep.Counted = len(values)
	if rep.Len != rep.Counted {
		violate("Len() = %d but traversal found %d elements", rep.Len, rep.Counted)
	}
	if want := rep.Inserted - rep.Removed; int64(rep.Len) != want {
		violate("Len() = %d, want inserted-removed = %d", rep.Len, want)
	}
	if r.cfg.Sorted && !slices.IsSorted(values) {
		violate("sorted list traversal is out of order")
	}

	want := r.expected()
	seen := make(map[int64]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			violate("value %d appears more than once", v)
		}
		seen[v] = struct{}{}
		if _, ok := want[v]; !ok {
			violate("value %d should not be in the list", v)
		}
	}
	for v := range want {
		if _, ok := seen[v]; !ok {
			violate("value %d is missing", v)
		}
	}

	var drained atomic.Int64
	var drainedSet sync.Map
	err := r.list.Splitter().Parallel(context.Background(), splitWorkers, func(_ context.Context, v int64) error {
		drained.Add(1)
		if _, dup := drainedSet.LoadOrStore(v, struct{}{}); dup {
			return fmt.Errorf("value %d drained twice", v)
		}
		return nil
	})
	if err != nil {
		violate("splitter drain: %v", err)
	}
	rep.Drained = drained.Load()
	if rep.Drained != int64(rep.Counted) {
		violate("splitter drained %d elements, traversal found %d", rep.Drained, rep.Counted)
	}
}

package lflist

import (
	"log/slog"
)

// Op names the CAS step that an Observer is told about.
type Op string

const (
	OpAppend       Op = "append"
	OpSortedInsert Op = "sorted_insert"
	OpRemove       Op = "remove"
	OpUnlink       Op = "unlink"
)

// Observer receives a call for every committed structural change and for
// every failed CAS that forced a retry. Implementations must be safe for
// concurrent use and must not call back into the list.
type Observer interface {
	Inserted(op Op)
	Removed()
	Retried(op Op)
}

type Option func(*options)

type options struct {
	log *slog.Logger
	obs Observer
}

// WithLogger enables debug traces of CAS contention.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.obs = obs
	}
}

func (l *List[T]) trace(msg string, args ...any) {
	if l.opts.log != nil {
		l.opts.log.Debug(msg, args...)
	}
}

func (l *List[T]) retried(op Op) {
	if l.opts.obs != nil {
		l.opts.obs.Retried(op)
	}
	l.trace("lflist: CAS lost, retrying", "op", op)
}

func (l *List[T]) linked(op Op) {
	l.size.Add(1)
	l.epoch.Add(1)
	if l.opts.obs != nil {
		l.opts.obs.Inserted(op)
	}
}

func (l *List[T]) unlinked() {
	l.size.Add(-1)
	l.epoch.Add(1)
	if l.opts.obs != nil {
		l.opts.obs.Removed()
	}
}

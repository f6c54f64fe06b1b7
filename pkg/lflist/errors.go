package lflist

import (
	"errors"
	"fmt"
)

var ErrIndexOutOfRange = errors.New("index out of range")
var ErrUnsupported = errors.New("operation not supported by this list")
var ErrConcurrentModification = errors.New("list modified during traversal")
var ErrNoSuchElement = errors.New("no such element")
var ErrIllegalState = errors.New("no current element")
var ErrNodeInUse = errors.New("node is linked into a list")
var ErrNilNode = errors.New("nil node")

func errWrapper(msg string) func(err error) error {
	format := msg + ": %w"
	return func(err error) error {
		return fmt.Errorf(format, err)
	}
}

func outOfRange(index, size int) error {
	return fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, index, size)
}

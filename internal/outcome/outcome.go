// Package outcome carries the result of a remote lookup as Success(value) or Failure(reason).
//
// Callers at component boundaries collapse a failure to the zero value, but the
// reason stays available for logging and tests.
package outcome

import (
	"context"
	"errors"
	"net"
)

// Failure reasons.
var (
	ErrTimeout      = errors.New("timeout")
	ErrMalformed    = errors.New("malformed response")
	ErrCacheCorrupt = errors.New("cache corrupted")
	ErrNotFound     = errors.New("not found")
	ErrTransport    = errors.New("transport failure")
)

// Result is either a value or the reason it could not be produced.
type Result[T any] struct {
	value  T
	reason error
}

// Success wraps a value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure records why no value exists. A nil reason is replaced by ErrNotFound.
func Failure[T any](reason error) Result[T] {
	if reason == nil {
		reason = ErrNotFound
	}
	return Result[T]{reason: reason}
}

// Ok reports whether the result holds a value.
func (r Result[T]) Ok() bool {
	return r.reason == nil
}

// Value returns the value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Reason returns the failure reason, nil on success.
func (r Result[T]) Reason() error {
	return r.reason
}

// Classify maps a transport error onto the failure taxonomy while keeping the original chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrTransport) || errors.Is(err, ErrNotFound) {
		return err
	}
	if IsTimeout(err) {
		return errors.Join(ErrTimeout, err)
	}
	return errors.Join(ErrTransport, err)
}

// IsTimeout reports whether err stems from a deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

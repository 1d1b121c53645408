// Package safe runs decoder and platform calls behind a recover boundary so a
// crash inside third-party code turns into "no result" instead of taking the
// process down.
//
// Memory faults raised by Go code (nil or unmapped pointers touched through
// unsafe, truncated mmaps) are converted to panics with
// debug.SetPanicOnFault and recovered like any other panic. A fault inside C
// code reached through cgo cannot be recovered and still terminates the
// process.
package safe

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrUnavailable reports that a result could not be produced and the caller
// should treat the request as "none".
var ErrUnavailable = errors.New("unavailable")

// PanicError carries the recovered value of a crashed call.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered: %v", e.Value)
}

func (e *PanicError) Unwrap() error { return ErrUnavailable }

// Do calls fn on the current goroutine and converts a panic or memory fault
// into a *PanicError. Ordinary errors from fn pass through unchanged.
func Do[T any](fn func() (T, error)) (result T, err error) {
	prev := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(prev)

	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return fn()
}

// Crashed reports whether err came from a recovered panic.
func Crashed(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

package routine

import (
	"errors"
	"fmt"
)

// ErrCanceled is the outcome of a [Routine] that has been broken.
//
// Cancellation is expected, not exceptional. A routine that ends with
// an error matching ErrCanceled (see [errors.Is]) never reports it to
// an [ErrorSink].
var ErrCanceled = errors.New("routine: canceled")

// canceledError is ErrCanceled with a reason attached.
type canceledError struct {
	reason error
}

func (e *canceledError) Error() string {
	return "routine: canceled: " + e.reason.Error()
}

func (e *canceledError) Unwrap() []error {
	return []error{ErrCanceled, e.reason}
}

func canceled(reason error) error {
	switch {
	case reason == nil:
		return ErrCanceled
	case errors.Is(reason, ErrCanceled):
		return reason
	}
	return &canceledError{reason}
}

// IsCanceled reports whether err is, or wraps, [ErrCanceled].
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// A ProtocolError describes a misuse of the awaiter protocol, for example,
// awaiting something that cannot be canceled, or resuming a suspension twice.
//
// Protocol errors are defects in surrounding code. They are raised with
// panic and never converted into a routine outcome.
type ProtocolError struct {
	Op  string
	Msg string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("routine: %s: %s", e.Op, e.Msg)
}

func violation(op, msg string) {
	panic(&ProtocolError{Op: op, Msg: msg})
}

// A PanicError is the outcome of a [Routine] whose state machine panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("routine: panic: %v", e.Value)
}

// Unwrap returns Value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

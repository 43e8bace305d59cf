package routine_test

import (
	"testing"

	"github.com/b97tsk/routine"
	"github.com/stretchr/testify/require"
)

type unit = struct{}

// recorder is an ErrorSink that keeps what it receives.
type recorder struct {
	errs []error
}

func (r *recorder) Report(err error) {
	r.errs = append(r.errs, err)
}

// steps builds a state machine that runs fs[0] on start, fs[1] on
// the first resumption, and so on.
func steps[T any](fs ...func(b *routine.Builder[T])) routine.StateMachine[T] {
	state := 0
	return routine.StateMachineFunc[T](func(b *routine.Builder[T]) {
		f := fs[state]
		state++
		f(b)
	})
}

// forever is a state machine that suspends on a signal nobody notifies.
func forever[T any]() routine.StateMachine[T] {
	var never routine.Signal
	return routine.StateMachineFunc[T](func(b *routine.Builder[T]) {
		b.AwaitOnCompleted(never.Wait())
	})
}

// completions counts how many times the completion of t fires.
func completions(t routine.Task) *[]error {
	var errs []error
	t.Completion().Subscribe(func(err error) {
		errs = append(errs, err)
	})
	return &errs
}

func protocolPanic(t *testing.T, f func()) *routine.ProtocolError {
	t.Helper()

	var v any

	func() {
		defer func() { v = recover() }()
		f()
	}()

	require.NotNil(t, v, "expected a panic")
	perr, ok := v.(*routine.ProtocolError)
	require.Truef(t, ok, "expected *routine.ProtocolError, got %T: %v", v, v)
	return perr
}

// manual is a breakable awaiter completed by hand.
type manual struct {
	cont     func()
	done     bool
	canceled error
}

func (m *manual) IsCompleted() bool { return m.done }

func (m *manual) OnCompleted(cont func()) { m.cont = cont }

func (m *manual) Cancel(reason error) {
	if m.done {
		return
	}
	m.done = true
	m.canceled = reason
}

func (m *manual) fire() {
	m.done = true
	m.cont()
}

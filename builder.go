package routine

import (
	"fmt"
	"runtime/debug"
)

// A StateMachine is the body of a [Routine], written as an explicit state
// machine.
//
// MoveNext is called once when the routine starts and once every time
// the routine resumes. Each call must end in exactly one of the following:
//   - [Builder.AwaitOnCompleted], to suspend until an awaiter completes;
//   - [Builder.SetResult] or [Builder.Complete], to complete the routine;
//   - [Builder.SetException], to fail the routine.
//
// Anything the body needs across suspensions (the current state, locals,
// awaiters) must be kept in the StateMachine itself:
//
//	type countdown struct {
//		state int
//		n     int
//	}
//
//	func (m *countdown) MoveNext(b *routine.Builder[int]) {
//		switch m.state {
//		case 0:
//			m.state = 1
//			b.AwaitOnCompleted(routine.Ticks(m.n))
//		case 1:
//			b.SetResult(m.n)
//		}
//	}
type StateMachine[T any] interface {
	MoveNext(b *Builder[T])
}

// StateMachineFunc is a func(*Builder[T]) that implements [StateMachine].
// It suits bodies that keep their state in captured variables.
type StateMachineFunc[T any] func(b *Builder[T])

// MoveNext implements the [StateMachine] interface.
func (f StateMachineFunc[T]) MoveNext(b *Builder[T]) { f(b) }

// A Builder connects a [StateMachine] to the [Routine] it drives.
//
// A Builder is passed to every MoveNext call. It must not be used after
// the routine has ended, except that calling its completion methods then
// is a no-op.
type Builder[T any] struct {
	r        *Routine[T]
	sm       StateMachine[T]
	running  bool // in MoveNext
	again    bool // resumed while running
	awaiting bool // AwaitOnCompleted called in this step
}

// Task returns the [Routine] driven by b, for use as a parent in [Spawn].
func (b *Builder[T]) Task() Task {
	return b.r
}

// SetStateMachine replaces the [StateMachine] that will be called on
// the next resumption.
func (b *Builder[T]) SetStateMachine(sm StateMachine[T]) {
	if sm == nil {
		panic("routine: SetStateMachine(nil)")
	}
	b.sm = sm
}

func (b *Builder[T]) start() {
	c := &b.r.core
	c.status = StatusRunning
	c.cfg.logger.Debug("routine started", "name", c.cfg.name)
	b.drive()
}

// drive runs the state machine until it suspends or the routine ends.
// A resumption that happens while the state machine is running (e.g.
// an awaiter completing synchronously) is run by the same loop rather
// than recursively.
func (b *Builder[T]) drive() {
	if b.running {
		b.again = true
		return
	}

	b.running = true
	defer func() { b.running = false }()

	for {
		b.again = false
		b.step()
		if !b.again || b.r.ended() {
			break
		}
	}
}

func (b *Builder[T]) step() {
	c := &b.r.core

	c.status = StatusRunning
	b.awaiting = false

	b.moveNext()

	switch {
	case c.ended():
	case !b.awaiting:
		violation("MoveNext", "state machine returned without awaiting or completing")
	case !b.again:
		c.status = StatusSuspended
	}
}

func (b *Builder[T]) moveNext() {
	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(*ProtocolError); ok || b.r.status.Terminal() {
				panic(v)
			}
			b.SetException(&PanicError{Value: v, Stack: debug.Stack()})
		}
	}()
	b.sm.MoveNext(b)
}

func (b *Builder[T]) resume(aw BreakableAwaiter) {
	c := &b.r.core
	if c.ended() {
		return
	}
	if c.awaiter == aw {
		c.awaiter = nil
		if sub := c.breaker; sub != nil {
			c.breaker = nil
			sub.Unsubscribe()
		}
	}
	b.drive()
}

// AwaitOnCompleted suspends the routine until aw completes, after which
// the [StateMachine] is called again. It must be the last thing MoveNext
// does.
//
// aw must be one of:
//   - a [*SelfScopeAwaiter], which receives the routine's [Scope] and
//     never suspends the routine;
//   - a [BreakableAwaiter], which is canceled if the routine is broken
//     before it completes. If it has already completed, the routine does
//     not suspend.
//
// Any other awaiter would make the routine impossible to cancel while it
// is suspended; AwaitOnCompleted panics with a [*ProtocolError] instead.
func (b *Builder[T]) AwaitOnCompleted(aw Awaiter) {
	c := &b.r.core

	switch {
	case !b.running:
		violation("AwaitOnCompleted", "called outside of MoveNext")
	case b.awaiting:
		violation("AwaitOnCompleted", "called twice in one step")
	case c.ended():
		return
	}

	b.awaiting = true

	switch aw := aw.(type) {
	case *SelfScopeAwaiter:
		aw.scope = c.scope
		aw.OnCompleted(func() { b.again = true })
	case BreakableAwaiter:
		if aw.IsCompleted() {
			b.again = true
			return
		}
		c.awaiter = aw
		c.breaker = c.scope.Resubscribe(c.breaker, func() {
			if c.awaiter == aw {
				c.awaiter = nil
				c.breaker = nil
				aw.Cancel(ErrCanceled)
			}
		})
		aw.OnCompleted(oneShot(func() { b.resume(aw) }))
	case nil:
		violation("AwaitOnCompleted", "nil awaiter")
	default:
		violation("AwaitOnCompleted", fmt.Sprintf("%T is not breakable", aw))
	}
}

// SetResult completes the routine with v.
//
// If the routine has been broken, or its scope is being disposed,
// SetResult does nothing; cancellation wins.
func (b *Builder[T]) SetResult(v T) {
	r := b.r
	if r.ended() {
		return
	}
	r.value, r.hasValue = v, true
	r.complete(StatusCompleted, nil)
}

// Complete completes the routine without a result.
// Like [Builder.SetResult], it does nothing if the routine has been broken.
func (b *Builder[T]) Complete() {
	r := b.r
	if r.ended() {
		return
	}
	r.complete(StatusCompleted, nil)
}

// SetException fails the routine with err.
//
// Unless err matches [ErrCanceled], err is reported to the routine's
// [ErrorSink] first. The routine's completion then fires with err, unless
// the routine has already ended.
func (b *Builder[T]) SetException(err error) {
	if err == nil {
		panic("routine: SetException(nil)")
	}
	r := b.r
	if !IsCanceled(err) {
		r.cfg.sink.Report(err)
	}
	if r.ended() {
		return
	}
	status := StatusFailed
	if IsCanceled(err) {
		status = StatusCanceled
	}
	r.complete(status, err)
}

// Package routine is a cooperative task engine for code that runs on
// a single thread and is driven by an external tick.
//
// It lets one write sequential-looking logic over operations that take time
// (waiting for events, for a number of ticks, or for other tasks), without
// goroutines, locks or channels. Everything happens on the goroutine that
// drives the ticks.
//
// # Routines And State Machines
//
// A [Routine] is a unit of work that can suspend and be resumed later.
// Go has no compiler support for such things, so the body of a Routine is
// written as an explicit [StateMachine]: its MoveNext method is called once
// when the Routine starts and once every time it resumes, and each call
// picks up where the previous one left off by looking at a state field.
//
// Every MoveNext call ends by telling its [Builder] what to do next:
// suspend on an [Awaiter] ([Builder.AwaitOnCompleted]), complete
// ([Builder.SetResult], [Builder.Complete]), or fail
// ([Builder.SetException]).
//
// # Push And Pull
//
// A suspended Routine resumes in one of two ways:
//   - push: the awaiter completes because something happened (e.g.
//     [Signal.Notify], [State.Set], another Routine ending), and resumes
//     the Routine synchronously, right there;
//   - pull: the awaiter is polled by [Routine.Update], which the driver
//     calls once per tick, and completes on some tick (e.g. [Ticks],
//     [Until]).
//
// An [Executor] keeps a table of root tasks and updates all of them on
// every tick.
//
// # Structured Cancellation
//
// Every Routine owns a [Scope], a registry of cleanups that is disposed
// when the Routine ends. Routines can be attached to one another
// ([Spawn], [Routine.Attach]); a parent updates its children on every tick
// and, when it ends, breaks the ones still running.
//
// Breaking a Routine ([Routine.Break]) is idempotent and deterministic:
// its children are broken, the most recently attached one first, then
// the awaiter it is suspended on is canceled, then its Scope is disposed.
// No step of a broken Routine, or of any of its children, runs after Break
// returns.
//
// Only breakable awaiters ([BreakableAwaiter]) can be awaited; awaiting
// anything that cannot be canceled is a programming error and panics.
//
// # Errors
//
// A Routine that is broken ends with [ErrCanceled]. That is expected and
// goes unreported. Any other failure, including a panic in MoveNext, is
// reported to the [ErrorSink] of the Routine and ends it as failed.
// Misuses of the protocol (awaiting an unbreakable awaiter, resuming twice,
// returning from MoveNext without awaiting or completing) panic with
// a [*ProtocolError].
package routine

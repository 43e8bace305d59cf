package routine

import "golang.org/x/exp/constraints"

// A TickAwaiter is a [BreakableAwaiter] that completes after being updated
// a number of times. See [Ticks].
type TickAwaiter struct {
	pending
	n, count uint64
}

// Ticks returns a [TickAwaiter] that completes on the n-th tick of
// the routine awaiting it. If n is zero, it completes immediately.
func Ticks[Int constraints.Integer](n Int) *TickAwaiter {
	if n < 0 {
		panic("routine: Ticks: negative count")
	}
	a := &TickAwaiter{n: uint64(n)}
	a.done = n == 0
	return a
}

// Update counts one tick.
func (a *TickAwaiter) Update() {
	if a.done {
		return
	}
	if a.count++; a.count >= a.n {
		a.settle(nil)
	}
}

// Remaining returns how many ticks are left before a completes.
func (a *TickAwaiter) Remaining() uint64 {
	return a.n - a.count
}

// Cancel implements the [BreakableAwaiter] interface.
func (a *TickAwaiter) Cancel(reason error) {
	a.settle(canceled(reason))
}

// A CondAwaiter is a [BreakableAwaiter] that completes once a condition is
// met, checking it once per tick. See [Until].
type CondAwaiter struct {
	pending
	cond func() bool
}

// Until returns a [CondAwaiter] that completes on the first tick on which
// cond returns true. If cond is already true when awaited, the awaiting
// routine does not suspend.
func Until(cond func() bool) *CondAwaiter {
	if cond == nil {
		panic("routine: Until(nil)")
	}
	return &CondAwaiter{cond: cond}
}

// IsCompleted implements the [Awaiter] interface.
func (a *CondAwaiter) IsCompleted() bool {
	if !a.done && a.cond() {
		a.done = true
	}
	return a.done
}

// Update checks the condition.
func (a *CondAwaiter) Update() {
	if !a.done && a.cond() {
		a.settle(nil)
	}
}

// Cancel implements the [BreakableAwaiter] interface.
func (a *CondAwaiter) Cancel(reason error) {
	a.settle(canceled(reason))
}

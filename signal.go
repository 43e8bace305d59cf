package routine

import "slices"

// A Signal resumes every routine that is waiting for it when notified.
//
// Waiters are resumed in the order in which they started waiting.
//
// A Signal must not be shared by more than one goroutine.
type Signal struct {
	waiters []*SignalAwaiter
}

// A SignalAwaiter is a [BreakableAwaiter] that completes when its [Signal]
// notifies. See [Signal.Wait].
type SignalAwaiter struct {
	pending
	s *Signal
}

// Wait returns a [SignalAwaiter] that completes on the next notification
// of s.
func (s *Signal) Wait() *SignalAwaiter {
	w := &SignalAwaiter{s: s}
	s.waiters = append(s.waiters, w)
	return w
}

// Notify completes every [SignalAwaiter] that is waiting for s.
// Waiters created while notifying wait for the next notification.
func (s *Signal) Notify() {
	waiters := s.waiters
	s.waiters = nil
	for _, w := range waiters {
		w.s = nil
		w.settle(nil)
	}
}

// Len returns the number of waiters.
func (s *Signal) Len() int {
	return len(s.waiters)
}

func (s *Signal) remove(w *SignalAwaiter) {
	if i := slices.Index(s.waiters, w); i != -1 {
		s.waiters = slices.Delete(s.waiters, i, i+1)
	}
}

// Cancel implements the [BreakableAwaiter] interface.
// A canceled waiter stops waiting for its [Signal].
func (w *SignalAwaiter) Cancel(reason error) {
	if w.done {
		return
	}
	if s := w.s; s != nil {
		w.s = nil
		s.remove(w)
	}
	w.settle(canceled(reason))
}

func completedSignalAwaiter() *SignalAwaiter {
	w := new(SignalAwaiter)
	w.done = true
	return w
}

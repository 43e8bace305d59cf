package routine

import "slices"

// Semaphore provides a way to bound access to a resource among routines.
// The callers can request access with a given weight.
//
// Waiters are served in FIFO order: a large request at the head of the
// queue holds back smaller ones behind it.
//
// A Semaphore must not be shared by more than one goroutine.
type Semaphore struct {
	size    int64
	cur     int64
	waiters []*SemaphoreAwaiter
}

// NewSemaphore creates a new weighted semaphore with the given maximum
// combined weight.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{size: n}
}

// A SemaphoreAwaiter is a [BreakableAwaiter] that completes once its
// weight has been acquired. See [Semaphore.Acquire].
type SemaphoreAwaiter struct {
	pending
	s *Semaphore
	n int64
}

// Acquire returns a [SemaphoreAwaiter] that completes once a weight of n
// has been acquired from s.
//
// Canceling the awaiter before it completes gives up the request.
// A request larger than the size of s never completes.
func (s *Semaphore) Acquire(n int64) *SemaphoreAwaiter {
	if n < 0 {
		panic("routine(Semaphore): negative weight")
	}
	w := &SemaphoreAwaiter{s: s, n: n}
	switch {
	case s.TryAcquire(n):
		w.s = nil
		w.done = true
	case n <= s.size:
		s.waiters = append(s.waiters, w)
	}
	return w
}

// TryAcquire acquires a weight of n from s without waiting.
// It fails if there is not enough room, or if others are waiting.
func (s *Semaphore) TryAcquire(n int64) bool {
	if n < 0 {
		panic("routine(Semaphore): negative weight")
	}
	if s.size-s.cur < n || len(s.waiters) != 0 {
		return false
	}
	s.cur += n
	return true
}

// Release releases the semaphore with a weight of n.
func (s *Semaphore) Release(n int64) {
	if n < 0 {
		panic("routine(Semaphore): negative weight")
	}
	if s.cur >= 0 {
		s.cur -= n
	}
	if s.cur < 0 {
		panic("routine(Semaphore): released more than held")
	}
	s.notifyWaiters()
}

func (s *Semaphore) notifyWaiters() {
	for len(s.waiters) != 0 {
		w := s.waiters[0]
		if s.size-s.cur < w.n {
			break
		}
		s.cur += w.n
		s.waiters = slices.Delete(s.waiters, 0, 1)
		w.s = nil
		w.settle(nil)
	}
}

// Cancel implements the [BreakableAwaiter] interface.
func (w *SemaphoreAwaiter) Cancel(reason error) {
	if w.done {
		return
	}
	if s := w.s; s != nil {
		w.s = nil
		if i := slices.Index(s.waiters, w); i != -1 {
			s.waiters = slices.Delete(s.waiters, i, i+1)
			if i == 0 {
				s.notifyWaiters()
			}
		}
	}
	w.settle(canceled(reason))
}

package routine

// A WaitGroup is a counter that routines can wait on until it drops to
// zero.
//
// A WaitGroup must not be shared by more than one goroutine.
type WaitGroup struct {
	zero Signal
	n    int
}

// Add adds delta, which may be negative, to the [WaitGroup] counter.
// If the counter becomes zero, Add resumes any routine waiting on wg.
// If the counter is negative, Add panics.
func (wg *WaitGroup) Add(delta int) {
	if wg.n >= 0 {
		wg.n += delta
	}
	if wg.n < 0 {
		panic("routine(WaitGroup): negative counter")
	}
	if wg.n == 0 && delta != 0 {
		wg.zero.Notify()
	}
}

// Done decrements the [WaitGroup] counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait returns a [SignalAwaiter] that completes when the counter becomes
// zero. If the counter is already zero, it is completed already.
func (wg *WaitGroup) Wait() *SignalAwaiter {
	if wg.n == 0 {
		return completedSignalAwaiter()
	}
	return wg.zero.Wait()
}

package routine

import "slices"

// A Completion is a single-shot broadcast announcing that a [Routine]
// has ended. It fires exactly once, with nil for success, or with
// the error the Routine ended with (which matches [ErrCanceled] if
// the Routine was broken).
type Completion struct {
	subs  []*completionSub
	fired bool
	err   error
}

type completionSub struct {
	f func(err error)
}

// Subscribe registers f to be called when c fires.
// If c has already fired, f is called immediately.
//
// The returned function removes f from c; calling it after c fires is
// a no-op.
func (c *Completion) Subscribe(f func(err error)) (unsubscribe func()) {
	if f == nil {
		panic("routine: Subscribe(nil)")
	}
	if c.fired {
		f(c.err)
		return func() {}
	}
	sub := &completionSub{f}
	c.subs = append(c.subs, sub)
	return func() {
		if i := slices.Index(c.subs, sub); i != -1 {
			c.subs = slices.Delete(c.subs, i, i+1)
		}
	}
}

// Done reports whether c has fired.
func (c *Completion) Done() bool {
	return c.fired
}

// Err returns the error c fired with.
func (c *Completion) Err() error {
	return c.err
}

func (c *Completion) publish(err error) {
	if c.fired {
		violation("publish", "completion published more than once")
	}
	c.fired = true
	c.err = err
	subs := c.subs
	c.subs = nil
	for _, sub := range subs {
		sub.f(err)
	}
}

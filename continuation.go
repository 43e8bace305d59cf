package routine

// continuation is a slot for what to run when the current suspension of
// a routine ends. It is set at most once per suspension.
type continuation struct {
	f func()
}

func (c *continuation) Set(f func()) {
	if f == nil {
		violation("OnCompleted", "nil continuation")
	}
	if c.f != nil {
		violation("OnCompleted", "continuation already set")
	}
	c.f = f
}

func (c *continuation) Pending() bool {
	return c.f != nil
}

// Fire empties c and then calls what it held, if anything.
func (c *continuation) Fire() {
	if f := c.f; f != nil {
		c.f = nil
		f()
	}
}

// oneShot wraps f into a function that must be called exactly once.
func oneShot(f func()) func() {
	fired := false
	return func() {
		if fired {
			violation("resume", "continuation invoked more than once")
		}
		fired = true
		f()
	}
}

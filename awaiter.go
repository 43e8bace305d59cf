package routine

// An Awaiter is a pending operation that a [Routine] can suspend on.
//
// OnCompleted registers the function to call when the operation completes.
// It is called at most once per suspension. If the operation has already
// completed, OnCompleted may call it immediately.
//
// An Awaiter given to [Builder.AwaitOnCompleted] must also be
// a [BreakableAwaiter], or be a [*SelfScopeAwaiter].
type Awaiter interface {
	IsCompleted() bool
	OnCompleted(cont func())
}

// A BreakableAwaiter is an [Awaiter] that accepts a cancellation signal.
//
// When the [Routine] suspended on it is broken, Cancel is called with
// the reason. Cancel on a completed awaiter must be a no-op.
type BreakableAwaiter interface {
	Awaiter
	Cancel(reason error)
}

// An Updater is anything that wants to be polled once per tick.
//
// Awaiters that complete by polling rather than by event delivery
// (e.g. [Ticks]) implement Updater; a suspended [Routine] forwards its
// Update calls to them.
type Updater interface {
	Update()
}

// A SelfScopeAwaiter hands a [Routine] its own [Scope].
// Awaiting it never suspends.
//
//	aw := routine.SelfScope()
//	b.AwaitOnCompleted(aw)
//	scope := aw.Scope()
type SelfScopeAwaiter struct {
	scope *Scope
}

// SelfScope returns a new [SelfScopeAwaiter].
func SelfScope() *SelfScopeAwaiter {
	return new(SelfScopeAwaiter)
}

// Scope returns the [Scope] of the awaiting [Routine], or nil if a has not
// been awaited yet.
func (a *SelfScopeAwaiter) Scope() *Scope {
	return a.scope
}

// IsCompleted reports whether a has been awaited.
func (a *SelfScopeAwaiter) IsCompleted() bool {
	return a.scope != nil
}

// OnCompleted calls cont immediately.
func (a *SelfScopeAwaiter) OnCompleted(cont func()) {
	cont()
}

// pending is the completion state shared by the awaiters of this package.
type pending struct {
	cont continuation
	done bool
	err  error
}

func (p *pending) IsCompleted() bool {
	return p.done
}

func (p *pending) OnCompleted(cont func()) {
	if p.done {
		cont()
		return
	}
	p.cont.Set(cont)
}

// Err returns nil if the awaiter completed normally, or the cancellation
// error if it was canceled. Err returns nil while pending.
func (p *pending) Err() error {
	return p.err
}

func (p *pending) settle(err error) bool {
	if p.done {
		return false
	}
	p.done = true
	p.err = err
	p.cont.Fire()
	return true
}

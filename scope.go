package routine

import "slices"

// A Scope is a registry of cleanups bound to the lifetime of something,
// typically a [Routine]. Disposing a Scope runs its cleanups.
//
// Each [Routine] owns a Scope and disposes it when it ends. Disposing
// the Scope of a Routine that has not ended yet breaks the Routine.
//
// A Scope must not be shared by more than one goroutine.
type Scope struct {
	subs      []*Subscription
	owner     *core
	disposing bool
	disposed  bool
}

// A Subscription is a cleanup registered in a [Scope].
type Subscription struct {
	scope *Scope
	f     func()
}

// NewScope creates a new [Scope].
func NewScope() *Scope {
	return new(Scope)
}

// OnDispose registers f to be called when s is disposed.
//
// If s is already disposing or disposed, f is called immediately and
// the returned Subscription is inactive.
func (s *Scope) OnDispose(f func()) *Subscription {
	if f == nil {
		panic("routine: OnDispose(nil)")
	}
	sub := &Subscription{f: f}
	if s.disposing {
		f()
		return sub
	}
	sub.scope = s
	s.subs = append(s.subs, sub)
	return sub
}

// Unsubscribe removes sub from its [Scope] without calling it.
// Unsubscribing more than once is a no-op.
func (sub *Subscription) Unsubscribe() {
	s := sub.scope
	if s == nil {
		return
	}
	sub.scope = nil
	if i := slices.Index(s.subs, sub); i != -1 {
		s.subs = slices.Delete(s.subs, i, i+1)
	}
}

// Active reports whether sub is still waiting for its [Scope] to dispose.
func (sub *Subscription) Active() bool {
	return sub.scope != nil
}

// Resubscribe removes old from s and then registers f in its place.
// old may be nil.
//
// Removing the stale entry first guarantees that a dispose never reaches
// a cleanup that has already been superseded.
func (s *Scope) Resubscribe(old *Subscription, f func()) *Subscription {
	if old != nil {
		if old.scope != nil && old.scope != s {
			panic("routine: Resubscribe: subscription belongs to another scope")
		}
		old.Unsubscribe()
	}
	return s.OnDispose(f)
}

// Child creates a [Scope] that is disposed when s is disposed.
// Disposing the child earlier detaches it from s.
func (s *Scope) Child() *Scope {
	child := NewScope()
	sub := s.OnDispose(child.Dispose)
	child.OnDispose(sub.Unsubscribe)
	return child
}

// Disposing reports whether s has started disposing.
func (s *Scope) Disposing() bool {
	return s.disposing
}

// Disposed reports whether every cleanup of s has been run.
func (s *Scope) Disposed() bool {
	return s.disposed
}

// Dispose runs every cleanup registered in s, the most recently registered
// one first. Cleanups registered while disposing run immediately.
//
// If s is owned by a [Routine] that has not ended, the Routine is broken
// before any cleanup runs: its children are broken and its awaiter is
// canceled first, and its completion fires after the last cleanup.
//
// Every cleanup runs even if some of them panic; panics are re-raised after
// the last cleanup returns.
//
// Disposing s more than once is a no-op.
func (s *Scope) Dispose() {
	if s.disposing {
		return
	}
	s.disposing = true

	var ps panicstack

	c := s.owner
	if c != nil {
		ps.Try(c.scopeDisposing)
	}

	for len(s.subs) != 0 {
		i := len(s.subs) - 1
		sub := s.subs[i]
		s.subs[i] = nil
		s.subs = s.subs[:i]
		sub.scope = nil
		ps.Try(sub.f)
	}

	s.subs = nil
	s.disposed = true

	if c != nil {
		ps.Try(c.scopeDisposed)
	}

	ps.Repanic()
}

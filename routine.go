package routine

import (
	"errors"
	"slices"
)

// Status is the lifecycle state of a [Routine].
//
// A routine moves from StatusCreated to StatusRunning when started, then
// back and forth between StatusRunning and StatusSuspended, and finally to
// one of the terminal statuses, which it never leaves.
type Status uint8

const (
	StatusCreated Status = iota
	StatusRunning
	StatusSuspended
	StatusCompleted
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusSuspended:
		return "suspended"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	}
	return "unknown"
}

// Terminal reports whether s is one of the final statuses.
func (s Status) Terminal() bool {
	return s >= StatusCompleted
}

// ErrPending is returned by [Routine.Result] if the routine has not ended.
var ErrPending = errors.New("routine: not completed")

// A Task is the type-erased view of a [Routine], which is what parents,
// executors and awaiting routines work with.
//
// Only [*Routine] implements Task.
type Task interface {
	BreakableAwaiter
	Updater

	// Start runs the first step of the task, if it has not run yet.
	Start()
	// Break cancels the task and everything attached to it.
	Break()
	// Attach attaches child to the task.
	Attach(child Task)

	Name() string
	Status() Status
	Err() error
	Scope() *Scope
	Completion() *Completion
	Weight() Weight

	self() *core
}

// core is the part of a Routine that does not depend on its result type.
type core struct {
	status   Status
	cfg      *config
	start    func()
	scope    *Scope
	awaiter  BreakableAwaiter
	breaker  *Subscription
	children []Task
	parent   *core
	cont     continuation
	done     Completion
	err      error
	external bool // broken by a foreign Scope.Dispose
}

func (c *core) self() *core { return c }

func (c *core) init(cfg *config, start func()) {
	c.cfg = cfg
	c.start = start
	c.scope = NewScope()
	c.scope.owner = c
}

// ended reports whether c has ended or is about to (its scope is being
// disposed by someone else). No step of c may run once ended returns true.
func (c *core) ended() bool {
	return c.status.Terminal() || c.scope.disposing
}

// Name returns the name given with [WithName].
func (c *core) Name() string {
	return c.cfg.name
}

// Status returns the current [Status].
func (c *core) Status() Status {
	return c.status
}

// Weight returns the weight given with [WithWeight].
func (c *core) Weight() Weight {
	return c.cfg.weight
}

// Err returns the error the routine ended with, or nil.
func (c *core) Err() error {
	return c.err
}

// Scope returns the [Scope] owned by the routine.
func (c *core) Scope() *Scope {
	return c.scope
}

// Completion returns the [Completion] that fires when the routine ends.
func (c *core) Completion() *Completion {
	return &c.done
}

// IsCompleted reports whether the routine has ended, in any way.
func (c *core) IsCompleted() bool {
	return c.status.Terminal()
}

// OnCompleted registers cont to be called when the routine ends.
// Only one routine at a time may await another one.
func (c *core) OnCompleted(cont func()) {
	if c.status.Terminal() {
		cont()
		return
	}
	c.cont.Set(cont)
}

// Start runs the first step of the routine. Only the first call does
// anything.
func (c *core) Start() {
	if f := c.start; f != nil {
		c.start = nil
		f()
	}
}

// Update advances the routine by one tick: it starts the routine if it
// has not been started, or else updates attached children, in attachment
// order, and then the awaiter the routine is suspended on, if that awaiter
// is an [Updater].
//
// Update on an ended routine is a no-op.
func (c *core) Update() {
	if c.ended() {
		return
	}

	if c.start != nil {
		c.Start()
		return
	}

	if len(c.children) != 0 {
		for _, child := range slices.Clone(c.children) {
			child.Update()
		}
		if c.ended() {
			return
		}
	}

	if u, ok := c.awaiter.(Updater); ok && !c.attached(c.awaiter) {
		u.Update()
	}
}

func (c *core) attached(aw BreakableAwaiter) bool {
	for _, child := range c.children {
		if BreakableAwaiter(child) == aw {
			return true
		}
	}
	return false
}

// Attach makes child part of the routine: child is updated whenever
// the routine is, and broken when the routine ends.
//
// A child that has already ended is ignored. A child attached to
// a routine that has already ended is broken immediately.
func (c *core) Attach(child Task) {
	cc := child.self()
	switch {
	case cc == c:
		panic("routine: cannot attach a routine to itself")
	case cc.parent != nil:
		panic("routine: routine is already attached")
	case cc.status.Terminal():
		return
	case c.ended():
		child.Break()
		return
	}
	cc.parent = c
	c.children = append(c.children, child)
}

func (c *core) detach(child *core) {
	i := slices.IndexFunc(c.children, func(t Task) bool { return t.self() == child })
	if i != -1 {
		c.children = slices.Delete(c.children, i, i+1)
	}
}

// Break cancels the routine with [ErrCanceled]. See [core.Cancel].
func (c *core) Break() {
	c.Cancel(nil)
}

// Cancel breaks the routine: a routine that has not started never will,
// attached children are broken, the most recently attached one first,
// the awaiter the routine is suspended on is canceled, and the scope of
// the routine is disposed. Then the routine's completion fires with an
// error that matches [ErrCanceled] and, if reason is not nil, reason.
//
// No step of the routine runs after Cancel returns. Canceling an ended
// routine is a no-op.
func (c *core) Cancel(reason error) {
	if c.status.Terminal() {
		return
	}
	c.start = nil
	c.status = StatusCanceled
	c.err = canceled(reason)
	c.end(reason)
}

// complete ends c naturally, with status StatusCompleted or StatusFailed.
func (c *core) complete(status Status, err error) {
	c.start = nil
	c.status = status
	c.err = err
	c.end(ErrCanceled)
}

func (c *core) end(reason error) {
	defer c.finish()
	c.teardown(reason)
	c.scope.Dispose()
}

// teardown breaks the children of c, the most recently attached one first,
// and then cancels the awaiter c is suspended on.
func (c *core) teardown(reason error) {
	if children := c.children; len(children) != 0 {
		c.children = nil
		for _, child := range slices.Backward(children) {
			child.self().parent = nil
			child.Cancel(reason)
		}
	}

	c.cancelAwaiter(reason)
}

// scopeDisposing is called by the scope of c before any cleanup runs.
// If c has not ended, someone else is disposing the scope, and c is
// broken the same way [core.Cancel] would break it.
func (c *core) scopeDisposing() {
	if c.status.Terminal() {
		return
	}
	c.start = nil
	c.status = StatusCanceled
	c.err = canceled(nil)
	c.external = true
	c.teardown(nil)
}

// scopeDisposed is called by the scope of c after the last cleanup.
func (c *core) scopeDisposed() {
	if c.external {
		c.external = false
		c.finish()
	}
}

func (c *core) finish() {
	if p := c.parent; p != nil {
		c.parent = nil
		p.detach(c)
	}
	c.cfg.logger.Debug("routine ended", "name", c.cfg.name, "status", c.status)
	c.done.publish(c.err)
	c.cont.Fire()
}

func (c *core) cancelAwaiter(reason error) {
	aw := c.awaiter
	if aw == nil {
		return
	}
	c.awaiter = nil
	if sub := c.breaker; sub != nil {
		c.breaker = nil
		sub.Unsubscribe()
	}
	aw.Cancel(canceled(reason))
}

// A Routine is a unit of sequential work that can suspend on awaiters and
// be resumed later, either by the awaiter completing (push) or by being
// updated once per tick (pull).
//
// A Routine is driven by a [StateMachine] through a [Builder]. Create one
// with [New], [Start] or [Spawn].
//
// A Routine is itself a [BreakableAwaiter], so one routine can await
// another.
//
// A Routine must not be shared by more than one goroutine.
type Routine[T any] struct {
	core
	b        Builder[T]
	value    T
	hasValue bool
}

// New creates a [Routine] driven by sm. The first step of sm runs when
// the routine is started, either by [Routine.Start] or by the first
// [Routine.Update].
func New[T any](sm StateMachine[T], opts ...Option) *Routine[T] {
	return newRoutine(sm, newConfig(opts))
}

// Start creates a [Routine] driven by sm and starts it immediately: sm runs
// until it first suspends, or until it ends.
func Start[T any](sm StateMachine[T], opts ...Option) *Routine[T] {
	r := New(sm, opts...)
	r.Start()
	return r
}

// Spawn creates a [Routine] driven by sm, attaches it to parent, and starts
// it. The routine inherits the logger, error sink and weight of parent.
func Spawn[T any](parent Task, sm StateMachine[T], opts ...Option) *Routine[T] {
	r := newRoutine(sm, parent.self().cfg.inherit(opts))
	parent.Attach(r)
	r.Start()
	return r
}

func newRoutine[T any](sm StateMachine[T], cfg *config) *Routine[T] {
	if sm == nil {
		panic("routine: nil StateMachine")
	}
	r := &Routine[T]{}
	r.b.r = r
	r.b.sm = sm
	r.core.init(cfg, r.b.start)
	return r
}

// TryGetResult returns the result of r, if r has completed with one.
func (r *Routine[T]) TryGetResult() (v T, ok bool) {
	if r.hasValue {
		return r.value, true
	}
	return v, false
}

// Result returns the result of r and the error r ended with.
// If r has not ended yet, Result returns [ErrPending].
func (r *Routine[T]) Result() (v T, err error) {
	switch {
	case r.hasValue:
		return r.value, nil
	case !r.status.Terminal():
		return v, ErrPending
	}
	return v, r.err
}

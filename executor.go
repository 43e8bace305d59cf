package routine

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
)

// A Handle refers to a root [Task] spawned in an [Executor].
// The zero Handle refers to nothing.
//
// A Handle stays valid until its task ends and the Executor reclaims it;
// after that, it refers to nothing, even if its slot is reused.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// An Executor keeps a table of root tasks and updates all of them once
// per tick.
//
// Each call to the Update method is one tick. Root tasks are updated in
// order of their weights, heaviest first; tasks with the same weight are
// updated in the order in which they were spawned.
// Tasks that have ended are dropped from the table at the end of a tick.
//
// Spawn is safe for concurrent use, so that goroutines can hand work over
// to the goroutine driving the Executor. Every other method must only be
// called from the driving goroutine.
//
// The zero value of Executor is ready for use.
type Executor struct {
	mu       sync.Mutex
	slots    []slot
	free     []uint32
	live     int
	seq      uint64
	tick     uint64
	updating bool
	pq       priorityqueue[*rootEntry]
	logger   *slog.Logger
}

type slot struct {
	gen   uint32
	entry *rootEntry
}

type rootEntry struct {
	task   Task
	handle Handle
	weight Weight
	seq    uint64
}

func (e *rootEntry) less(other *rootEntry) bool {
	if e.weight != other.weight {
		return e.weight > other.weight
	}
	return e.seq < other.seq
}

// SetLogger sets the logger e logs to. Without it, [slog.Default] is used.
func (e *Executor) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

func (e *Executor) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// Spawn adds t to the table of root tasks and returns its [Handle].
//
// t is not started by Spawn; if it has not been started yet, it starts
// on the next tick.
//
// Spawn is safe for concurrent use.
func (e *Executor) Spawn(t Task) Handle {
	if t == nil {
		panic("routine: Spawn(nil)")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var index uint32
	if n := len(e.free); n != 0 {
		index = e.free[n-1]
		e.free = e.free[:n-1]
	} else {
		index = uint32(len(e.slots))
		e.slots = append(e.slots, slot{})
	}

	s := &e.slots[index]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}

	h := Handle{index: index, gen: s.gen}
	s.entry = &rootEntry{task: t, handle: h, weight: t.Weight(), seq: e.seq}
	e.seq++
	e.live++

	return h
}

// Lookup returns the task h refers to.
func (e *Executor) Lookup(h Handle) (Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.lookup(h); s != nil {
		return s.entry.task, true
	}
	return nil, false
}

func (e *Executor) lookup(h Handle) *slot {
	if h.IsZero() || int(h.index) >= len(e.slots) {
		return nil
	}
	s := &e.slots[h.index]
	if s.gen != h.gen || s.entry == nil {
		return nil
	}
	return s
}

func (e *Executor) release(s *slot) {
	index := s.entry.handle.index
	s.entry = nil
	e.free = append(e.free, index)
	e.live--
}

// Break breaks the task h refers to and drops it from the table.
// It reports whether h referred to a task.
func (e *Executor) Break(h Handle) bool {
	e.mu.Lock()
	s := e.lookup(h)
	if s == nil {
		e.mu.Unlock()
		return false
	}
	t := s.entry.task
	e.release(s)
	e.mu.Unlock()

	t.Break()
	return true
}

// BreakAll breaks every root task, the most recently spawned one first,
// and empties the table.
func (e *Executor) BreakAll() {
	e.mu.Lock()
	var entries []*rootEntry
	for i := range e.slots {
		if s := &e.slots[i]; s.entry != nil {
			entries = append(entries, s.entry)
			e.release(s)
		}
	}
	e.mu.Unlock()

	// Slots are reused, so slot order is not spawn order.
	slices.SortFunc(entries, func(a, b *rootEntry) int {
		return cmp.Compare(b.seq, a.seq)
	})

	for _, entry := range entries {
		entry.task.Break()
	}
}

// Update runs one tick: every live root task is updated once.
//
// Tasks spawned during the tick are first updated on the next one.
// Update must not be called re-entrantly, e.g. from within a task.
func (e *Executor) Update() {
	e.mu.Lock()
	if e.updating {
		e.mu.Unlock()
		panic("routine: Executor.Update called re-entrantly")
	}
	e.updating = true
	e.tick++
	for i := range e.slots {
		if entry := e.slots[i].entry; entry != nil {
			e.pq.Push(entry)
		}
	}
	e.mu.Unlock()

	defer func() {
		e.pq.Clear()
		e.mu.Lock()
		e.updating = false
		e.reclaim()
		e.mu.Unlock()
	}()

	for !e.pq.Empty() {
		entry := e.pq.Pop()
		if !entry.task.IsCompleted() {
			entry.task.Update()
		}
	}
}

func (e *Executor) reclaim() {
	for i := range e.slots {
		s := &e.slots[i]
		if s.entry != nil && s.entry.task.IsCompleted() {
			t := s.entry.task
			e.release(s)
			e.log().Debug("root task reclaimed", "name", t.Name(), "status", t.Status(), "tick", e.tick)
		}
	}
}

// Len returns the number of root tasks in the table.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Tick returns the number of ticks run so far.
func (e *Executor) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

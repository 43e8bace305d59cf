package main

import (
	"fmt"
	"log/slog"

	"github.com/b97tsk/routine"
)

// A workload runs a batch of jobs, at most a few at a time, under one
// supervisor routine.
//
// Each job holds a worker slot for a number of ticks. The job numbered
// failAt fails instead of finishing; it is reported to the error sink of
// the supervisor, and the others carry on.
type workload struct {
	jobs   int
	failAt int
	logger *slog.Logger

	slots    *routine.Semaphore
	pending  routine.WaitGroup
	finished *routine.State[int]
}

func newWorkload(jobs, workers, failAt int, logger *slog.Logger) *workload {
	return &workload{
		jobs:     jobs,
		failAt:   failAt,
		logger:   logger,
		slots:    routine.NewSemaphore(int64(workers)),
		finished: routine.NewState(0),
	}
}

// supervisor returns the state machine of the root routine. It completes
// with the number of jobs that finished.
func (w *workload) supervisor() routine.StateMachine[int] {
	return &supervisor{w: w}
}

type supervisor struct {
	w     *workload
	state int
}

func (m *supervisor) MoveNext(b *routine.Builder[int]) {
	w := m.w

	switch m.state {
	case 0:
		m.state = 1
		w.pending.Add(w.jobs)
		for id := 1; id <= w.jobs; id++ {
			routine.Spawn(b.Task(), &job{w: w, id: id}, routine.WithName(fmt.Sprintf("job-%d", id)))
		}
		routine.Spawn(b.Task(), &reporter{w: w}, routine.WithName("reporter"))
		b.AwaitOnCompleted(w.pending.Wait())
	case 1:
		b.SetResult(w.finished.Get())
	}
}

type job struct {
	w     *workload
	id    int
	state int
}

// cost is how many ticks a job takes: 1 to 4.
func (m *job) cost() int {
	return 1 + m.id%4
}

func (m *job) MoveNext(b *routine.Builder[struct{}]) {
	w := m.w

	switch m.state {
	case 0:
		m.state = 1
		b.Task().Scope().OnDispose(w.pending.Done)
		b.AwaitOnCompleted(w.slots.Acquire(1))
	case 1:
		m.state = 2
		b.Task().Scope().OnDispose(func() { w.slots.Release(1) })
		b.AwaitOnCompleted(routine.Ticks(m.cost()))
	case 2:
		if m.id == w.failAt {
			b.SetException(fmt.Errorf("job %d: simulated failure", m.id))
			return
		}
		w.finished.Update(func(n int) int { return n + 1 })
		b.Complete()
	}
}

// reporter logs progress whenever a job finishes. It never completes on its
// own; it ends with the supervisor.
type reporter struct {
	w *workload
}

func (m *reporter) MoveNext(b *routine.Builder[struct{}]) {
	w := m.w
	if n := w.finished.Get(); n != 0 {
		w.logger.Info("progress", "finished", n, "jobs", w.jobs)
	}
	b.AwaitOnCompleted(w.finished.Changed())
}

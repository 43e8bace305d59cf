// Package driver runs a [routine.Executor] in real time: it ticks it on
// a timer until told to stop.
package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/b97tsk/routine"
	"github.com/google/uuid"
)

// A Driver ticks a [routine.Executor] at a fixed interval.
//
// Every tick runs on the goroutine that called [Driver.Run]. Other
// goroutines hand work over with [routine.Executor.Spawn].
type Driver struct {
	cfg    Config
	exec   *routine.Executor
	logger *slog.Logger
	runID  uuid.UUID

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a [Driver] for exec. A nil logger means [slog.Default].
//
// Each Driver gets a random run ID, which is attached to everything it
// logs.
func New(exec *routine.Executor, cfg Config, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Driver{
		cfg:    cfg,
		exec:   exec,
		logger: logger.With("run_id", id.String()),
		runID:  id,
		stop:   make(chan struct{}),
	}
}

// RunID returns the run ID of d.
func (d *Driver) RunID() uuid.UUID {
	return d.runID
}

// Executor returns the executor d drives.
func (d *Driver) Executor() *routine.Executor {
	return d.exec
}

// Run ticks the executor until one of the following happens:
//   - ctx is done; Run returns ctx.Err();
//   - [Driver.Shutdown] is called;
//   - MaxTicks ticks have run, if MaxTicks is set;
//   - no root task is left after a tick, if StopWhenIdle is set.
//
// Root tasks still running when Run returns are broken.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.cfg.Validate(); err != nil {
		return err
	}

	interval := time.Duration(d.cfg.TickInterval)

	d.logger.Info("driver started",
		"tick_interval", interval,
		"max_ticks", d.cfg.MaxTicks,
		"stop_when_idle", d.cfg.StopWhenIdle,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	ticks := uint64(0)

	stopped := func(reason string) {
		left := d.exec.Len()
		d.exec.BreakAll()
		d.logger.Info("driver stopped",
			"reason", reason,
			"ticks", ticks,
			"broken", left,
			"elapsed", time.Since(start),
		)
	}

	for {
		select {
		case <-ctx.Done():
			stopped("context done")
			return ctx.Err()
		case <-d.stop:
			stopped("shutdown")
			return nil
		case <-ticker.C:
		}

		d.exec.Update()
		ticks++

		switch {
		case d.cfg.MaxTicks != 0 && ticks >= d.cfg.MaxTicks:
			stopped("max ticks")
			return nil
		case d.cfg.StopWhenIdle && d.exec.Len() == 0:
			stopped("idle")
			return nil
		}
	}
}

// Shutdown makes Run return before its next tick. It is safe to call from
// any goroutine, and more than once.
func (d *Driver) Shutdown() error {
	d.stopOnce.Do(func() { close(d.stop) })
	return nil
}

// Command routined runs a sample workload on a routine executor driven in
// real time.
//
// Usage:
//
//	routined [flags]
//
// Flags:
//
//	-config string
//	      TOML file configuring the driver (see driver.Config)
//	-jobs int
//	      Number of jobs to run (default 12)
//	-workers int
//	      Number of jobs running at once (default 3)
//	-fail int
//	      Job that fails on purpose, 0 for none (default 5)
//
// Interrupting routined breaks every routine still running.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/b97tsk/routine"
	"github.com/b97tsk/routine/driver"
	"github.com/samber/do"
)

func main() {
	configPath := flag.String("config", "", "TOML file configuring the driver")
	jobs := flag.Int("jobs", 12, "Number of jobs to run")
	workers := flag.Int("workers", 3, "Number of jobs running at once")
	failAt := flag.Int("fail", 5, "Job that fails on purpose, 0 for none")
	flag.Parse()

	cfg := driver.DefaultConfig()
	cfg.StopWhenIdle = true
	if *configPath != "" {
		var err error
		if cfg, err = driver.LoadConfig(*configPath); err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if *jobs < 0 || *workers <= 0 {
		slog.Error("Invalid flags", "jobs", *jobs, "workers", *workers)
		os.Exit(2)
	}

	injector := newInjector(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, injector, newWorkload(*jobs, *workers, *failAt, do.MustInvoke[*slog.Logger](injector)))

	if err := injector.Shutdown(); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}

	os.Exit(code)
}

// newInjector registers every service routined is made of.
func newInjector(cfg driver.Config) *do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)

	do.Provide(injector, func(i *do.Injector) (*slog.Logger, error) {
		logger := do.MustInvoke[driver.Config](i).NewLogger(os.Stderr)
		slog.SetDefault(logger)
		return logger, nil
	})

	do.Provide(injector, func(i *do.Injector) (*routine.ErrorHub, error) {
		logger := do.MustInvoke[*slog.Logger](i)
		hub := new(routine.ErrorHub)
		hub.Subscribe(func(err error) {
			logger.Error("Routine failed", "error", err)
		})
		return hub, nil
	})

	do.Provide(injector, func(i *do.Injector) (*routine.Executor, error) {
		exec := new(routine.Executor)
		exec.SetLogger(do.MustInvoke[*slog.Logger](i))
		return exec, nil
	})

	do.Provide(injector, func(i *do.Injector) (*driver.Driver, error) {
		return driver.New(
			do.MustInvoke[*routine.Executor](i),
			do.MustInvoke[driver.Config](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	return injector
}

// run runs w until it ends or ctx is done, and returns the exit code.
// Failed jobs are logged through the error hub; they do not fail the run.
func run(ctx context.Context, injector *do.Injector, w *workload) int {
	logger := do.MustInvoke[*slog.Logger](injector)
	hub := do.MustInvoke[*routine.ErrorHub](injector)
	exec := do.MustInvoke[*routine.Executor](injector)
	d := do.MustInvoke[*driver.Driver](injector)

	sup := routine.New(w.supervisor(),
		routine.WithName("supervisor"),
		routine.WithLogger(logger),
		routine.WithErrorSink(hub),
	)
	exec.Spawn(sup)

	err := d.Run(ctx)

	finished, serr := sup.Result()
	logger.Info("Workload ended",
		"status", sup.Status(),
		"finished", finished,
		"jobs", w.jobs,
		"failures", hub.Reported(),
		"ticks", exec.Tick(),
	)

	switch {
	case errors.Is(err, context.Canceled):
		return 130
	case err != nil:
		logger.Error("Driver failed", "error", err)
		return 1
	case serr != nil:
		return 1
	}
	return 0
}

package driver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/b97tsk/routine"
	"github.com/b97tsk/routine/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() driver.Config {
	cfg := driver.DefaultConfig()
	cfg.TickInterval = driver.Duration(time.Millisecond)
	return cfg
}

// waitTicks is a root task that completes after n ticks.
func waitTicks(n int) routine.Task {
	state := 0
	return routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		switch state {
		case 0:
			state = 1
			b.AwaitOnCompleted(routine.Ticks(n))
		case 1:
			b.Complete()
		}
	}))
}

func forever() *routine.Routine[struct{}] {
	var never routine.Signal
	return routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
		b.AwaitOnCompleted(never.Wait())
	}))
}

func TestRun(t *testing.T) {
	t.Run("StopWhenIdle", func(t *testing.T) {
		var exec routine.Executor
		exec.Spawn(waitTicks(3))

		cfg := testConfig()
		cfg.StopWhenIdle = true

		err := driver.New(&exec, cfg, nil).Run(context.Background())
		require.NoError(t, err)

		// One tick to start, three to wait.
		assert.Equal(t, uint64(4), exec.Tick())
		assert.Zero(t, exec.Len())
	})
	t.Run("MaxTicks", func(t *testing.T) {
		var exec routine.Executor
		r := forever()
		exec.Spawn(r)

		cfg := testConfig()
		cfg.MaxTicks = 5

		err := driver.New(&exec, cfg, nil).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, uint64(5), exec.Tick())
		assert.Equal(t, routine.StatusCanceled, r.Status())
		assert.Zero(t, exec.Len())
	})
	t.Run("ContextDone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var exec routine.Executor
		r := forever()
		exec.Spawn(r)

		// Cancels ctx from within a tick.
		exec.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
			cancel()
			b.Complete()
		})))

		err := driver.New(&exec, testConfig(), nil).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, routine.StatusCanceled, r.Status())
	})
	t.Run("Shutdown", func(t *testing.T) {
		var exec routine.Executor
		r := forever()
		exec.Spawn(r)

		d := driver.New(&exec, testConfig(), nil)

		exec.Spawn(routine.New(routine.StateMachineFunc[struct{}](func(b *routine.Builder[struct{}]) {
			require.NoError(t, d.Shutdown())
			b.Complete()
		})))

		require.NoError(t, d.Run(context.Background()))
		assert.NoError(t, d.Shutdown())
		assert.Equal(t, routine.StatusCanceled, r.Status())
	})
	t.Run("InvalidConfig", func(t *testing.T) {
		var exec routine.Executor

		cfg := testConfig()
		cfg.TickInterval = 0

		assert.Error(t, driver.New(&exec, cfg, nil).Run(context.Background()))
	})
	t.Run("RunID", func(t *testing.T) {
		var exec routine.Executor
		var buf bytes.Buffer

		cfg := testConfig()
		cfg.MaxTicks = 1
		cfg.LogFormat = "json"

		d := driver.New(&exec, cfg, cfg.NewLogger(&buf))
		require.NoError(t, d.Run(context.Background()))

		assert.NotEqual(t, d.RunID(), driver.New(&exec, cfg, nil).RunID())
		assert.Contains(t, buf.String(), `"run_id":"`+d.RunID().String()+`"`)
		assert.Contains(t, buf.String(), `"reason":"max ticks"`)
	})
}

func TestParseConfig(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		cfg, err := driver.ParseConfig([]byte(`
tick_interval = "50ms"
max_ticks = 100
stop_when_idle = true
log_level = "debug"
log_format = "json"
`))
		require.NoError(t, err)
		assert.Equal(t, driver.Config{
			TickInterval: driver.Duration(50 * time.Millisecond),
			MaxTicks:     100,
			StopWhenIdle: true,
			LogLevel:     "debug",
			LogFormat:    "json",
		}, cfg)
	})
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := driver.ParseConfig([]byte(`max_ticks = 3`))
		require.NoError(t, err)

		want := driver.DefaultConfig()
		want.MaxTicks = 3
		assert.Equal(t, want, cfg)
	})
	t.Run("Invalid", func(t *testing.T) {
		for _, doc := range []string{
			`tick_interval = "soon"`,
			`tick_interval = "-1s"`,
			`log_level = "loud"`,
			`log_format = "xml"`,
			`tick_rate = 60`,
			`max_ticks = `,
		} {
			_, err := driver.ParseConfig([]byte(doc))
			assert.Error(t, err, doc)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routined.toml")
	require.NoError(t, os.WriteFile(path, []byte(`tick_interval = "1s"`), 0o644))

	cfg, err := driver.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, driver.Duration(time.Second), cfg.TickInterval)
	assert.Equal(t, "1s", cfg.TickInterval.String())

	_, err = driver.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := driver.DefaultConfig()
	cfg.LogLevel = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "msg=shown"), out)
}

package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a [time.Duration] written as a string ("16ms", "1s") in
// configuration files.
type Duration time.Duration

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config configures a [Driver].
type Config struct {
	// TickInterval is the time between two ticks.
	TickInterval Duration `toml:"tick_interval"`
	// MaxTicks stops the driver after that many ticks. Zero means no limit.
	MaxTicks uint64 `toml:"max_ticks"`
	// StopWhenIdle stops the driver once no root task is left.
	StopWhenIdle bool `toml:"stop_when_idle"`
	// LogLevel is one of "debug", "info", "warn" and "error".
	LogLevel string `toml:"log_level"`
	// LogFormat is either "text" or "json".
	LogFormat string `toml:"log_format"`
}

// DefaultConfig returns the configuration used for anything a configuration
// file leaves out: 60 ticks per second, forever, logging at info level.
func DefaultConfig() Config {
	return Config{
		TickInterval: Duration(time.Second / 60),
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

var errInvalidConfig = errors.New("driver: invalid config")

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive, got %v", errInvalidConfig, c.TickInterval)
	}
	if _, err := c.level(); err != nil {
		return fmt.Errorf("%w: log_level: %v", errInvalidConfig, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", errInvalidConfig, c.LogFormat)
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

// ParseConfig parses a TOML document over [DefaultConfig] and validates
// the result. Unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("driver: parse config at %d:%d: %w", row, col, err)
		}
		return Config{}, fmt.Errorf("driver: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the TOML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("driver: failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// NewLogger creates the logger described by c, writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

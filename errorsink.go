package routine

import (
	"log/slog"
	"slices"
	"sync"
)

// An ErrorSink receives the failures of routines that end with an error
// other than [ErrCanceled].
//
// Reporting is purely observational; a sink must not assume it can change
// the outcome of the failed routine.
type ErrorSink interface {
	Report(err error)
}

// ErrorSinkFunc is a func(error) that implements [ErrorSink].
type ErrorSinkFunc func(err error)

// Report implements the [ErrorSink] interface.
func (f ErrorSinkFunc) Report(err error) { f(err) }

// LogSink is an [ErrorSink] that logs failures at error level.
// A nil Logger means [slog.Default].
type LogSink struct {
	Logger *slog.Logger
}

// Report implements the [ErrorSink] interface.
func (s LogSink) Report(err error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("routine failed", "err", err)
}

// An ErrorHub is an [ErrorSink] that broadcasts every failure to all of its
// subscribers, in subscription order.
//
// Unlike most types in this package, ErrorHub is safe for concurrent use,
// so that one hub can serve routines driven by different goroutines.
type ErrorHub struct {
	mu   sync.Mutex
	subs []*hubSub
	n    int
}

type hubSub struct {
	f func(err error)
}

// Subscribe registers f to receive every failure reported from now on.
func (h *ErrorHub) Subscribe(f func(err error)) (unsubscribe func()) {
	if f == nil {
		panic("routine: Subscribe(nil)")
	}
	sub := &hubSub{f}
	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		if i := slices.Index(h.subs, sub); i != -1 {
			h.subs = slices.Delete(h.subs, i, i+1)
		}
		h.mu.Unlock()
	}
}

// Report implements the [ErrorSink] interface.
func (h *ErrorHub) Report(err error) {
	h.mu.Lock()
	h.n++
	subs := slices.Clone(h.subs)
	h.mu.Unlock()
	for _, sub := range subs {
		sub.f(err)
	}
}

// Reported returns how many failures h has received.
func (h *ErrorHub) Reported() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

package routine

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
)

// panicstack collects panics raised by cleanups so that every cleanup gets
// a chance to run before any of them is re-raised.
type panicstack []panicitem

type panicitem struct {
	value any
	stack []byte
}

func (ps *panicstack) Try(f func()) (ok bool) {
	defer func() {
		if !ok {
			v := recover()
			if v == nil {
				panic("routine: runtime.Goexit() is not supported in cleanups")
			}
			*ps = append(*ps, panicitem{v, debug.Stack()})
		}
	}()
	f()
	return true
}

// Repanic re-raises collected panics.
// A single panic is re-raised as is; several are combined into one.
func (ps panicstack) Repanic() {
	switch len(ps) {
	case 0:
	case 1:
		panic(ps[0].value)
	default:
		panic(&panicvalue{items: ps})
	}
}

type panicvalue struct {
	items []panicitem
	errs  atomic.Pointer[[]error]
}

func (pv *panicvalue) Error() string {
	var b strings.Builder
	b.WriteString("routine: multiple cleanups panicked:")
	for i, p := range pv.items {
		fmt.Fprintf(&b, "\n(%d/%d) panic: %v", i+1, len(pv.items), p.value)
		if p.stack != nil {
			b.WriteString("\n\n")
			b.Write(p.stack)
		}
	}
	return b.String()
}

func (pv *panicvalue) Unwrap() []error {
	if p := pv.errs.Load(); p != nil {
		return *p
	}
	var errs []error
	for _, p := range pv.items {
		if err, ok := p.value.(error); ok {
			errs = append(errs, err)
		}
	}
	pv.errs.Store(&errs)
	return errs
}

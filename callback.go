package logstream

import (
	"sync/atomic"
)

/*
Callbacks are the sinks of a Stream. Every registered callback receives every
dispatched entry (in registration order) and decides on its own whether to
act on it: the dispatcher never filters on a callback's behalf.

A callback can be registered as a "console" callback (AddConsoleCallback):
its filter then follows the global stream filter set with SetLevels.

Invoke is always called from a single goroutine at a time (the dispatcher,
or the goroutine replaying the startup buffer while the dispatcher is
stopped). It must not call reconfiguration methods of the stream it is
registered with.
*/

// Callback is a registered consumer of log entries.
type Callback interface {
	// ShouldLog reports whether an entry with the given category and
	// priority passes the callback's own filter.
	ShouldLog(c Category, p Priority) bool
	// Invoke handles one entry. Implementations re-check ShouldLog and
	// return without side effects when it is false.
	Invoke(e Entry)
	// SetFilter replaces the category mask and the priority threshold.
	SetFilter(c Category, p Priority)
}

// Filter is the (category mask, priority threshold) pair most callbacks
// embed. Both values live in one atomic word, so SetFilter replaces them
// together and ShouldLog never observes a half-applied change.
type Filter struct {
	packed atomic.Uint64
}

// NewFilter returns a filter initialized to (c, p).
func NewFilter(c Category, p Priority) *Filter {
	f := &Filter{}
	f.SetFilter(c, p)
	return f
}

// ShouldLog is true iff (c & mask != 0 and p >= threshold) or c is CAT_OSG.
func (f *Filter) ShouldLog(c Category, p Priority) bool {
	mask, threshold := unpackFilter(f.packed.Load())
	return passes(c, p, mask, threshold)
}

// SetFilter atomically replaces both filter fields.
func (f *Filter) SetFilter(c Category, p Priority) {
	f.packed.Store(packFilter(c, p))
}

// Levels returns the current mask and threshold.
func (f *Filter) Levels() (Category, Priority) {
	return unpackFilter(f.packed.Load())
}

// failing is implemented by the package's writer based callbacks so the
// dispatcher can report and count sink write failures.
type failing interface {
	takeErr() error
}

// CallbackFunc adapts a plain function to a Callback with its own filter.
type CallbackFunc struct {
	Filter
	fn func(Entry)
}

// NewCallbackFunc wraps fn; fn is only called for entries passing (c, p).
func NewCallbackFunc(c Category, p Priority, fn func(Entry)) *CallbackFunc {
	cb := &CallbackFunc{fn: fn}
	cb.SetFilter(c, p)
	return cb
}

func (cb *CallbackFunc) Invoke(e Entry) {
	if cb.fn == nil || !cb.ShouldLog(e.Category, e.Priority) {
		return
	}
	cb.fn(e)
}

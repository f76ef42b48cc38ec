// Package logstream is an asynchronous, filtered, multi-sink logging stream.
// Producers on any goroutine hand already formatted records, tagged with a
// category bit and a priority, to a Stream; one dispatcher goroutine per
// Stream fans them out to registered callbacks, each with its own filter.
package logstream

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"
)

const (
	// Error messages used across stream operations (used for testing).
	_ERROR_MESSAGE_STREAM_CLOSED   = "log stream is closed"
	_ERROR_MESSAGE_ENTRY_DROPPED   = "entry dropped, log stream is closed"
	_ERROR_MESSAGE_CALLBACK_CLOSE  = "error closing callback"
	_ERROR_MESSAGE_CONSOLE_REDIRED = "console output is redirected"
	_ERROR_MESSAGE_NIL_STREAM      = "log stream is nil"
	_ERROR_MESSAGE_TESTING_MODE    = "log stream is in testing mode"
	_ERROR_UNKNOWN_PANIC_TEXT      = "[no panic description]"
)

var (
	ErrStreamClosed = errors.New(_ERROR_MESSAGE_STREAM_CLOSED)
	ErrNilStream    = errors.New(_ERROR_MESSAGE_NIL_STREAM)
	ErrTestingMode  = errors.New(_ERROR_MESSAGE_TESTING_MODE)
)

// Creates a stream with default levels and a console callback, and starts
// its dispatcher goroutine.
//
// Preferred usage example:
//
//	func main() {
//	    s := logstream.InitAndStart()
//	    defer s.Close()
//	    ...
//	}
func InitAndStart() *Stream {
	s := Init()
	s.Start()
	return s
}

// Short form of InitWithParams: default categories and priority, fallback
// messages discarded, plus a standard error console callback which follows
// the global levels (see SetLevels).
//
// The returned stream is in stopped state and must be started by Start() to
// deliver entries.
func Init() *Stream {
	s := InitWithParams(DEFAULT_CATEGORIES, DEFAULT_PRIORITY, nil)
	return s.AddConsoleCallback(NewConsoleCallback(DEFAULT_CATEGORIES, DEFAULT_PRIORITY))
}

// InitWithParams constructs a stream with explicit global levels and the
// fallback writer for internal problems (nil for io.Discard). No callbacks
// are registered.
//
// The returned stream is in stopped state and must be started by Start() to
// deliver entries.
func InitWithParams(c Category, p Priority, fallback io.Writer) *Stream {
	s := new(Stream)
	s.state = _STATE_STOPPED
	s.queue = newEntryQueue()
	s.filter.Store(packFilter(c, p))
	s.SetFallback(fallback)
	return s
}

// Start launches the dispatcher goroutine. Starting an active stream does
// nothing; starting a closed one returns an error.
func (s *Stream) Start() error {
	s.sync.chngMtx.Lock()
	defer s.sync.chngMtx.Unlock()
	return s.startLocked()
}

func (s *Stream) startLocked() error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	s.sync.statMtx.Lock()
	defer s.sync.statMtx.Unlock()
	if s.state == _STATE_ACTIVE {
		return nil
	}
	s.state = _STATE_ACTIVE
	s.sync.waitEnd.Go(s.procced)
	return nil
}

// Stop queues a stop marker and waits until the dispatcher has delivered
// every entry queued before it and exited. Returns false if the stream was
// not active. There is no timeout: a callback that never returns blocks Stop.
func (s *Stream) Stop() bool {
	s.sync.chngMtx.Lock()
	defer s.sync.chngMtx.Unlock()
	return s.stopLocked()
}

func (s *Stream) stopLocked() bool {
	s.sync.statMtx.Lock()
	if s.state != _STATE_ACTIVE {
		s.sync.statMtx.Unlock()
		return false
	}
	s.state = _STATE_STOPPING
	s.sync.statMtx.Unlock()
	s.queue.push(queueItem{kind: _ITEM_STOP})
	s.sync.waitEnd.Wait()
	return true
}

// True if the dispatcher goroutine is running.
func (s *Stream) IsActive() bool {
	s.sync.statMtx.Lock()
	defer s.sync.statMtx.Unlock()
	return s.state == _STATE_ACTIVE
}

// reconfigure runs change with the dispatcher stopped: pending entries are
// delivered to the old configuration first, then change runs, then the
// dispatcher is restarted if it was running before.
//
// Does nothing and returns false once the stream is closed.
// Must not be called from a callback of this stream.
func (s *Stream) reconfigure(change func()) bool {
	s.sync.chngMtx.Lock()
	defer s.sync.chngMtx.Unlock()
	if s.closed.Load() {
		return false
	}
	began := time.Now()
	wasActive := s.stopLocked()
	change()
	if wasActive {
		s.startLocked()
	}
	s.metrics.Load().reconfigured(began)
	return true
}

// Close stops the dispatcher after draining it, removes and closes every
// callback and clears pending popups. Entries logged afterwards are dropped.
// Closing twice does nothing.
func (s *Stream) Close() {
	s.sync.chngMtx.Lock()
	defer s.sync.chngMtx.Unlock()
	if s.closed.Swap(true) {
		return
	}
	s.stopLocked()
	s.removeCallbacksLocked()
	s.clearPopups()
}

// IsClosed reports whether Close has been called.
func (s *Stream) IsClosed() bool {
	return s.closed.Load()
}

/////////////////////////////////////////////////////////////////////////////////////////

// SetLevels replaces the global category mask and priority threshold and
// applies the same pair to every console callback. Entries queued before the
// call are delivered with the previous console filters.
func (s *Stream) SetLevels(c Category, p Priority) *Stream {
	s.reconfigure(func() { s.setLevelsLocked(c, p) })
	return s
}

// SetLogClasses changes only the global category mask.
func (s *Stream) SetLogClasses(c Category) *Stream {
	s.reconfigure(func() { s.setLevelsLocked(c, s.LogPriority()) })
	return s
}

// SetLogPriority changes only the global priority threshold.
func (s *Stream) SetLogPriority(p Priority) *Stream {
	s.reconfigure(func() { s.setLevelsLocked(s.LogClasses(), p) })
	return s
}

func (s *Stream) setLevelsLocked(c Category, p Priority) {
	s.filter.Store(packFilter(c, p))
	for _, cb := range s.consoles {
		cb.SetFilter(c, p)
	}
}

// LogClasses returns the global category mask.
func (s *Stream) LogClasses() Category {
	c, _ := unpackFilter(s.filter.Load())
	return c
}

// LogPriority returns the global priority threshold.
func (s *Stream) LogPriority() Priority {
	_, p := unpackFilter(s.filter.Load())
	return p
}

// SetDeveloperMode switches how LVL_DEV_WARN and LVL_DEV_ALERT are remapped.
// Takes effect for entries logged afterwards.
func (s *Stream) SetDeveloperMode(on bool) *Stream {
	s.devMode.Store(on)
	return s
}

func (s *Stream) IsDeveloperMode() bool { return s.devMode.Load() }

// SetFileLine enables source file and line attribution. While off, Log
// discards any location it is given.
func (s *Stream) SetFileLine(on bool) *Stream {
	s.fileLine.Store(on)
	return s
}

func (s *Stream) IsFileLine() bool { return s.fileLine.Load() }

// Sets the writer used to report internal problems (callback panics and
// write errors, entries dropped after Close). io.Discard is used instead of
// nil to silently drop fallback messages.
func (s *Stream) SetFallback(f io.Writer) *Stream {
	s.sync.fbckMtx.Lock()
	defer s.sync.fbckMtx.Unlock()
	if f != nil {
		s.fallbck = f
	} else {
		s.fallbck = io.Discard
	}
	return s
}

// SetMetrics attaches (or with nil detaches) Prometheus instruments.
func (s *Stream) SetMetrics(m *Metrics) *Stream {
	s.metrics.Store(m)
	return s
}

// Metrics returns the attached instruments or nil.
func (s *Stream) Metrics() *Metrics {
	return s.metrics.Load()
}

// SetTestingMode makes WouldLog always true and, when switched on, removes
// and closes every callback so that nothing is printed. Callbacks added
// while it is on are ignored.
func (s *Stream) SetTestingMode(on bool) *Stream {
	s.testMode.Store(on)
	if on {
		s.reconfigure(s.removeCallbacksLocked)
	}
	return s
}

func (s *Stream) IsTestingMode() bool { return s.testMode.Load() }

/////////////////////////////////////////////////////////////////////////////////////////

// AddCallback registers cb after the existing callbacks and synchronously
// feeds it every entry held by the startup buffer, in original order.
// Nil is ignored, and so is any callback added to a closed stream or in
// testing mode. The stream does not take ownership of an ignored callback.
func (s *Stream) AddCallback(cb Callback) *Stream {
	if cb == nil {
		return s
	}
	s.reconfigure(func() { s.addCallbackLocked(cb, false) })
	return s
}

// AddConsoleCallback registers cb like AddCallback and additionally binds
// its filter to the global levels: it is set now and on every SetLevels.
func (s *Stream) AddConsoleCallback(cb Callback) *Stream {
	if cb == nil {
		return s
	}
	s.reconfigure(func() { s.addCallbackLocked(cb, true) })
	return s
}

// addCallbackLocked registers cb unless testing mode is on. The dispatcher
// must be stopped.
func (s *Stream) addCallbackLocked(cb Callback, console bool) bool {
	if s.testMode.Load() {
		return false
	}
	if console {
		cb.SetFilter(unpackFilter(s.filter.Load()))
		s.consoles = append(s.consoles, cb)
	}
	s.callbacks = append(s.callbacks, cb)
	s.replayStartup(cb)
	return true
}

// RemoveCallback unregisters cb. The callback is not closed: ownership goes
// back to the caller. Unknown callbacks are ignored.
func (s *Stream) RemoveCallback(cb Callback) *Stream {
	if cb == nil {
		return s
	}
	s.reconfigure(func() {
		match := func(c Callback) bool { return c == cb }
		s.callbacks = slices.DeleteFunc(s.callbacks, match)
		s.consoles = slices.DeleteFunc(s.consoles, match)
	})
	return s
}

// Callbacks returns a snapshot of the registered callbacks in dispatch order.
func (s *Stream) Callbacks() []Callback {
	s.sync.chngMtx.Lock()
	defer s.sync.chngMtx.Unlock()
	return slices.Clone(s.callbacks)
}

// removeCallbacksLocked drops every callback and closes those owning a
// resource. The dispatcher must be stopped.
func (s *Stream) removeCallbacksLocked() {
	for _, cb := range s.callbacks {
		if c, ok := cb.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.fbckWriteln(_ERROR_MESSAGE_CALLBACK_CLOSE + ": " + err.Error())
			}
		}
	}
	s.callbacks = nil
	s.consoles = nil
}

// LogToFile registers a FileCallback writing (c, p) filtered entries to path,
// truncating it. The callback is returned so its Err can be checked. On a
// closed stream or in testing mode the file is left untouched and Err
// reports ErrStreamClosed or ErrTestingMode.
func (s *Stream) LogToFile(path string, c Category, p Priority) *FileCallback {
	var fc *FileCallback
	applied := s.reconfigure(func() {
		if s.testMode.Load() {
			fc = unopenedFileCallback(path, c, p, ErrTestingMode)
			return
		}
		fc = NewFileCallback(path, c, p)
		s.addCallbackLocked(fc, false)
	})
	if !applied {
		fc = unopenedFileCallback(path, c, p, ErrStreamClosed)
	}
	return fc
}

/////////////////////////////////////////////////////////////////////////////////////////

// WouldLog reports whether an entry would pass the global filter. Producers
// use it to skip building expensive messages. It takes no locks.
//
// True in testing mode and for CAT_OSG; otherwise the priority is translated
// (developer levels) and checked against the global mask and threshold.
func (s *Stream) WouldLog(c Category, p Priority) bool {
	if s.testMode.Load() {
		return true
	}
	p = translatePriority(p, s.devMode.Load())
	mask, threshold := unpackFilter(s.filter.Load())
	return passes(c, p, mask, threshold)
}

// Log queues an entry and returns immediately. The priority is translated
// for developer mode and the location is dropped unless file/line
// attribution is on. Nothing is filtered here: callers guard with WouldLog,
// callbacks apply their own filters.
//
// After Close the entry is dropped (reported to the fallback writer).
func (s *Stream) Log(c Category, p Priority, file string, line int, msg string) {
	if s.closed.Load() {
		s.metrics.Load().dropped()
		s.fbckWriteln(_ERROR_MESSAGE_ENTRY_DROPPED + ": `" + msg + "`")
		return
	}
	p = translatePriority(p, s.devMode.Load())
	if !s.fileLine.Load() {
		file, line = "", NO_LINE
	}
	depth := s.queue.push(queueItem{
		kind: _ITEM_ENTRY,
		entry: Entry{
			Category: c,
			Priority: p,
			File:     file,
			Line:     line,
			Message:  msg,
		},
	})
	s.metrics.Load().queued(p, depth)
}

// Logf formats and logs the message only if WouldLog(c, p).
func (s *Stream) Logf(c Category, p Priority, file string, line int, format string, args ...any) {
	if !s.WouldLog(c, p) {
		return
	}
	s.Log(c, p, file, line, fmt.Sprintf(format, args...))
}

// Pending returns the number of entries waiting for the dispatcher.
func (s *Stream) Pending() int {
	return s.queue.len()
}

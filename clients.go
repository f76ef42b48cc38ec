package logstream

import (
	"path/filepath"
	"runtime"
	"sync/atomic"
)

/*
clients.go

A Client is a thin producer handle bound to one stream and one category, for
program parts that always log under the same subsystem tag. It saves passing
the category on every call and fills in the caller's file and line when the
stream has file/line attribution switched on.

The plain helpers (Log, LogInfo, ...) never return errors, like Stream.Log.
The _with_err variants report why nothing was queued: a filtered entry is not
an error, a closed stream is.
*/

// Client is a producer handle with a fixed category.
type Client struct {
	stream   *Stream
	category Category
	enabled  atomic.Bool
	curLevel atomic.Uint32 // Priority used by Write
}

// NewClient returns an enabled client logging under category c.
func (s *Stream) NewClient(c Category) *Client {
	lc := &Client{stream: s, category: c}
	lc.enabled.Store(true)
	lc.curLevel.Store(uint32(LVL_INFO))
	return lc
}

// Stream returns the stream the client logs to.
func (lc *Client) Stream() *Stream { return lc.stream }

// Category returns the client's category.
func (lc *Client) Category() Category { return lc.category }

// SetEnabled toggles whether the client queues anything at all.
func (lc *Client) SetEnabled(enabled bool) *Client {
	lc.enabled.Store(enabled)
	return lc
}

func (lc *Client) IsEnabled() bool { return lc.enabled.Load() }

// logAt is the single path of every client helper. skip counts the frames
// above logAt up to the user's call site; a negative skip means no location.
func (lc *Client) logAt(skip int, p Priority, msg string) error {
	s := lc.stream
	if s == nil {
		return ErrNilStream
	}
	if s.IsClosed() {
		return ErrStreamClosed
	}
	if !lc.enabled.Load() || !s.WouldLog(lc.category, p) {
		return nil
	}
	file, line := "", NO_LINE
	if skip >= 0 && s.IsFileLine() {
		if _, f, l, ok := runtime.Caller(skip + 1); ok {
			file, line = filepath.Base(f), l
		}
	}
	s.Log(lc.category, p, file, line, msg)
	return nil
}

// Log_with_err queues s at priority p and reports a nil or closed stream.
// Use Log when no special error processing is needed.
func (lc *Client) Log_with_err(p Priority, s string) error {
	return lc.logAt(1, p, s)
}

// LogBytes_with_err is the []byte variant of Log_with_err.
func (lc *Client) LogBytes_with_err(p Priority, data []byte) error {
	return lc.logAt(1, p, string(data))
}

// Log queues s at priority p. Failures go to the stream fallback writer.
func (lc *Client) Log(p Priority, s string) {
	lc.report(lc.logAt(1, p, s))
}

// LogBytes is the []byte variant of Log.
func (lc *Client) LogBytes(p Priority, data []byte) {
	lc.report(lc.logAt(1, p, string(data)))
}

func (lc *Client) report(err error) {
	if err != nil && lc.stream != nil {
		lc.stream.fbckWriteln(err.Error())
	}
}

/////////////////////////////////////////////////////////////////////////////////////////
// Level-specific helpers. Like Log they do not return errors.

// LogBulk logs at BULK level, for very verbose tracing.
func (lc *Client) LogBulk(s string) { lc.report(lc.logAt(1, LVL_BULK, s)) }

// LogDebug logs at DEBUG level.
func (lc *Client) LogDebug(s string) { lc.report(lc.logAt(1, LVL_DEBUG, s)) }

// LogInfo logs at INFO level.
func (lc *Client) LogInfo(s string) { lc.report(lc.logAt(1, LVL_INFO, s)) }

// LogWarn logs at WARN level.
func (lc *Client) LogWarn(s string) { lc.report(lc.logAt(1, LVL_WARN, s)) }

// LogAlert logs at ALERT level.
func (lc *Client) LogAlert(s string) { lc.report(lc.logAt(1, LVL_ALERT, s)) }

// LogPopup logs at POPUP level.
func (lc *Client) LogPopup(s string) { lc.report(lc.logAt(1, LVL_POPUP, s)) }

// LogDevWarn logs at DEV_WARN: WARN for developers, DEBUG otherwise.
func (lc *Client) LogDevWarn(s string) { lc.report(lc.logAt(1, LVL_DEV_WARN, s)) }

// LogDevAlert logs at DEV_ALERT: POPUP for developers, WARN otherwise.
func (lc *Client) LogDevAlert(s string) { lc.report(lc.logAt(1, LVL_DEV_ALERT, s)) }

// LogErr logs e.Error() at ALERT level. Nil errors are ignored.
func (lc *Client) LogErr(e error) {
	if e == nil {
		return
	}
	lc.report(lc.logAt(1, LVL_ALERT, e.Error()))
}

package logstream

import "sync"

/*
Process-wide stream. Libraries that cannot be handed a *Stream log through
the package level functions below; they all go to Default(), which builds a
started stream with a console callback on first use.
*/

var global struct {
	mtx    sync.Mutex
	stream *Stream
}

// Default returns the process-wide stream, creating and starting it if there
// is none (first use, or after Shutdown).
func Default() *Stream {
	global.mtx.Lock()
	defer global.mtx.Unlock()
	if global.stream == nil {
		global.stream = InitAndStart()
	}
	return global.stream
}

// SetDefault installs s as the process-wide stream and returns the previous
// one (possibly nil), which is left running: closing it is up to the caller.
func SetDefault(s *Stream) *Stream {
	global.mtx.Lock()
	defer global.mtx.Unlock()
	prev := global.stream
	global.stream = s
	return prev
}

// Shutdown closes and forgets the process-wide stream. Calling it again, or
// without a stream, does nothing.
func Shutdown() {
	global.mtx.Lock()
	s := global.stream
	global.stream = nil
	global.mtx.Unlock()
	if s != nil {
		s.Close()
	}
}

// Log queues an entry on the process-wide stream.
func Log(c Category, p Priority, file string, line int, msg string) {
	Default().Log(c, p, file, line, msg)
}

// Logf formats and queues an entry on the process-wide stream if it would
// be logged.
func Logf(c Category, p Priority, file string, line int, format string, args ...any) {
	Default().Logf(c, p, file, line, format, args...)
}

// WouldLog asks the process-wide stream.
func WouldLog(c Category, p Priority) bool {
	return Default().WouldLog(c, p)
}

// Hexdump logs buf as hex rows on the process-wide stream.
func Hexdump(c Category, p Priority, file string, line int, buf []byte, columns int) {
	Default().Hexdump(c, p, file, line, buf, columns)
}

// Popup queues a popup message on the process-wide stream.
func Popup(msg string) {
	Default().Popup(msg)
}

// RequestConsole asks the process-wide stream for a console window.
func RequestConsole() {
	Default().RequestConsole()
}

package logstream

import "os"

// ConsoleRedirected reports whether standard output or standard error was
// redirected (to a file or a pipe) when the process started.
func ConsoleRedirected() bool {
	return stdioRedirected()
}

// RequestConsole opens a console window for the standard streams on
// platforms where a process can run without one (Windows GUI subsystem).
// When a standard stream was redirected the request is refused and a popup
// explains why, as the redirected output would be lost. Elsewhere it does
// nothing.
func (s *Stream) RequestConsole() {
	if !_CONSOLE_ALLOC_SUPPORTED {
		return
	}
	if stdioRedirected() {
		s.Popup("console request ignored because stdout or stderr is redirected with > or 2>")
		s.fbckWriteln(_ERROR_MESSAGE_CONSOLE_REDIRED)
		return
	}
	// console callbacks resolve os.Stderr on every write, so rebind it with
	// the dispatcher stopped
	s.reconfigure(func() {
		f, err := allocConsole()
		if err != nil {
			s.fbckWriteln("console allocation failed: " + err.Error())
			return
		}
		os.Stdout = f
		os.Stderr = f
	})
}

//go:build !windows

package logstream

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const _CONSOLE_ALLOC_SUPPORTED = false

// Evaluated once, on first use.
var stdioRedirected = sync.OnceValue(func() bool {
	return !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stderr.Fd()))
})

func allocConsole() (*os.File, error) {
	return nil, errors.ErrUnsupported
}

// There is no debugger side channel outside Windows.
func debugPaneWriter() io.Writer {
	return io.Discard
}

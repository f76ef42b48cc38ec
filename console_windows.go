//go:build windows

package logstream

import (
	"errors"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const _CONSOLE_ALLOC_SUPPORTED = true

var (
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procAllocConsole       = kernel32.NewProc("AllocConsole")
	procFreeConsole        = kernel32.NewProc("FreeConsole")
	procOutputDebugStringW = kernel32.NewProc("OutputDebugStringW")
)

func handleRedirected(std uint32) bool {
	h, err := windows.GetStdHandle(std)
	if err != nil || h == windows.InvalidHandle || h == 0 {
		return false
	}
	t, err := windows.GetFileType(h)
	return err == nil && (t == windows.FILE_TYPE_DISK || t == windows.FILE_TYPE_PIPE)
}

// Evaluated once, before any console is allocated.
var stdioRedirected = sync.OnceValue(func() bool {
	return handleRedirected(windows.STD_OUTPUT_HANDLE) || handleRedirected(windows.STD_ERROR_HANDLE)
})

// allocConsole detaches from the current console (if any), creates a new
// one and returns a handle writing to it.
func allocConsole() (*os.File, error) {
	procFreeConsole.Call()
	if r, _, err := procAllocConsole.Call(); r == 0 {
		return nil, err
	}
	f, err := os.OpenFile("CONOUT$", os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Join(errors.New("cannot open console output"), err)
	}
	return f, nil
}

// debugPaneWriter sends every write to OutputDebugStringW, where debuggers
// and DebugView pick it up.
func debugPaneWriter() io.Writer {
	return debugStringWriter{}
}

type debugStringWriter struct{}

func (debugStringWriter) Write(p []byte) (int, error) {
	ptr, err := windows.UTF16PtrFromString(string(p))
	if err != nil {
		return 0, err
	}
	procOutputDebugStringW.Call(uintptr(unsafe.Pointer(ptr)))
	return len(p), nil
}

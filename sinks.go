package logstream

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

/*
Text sinks. Console, file and rotating file callbacks share one line layout,
which downstream log scrapers depend on:

	<elapsed %8.2f> [<PRIO>]:<category %-10s> <file>:<line>: <message>
	<elapsed %8.2f> [<PRIO>]:<category %-10s> <message>

The elapsed time is measured from the construction of each sink.
*/

// appendTextLine appends one formatted line (with trailing '\n') to dst.
func appendTextLine(dst []byte, elapsed time.Duration, e *Entry) []byte {
	dst = fmt.Appendf(dst, "%8.2f [%s]:%-*s ", elapsed.Seconds(), e.Priority, _CATEGORY_NAME_WIDTH, e.Category)
	if e.HasLocation() {
		dst = fmt.Appendf(dst, "%s:%d: ", e.File, e.Line)
	}
	dst = append(dst, e.Message...)
	return append(dst, '\n')
}

// writerCallback is the shared part of every line-oriented sink.
type writerCallback struct {
	Filter
	mtx    sync.Mutex
	target func() io.Writer // resolved on every write
	born   time.Time
	msgbuf []byte
	err    error // last write error, cleared by takeErr
}

func (w *writerCallback) init(c Category, p Priority, target func() io.Writer) {
	w.target = target
	w.born = time.Now()
	w.SetFilter(c, p)
}

// Invoke formats the entry and writes it as one line. Write errors are kept
// for the dispatcher and otherwise ignored.
func (w *writerCallback) Invoke(e Entry) {
	if !w.ShouldLog(e.Category, e.Priority) {
		return
	}
	w.mtx.Lock()
	defer w.mtx.Unlock()
	w.msgbuf = appendTextLine(w.msgbuf[:0], time.Since(w.born), &e)
	if _, err := w.target().Write(w.msgbuf); err != nil {
		w.err = err
	}
}

func (w *writerCallback) takeErr() error {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	err := w.err
	w.err = nil
	return err
}

/////////////////////////////////////////////////////////////////////////////////////////

// ConsoleCallback writes lines to the process standard error.
type ConsoleCallback struct {
	writerCallback
}

// NewConsoleCallback returns a console sink filtering on (c, p). os.Stderr
// is looked up on every write so RequestConsole redirections take effect.
func NewConsoleCallback(c Category, p Priority) *ConsoleCallback {
	cc := &ConsoleCallback{}
	cc.init(c, p, func() io.Writer { return os.Stderr })
	return cc
}

// NewWriterCallback returns a console-formatted sink writing to w.
func NewWriterCallback(w io.Writer, c Category, p Priority) *ConsoleCallback {
	if w == nil {
		w = io.Discard
	}
	cc := &ConsoleCallback{}
	cc.init(c, p, func() io.Writer { return w })
	return cc
}

/////////////////////////////////////////////////////////////////////////////////////////

// FileCallback appends lines to a file it owns. The file is truncated when
// the callback is created and closed by Close.
type FileCallback struct {
	writerCallback
	file    *os.File
	path    string
	openErr error
}

// NewFileCallback opens (truncating) path. When the file cannot be opened the
// callback is still returned and silently writes nothing; Err reports why.
func NewFileCallback(path string, c Category, p Priority) *FileCallback {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return unopenedFileCallback(path, c, p, err)
	}
	fc := &FileCallback{path: path, file: f}
	fc.init(c, p, func() io.Writer { return f })
	return fc
}

func unopenedFileCallback(path string, c Category, p Priority, err error) *FileCallback {
	fc := &FileCallback{path: path, openErr: err}
	fc.init(c, p, func() io.Writer { return io.Discard })
	return fc
}

// Path returns the file path given at construction.
func (fc *FileCallback) Path() string { return fc.path }

// Err returns the error met when opening the file, if any.
func (fc *FileCallback) Err() error { return fc.openErr }

// Close closes the underlying file. Further entries are discarded.
func (fc *FileCallback) Close() error {
	fc.mtx.Lock()
	defer fc.mtx.Unlock()
	if fc.file == nil {
		return nil
	}
	err := fc.file.Close()
	fc.file = nil
	fc.target = func() io.Writer { return io.Discard }
	return err
}

/////////////////////////////////////////////////////////////////////////////////////////

// DebugPaneCallback writes "category:message" lines, without timestamp, to
// a debugger side channel. NewDebugPaneCallback targets the platform debug
// pane (OutputDebugString on Windows, nothing elsewhere).
type DebugPaneCallback struct {
	Filter
	mtx sync.Mutex
	out io.Writer
	err error // last write error, cleared by takeErr
}

func NewDebugPaneCallback(c Category, p Priority) *DebugPaneCallback {
	return NewDebugWriterCallback(debugPaneWriter(), c, p)
}

// NewDebugWriterCallback returns a debug pane style sink writing to w.
func NewDebugWriterCallback(w io.Writer, c Category, p Priority) *DebugPaneCallback {
	if w == nil {
		w = io.Discard
	}
	cb := &DebugPaneCallback{out: w}
	cb.SetFilter(c, p)
	return cb
}

func (d *DebugPaneCallback) Invoke(e Entry) {
	if !d.ShouldLog(e.Category, e.Priority) {
		return
	}
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if _, err := io.WriteString(d.out, e.Category.String()+":"+e.Message+"\n"); err != nil {
		d.err = err
	}
}

func (d *DebugPaneCallback) takeErr() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	err := d.err
	d.err = nil
	return err
}

/////////////////////////////////////////////////////////////////////////////////////////

// MemoryCallback captures entries in memory. Useful for tests and for
// harnesses that inspect what would have been printed.
type MemoryCallback struct {
	Filter
	mtx     sync.Mutex
	entries []Entry
}

func NewMemoryCallback(c Category, p Priority) *MemoryCallback {
	m := &MemoryCallback{}
	m.SetFilter(c, p)
	return m
}

func (m *MemoryCallback) Invoke(e Entry) {
	if !m.ShouldLog(e.Category, e.Priority) {
		return
	}
	m.mtx.Lock()
	m.entries = append(m.entries, e)
	m.mtx.Unlock()
}

// Entries returns a copy of the captured entries in delivery order.
func (m *MemoryCallback) Entries() []Entry {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of captured entries.
func (m *MemoryCallback) Len() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.entries)
}

// Messages returns the message texts of the captured entries.
func (m *MemoryCallback) Messages() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := make([]string, len(m.entries))
	for i := range m.entries {
		out[i] = m.entries[i].Message
	}
	return out
}

func (m *MemoryCallback) Reset() {
	m.mtx.Lock()
	m.entries = nil
	m.mtx.Unlock()
}

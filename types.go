package logstream

/*
Defines the core data types used by the log stream:
  - Priority and Category value types (see common.go for their constants)
  - Entry: the immutable record passed from producers to callbacks
  - queueItem: the tagged unit stored in the entry queue
  - Stream: the registry that owns the queue, the dispatcher goroutine,
    the callbacks and every piece of global filter state.
*/

import (
	"io"
	"sync"
	"sync/atomic"
)

type basetype byte // underlying byte-sized representation used for small enums

type Priority basetype // ordered severity of a record
type Category uint32   // bit-flag set naming the subsystem(s) a record comes from
type lgrState basetype
type itemKind basetype

// Entry is a single log record. It is created by the producer at Log() time
// and never mutated afterwards: the queue, the dispatcher, the startup buffer
// and every callback only ever read it.
type Entry struct {
	Category Category
	Priority Priority // post-translation priority (dev levels already remapped)
	File     string   // empty when there is no source location
	Line     int      // NO_LINE when there is no source location
	Message  string
	Seq      uint64 // arrival order within the owning Stream
}

// HasLocation reports whether the entry carries a usable file:line pair.
func (e *Entry) HasLocation() bool {
	return e.File != "" && e.Line != NO_LINE
}

// queueItem is the element type of the entry queue. A stop item carries no
// entry and tells the dispatcher to return once everything before it has
// been delivered.
type queueItem struct {
	entry Entry
	kind  itemKind
}

// Stream is the logging registry. It owns one dispatcher goroutine, the list
// of callbacks it feeds, the global (category, priority) filter and the
// startup and popup side buffers.
//
// A Stream is created in stopped state by Init/InitWithParams and must be
// started by Start() (or built with InitAndStart) before queued entries are
// delivered. Entries logged while stopped are kept in the queue.
type Stream struct {
	sync struct {
		statMtx sync.Mutex     // guards state
		chngMtx sync.Mutex     // serializes reconfiguration transactions
		fbckMtx sync.RWMutex   // guards access to fallback writer
		bootMtx sync.Mutex     // guards the startup buffer
		pop     sync.Mutex     // guards popups
		waitEnd sync.WaitGroup // tracks dispatcher goroutine lifecycle
	}
	queue     *entryQueue
	callbacks []Callback // dispatch order is registration order
	consoles  []Callback // subset of callbacks following the global filter
	startup   startupBuffer
	popups    []string
	fallbck   io.Writer // receives one line per internal delivery problem
	metrics   atomic.Pointer[Metrics] // nil when metrics are off
	filter    atomic.Uint64           // packed (mask, threshold), see packFilter
	devMode   atomic.Bool
	fileLine  atomic.Bool
	testMode  atomic.Bool
	closed    atomic.Bool
	state     lgrState
}

package logstream

import "sync"

// entryQueue is an unbounded FIFO with a blocking pop. Producers never wait
// on it (push only takes the mutex for an append), the single consumer waits
// on the condition variable while the queue is empty.
//
// A buffered channel is not used here: a full channel would block producers,
// and Log() must never block.
type entryQueue struct {
	mu    sync.Mutex
	ready *sync.Cond
	items []queueItem
	head  int
	seq   uint64 // last sequence number handed out
}

func newEntryQueue() *entryQueue {
	q := &entryQueue{}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// push appends an item and wakes the consumer. Entries get their Seq here,
// so sequence numbers follow queue order. Returns the resulting depth.
func (q *entryQueue) push(item queueItem) int {
	q.mu.Lock()
	if item.kind == _ITEM_ENTRY {
		q.seq++
		item.entry.Seq = q.seq
	}
	q.items = append(q.items, item)
	depth := len(q.items) - q.head
	q.mu.Unlock()
	q.ready.Signal()
	return depth
}

// pop removes and returns the oldest item, waiting until one is available.
func (q *entryQueue) pop() queueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head == len(q.items) {
		q.ready.Wait()
	}
	item := q.items[q.head]
	q.items[q.head] = queueItem{} // drop string references early
	q.head++
	if q.head == len(q.items) {
		// drained: rewind so the backing array gets reused
		q.items = q.items[:0]
		q.head = 0
	}
	return item
}

// len returns the number of items waiting.
func (q *entryQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

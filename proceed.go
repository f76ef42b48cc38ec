package logstream

import (
	"errors"
	"strconv"
	"time"
)

/*
proceed.go

Contains the dispatcher goroutine and the fan-out of entries to callbacks.
Responsible for:
  - running the single consumer loop that pops items from the entry queue
  - recording entries into the startup buffer before fan-out
  - invoking every callback with panic recovery so one bad sink cannot take
    the loop (or the other sinks) down
  - error reporting to the fallback writer
*/

// fbckWriteln writes a single timestamped line to the fallback writer.
// Used to report problems met by the dispatcher goroutine.
func (s *Stream) fbckWriteln(str string) {
	s.sync.fbckMtx.RLock()
	defer s.sync.fbckMtx.RUnlock()
	if s.fallbck != nil {
		s.fallbck.Write([]byte(time.Now().Format(_FALLBACK_TIME_FORMAT) + str + "\n"))
	}
}

// entryDescStr returns a concise one-line description of an entry used in
// fallback messages.
func entryDescStr(e *Entry) string {
	return "seq=" + strconv.FormatUint(e.Seq, 10) +
		" cat=" + e.Category.String() +
		" prio=" + e.Priority.String() +
		" msg=`" + e.Message + "`"
}

// setState sets the stream state with locking; normalizes the provided
// state before assignment.
func (s *Stream) setState(newstate lgrState) {
	s.sync.statMtx.Lock()
	defer s.sync.statMtx.Unlock()
	s.state = normState(newstate)
}

// procced is the dispatcher loop. It pops items until it meets a stop item,
// then returns with every item queued before the stop delivered.
//
// A panic escaping proceedItem (only the forbidden item kind does that) is
// recovered and reported, and the state still ends as STOPPED.
func (s *Stream) procced() {
	defer func() {
		if r := recover(); r != nil {
			s.fbckWriteln("panic proceeding log" + panicDesc(r))
		}
		s.setState(_STATE_STOPPED)
	}()
	for {
		item := s.queue.pop()
		s.metrics.Load().setQueueDepth(s.queue.len())
		if item.kind == _ITEM_STOP {
			return
		}
		if err := s.proceedItem(&item); err != nil {
			s.fbckWriteln("error proceeding entry: " + err.Error())
		}
	}
}

// proceedItem handles one non-stop queue item.
func (s *Stream) proceedItem(item *queueItem) error {
	switch item.kind {
	case _ITEM_ENTRY:
		s.recordStartup(item.entry)
		s.dispatch(item.entry)
		s.metrics.Load().dispatched()
	case _ITEM_FORBIDDEN:
		// for testing purposes only: exercises panic handling of procced()
		panic("panic on forbidden item kind: " + entryDescStr(&item.entry))
	default:
		return errors.New("unknown item kind " + strconv.Itoa(int(item.kind)) + ": " + entryDescStr(&item.entry))
	}
	return nil
}

// dispatch hands the entry to every callback in registration order. The
// callback list is never mutated while the dispatcher runs.
func (s *Stream) dispatch(e Entry) {
	for _, cb := range s.callbacks {
		s.invokeCallback(cb, e)
	}
}

// invokeCallback calls cb.Invoke and reports (without rethrowing) a panic or
// a sink write error.
func (s *Stream) invokeCallback(cb Callback, e Entry) {
	panicked, err := callInvoke(cb, e)
	if err == nil {
		return
	}
	s.metrics.Load().callbackFailed(panicked)
	s.fbckWriteln(err.Error() + " (" + entryDescStr(&e) + ")")
}

// callInvoke returns panicked=true and the panic as an error if Invoke
// panicked, otherwise the write error kept by writer sinks (if any).
func callInvoke(cb Callback, e Entry) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = errors.New("panic invoking callback" + panicDesc(r))
		}
	}()
	cb.Invoke(e)
	if f, ok := cb.(failing); ok {
		if werr := f.takeErr(); werr != nil {
			err = errors.New("error writing log to callback: " + werr.Error())
		}
	}
	return
}

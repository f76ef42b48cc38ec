package logstream

// startupBuffer keeps the entries dispatched while startup logging is on so
// callbacks registered later can be backfilled. A zero limit means unbounded;
// with a limit the oldest entries are dropped first.
type startupBuffer struct {
	entries []Entry
	limit   int
	enabled bool
}

func (b *startupBuffer) record(e Entry) {
	if !b.enabled {
		return
	}
	b.entries = append(b.entries, e)
	if b.limit > 0 && len(b.entries) > b.limit {
		over := len(b.entries) - b.limit
		b.entries = append(b.entries[:0], b.entries[over:]...)
	}
}

// reset drops every stored entry and releases the backing array.
func (b *startupBuffer) reset() {
	b.entries = nil
}

/////////////////////////////////////////////////////////////////////////////////////////

// SetStartupLoggingEnabled switches capture of dispatched entries for later
// replay. Any change of the setting discards the buffer, so turning it off
// frees everything captured so far and nothing is replayed afterwards.
func (s *Stream) SetStartupLoggingEnabled(enabled bool) *Stream {
	s.sync.bootMtx.Lock()
	defer s.sync.bootMtx.Unlock()
	if s.startup.enabled == enabled {
		return s
	}
	s.startup.enabled = enabled
	s.startup.reset()
	s.metrics.Load().setStartupSize(0)
	return s
}

// SetStartupLimit bounds the startup buffer to the newest n entries (0 for
// no bound).
func (s *Stream) SetStartupLimit(n int) *Stream {
	s.sync.bootMtx.Lock()
	defer s.sync.bootMtx.Unlock()
	if n < 0 {
		n = 0
	}
	s.startup.limit = n
	if n > 0 && len(s.startup.entries) > n {
		s.startup.entries = append(s.startup.entries[:0], s.startup.entries[len(s.startup.entries)-n:]...)
	}
	s.metrics.Load().setStartupSize(len(s.startup.entries))
	return s
}

// IsStartupLoggingEnabled reports whether dispatched entries are captured.
func (s *Stream) IsStartupLoggingEnabled() bool {
	s.sync.bootMtx.Lock()
	defer s.sync.bootMtx.Unlock()
	return s.startup.enabled
}

// StartupEntries returns a copy of the captured entries.
func (s *Stream) StartupEntries() []Entry {
	s.sync.bootMtx.Lock()
	defer s.sync.bootMtx.Unlock()
	out := make([]Entry, len(s.startup.entries))
	copy(out, s.startup.entries)
	return out
}

// recordStartup is called by the dispatcher for every entry before fan-out.
func (s *Stream) recordStartup(e Entry) {
	s.sync.bootMtx.Lock()
	defer s.sync.bootMtx.Unlock()
	if s.startup.enabled {
		s.startup.record(e)
		s.metrics.Load().setStartupSize(len(s.startup.entries))
	}
}

// replayStartup feeds every captured entry to cb in original order. Called
// from AddCallback while the dispatcher is stopped.
func (s *Stream) replayStartup(cb Callback) {
	s.sync.bootMtx.Lock()
	entries := make([]Entry, len(s.startup.entries))
	copy(entries, s.startup.entries)
	s.sync.bootMtx.Unlock()
	for _, e := range entries {
		s.invokeCallback(cb, e)
	}
}

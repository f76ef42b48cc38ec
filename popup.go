package logstream

// Popup queues a message for the user interface to show. Popups are a side
// FIFO of the stream: they are not entries and never reach callbacks.
func (s *Stream) Popup(msg string) {
	s.sync.pop.Lock()
	defer s.sync.pop.Unlock()
	s.popups = append(s.popups, msg)
}

// GetPopup removes and returns the oldest popup message, or "" if there is
// none.
func (s *Stream) GetPopup() string {
	s.sync.pop.Lock()
	defer s.sync.pop.Unlock()
	if len(s.popups) == 0 {
		return ""
	}
	msg := s.popups[0]
	s.popups[0] = ""
	s.popups = s.popups[1:]
	if len(s.popups) == 0 {
		s.popups = nil
	}
	return msg
}

// HasPopup reports whether a popup message is waiting.
func (s *Stream) HasPopup() bool {
	s.sync.pop.Lock()
	defer s.sync.pop.Unlock()
	return len(s.popups) > 0
}

func (s *Stream) clearPopups() {
	s.sync.pop.Lock()
	defer s.sync.pop.Unlock()
	s.popups = nil
}

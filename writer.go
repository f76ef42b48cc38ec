package logstream

/*********************************************************************************
io.Writer interface implementation

The Client implements io.Writer so it can be used with fmt.Fprintf, the
standard log package and other writer based helpers. The semantics are:
 - Lvl(p) sets the priority used by subsequent Write calls.
 - Write(p) queues the bytes (without one trailing newline) as a single entry
   and returns len(p), or 0 and an error if the stream is closed.

Entries written this way carry no source location.
*/

// Lvl sets the client's current priority (used by Write/fmt.Fprintf) and
// returns the same client for convenient chaining:
//
//	fmt.Fprintf(client.Lvl(LVL_WARN), "disk low: %d%%", percent)
func (lc *Client) Lvl(p Priority) *Client {
	lc.curLevel.Store(uint32(normPriority(p)))
	return lc
}

// Write implements io.Writer. A nil or empty payload is a zero-length write
// with no error.
func (lc *Client) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	msg := p
	if msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	err = lc.logAt(-1, Priority(lc.curLevel.Load()), string(msg))
	if err == nil {
		n = len(p)
	}
	return
}

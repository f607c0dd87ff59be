// SPDX-License-Identifier: MIT

package filter

// headerName is the header this milter looks for, compared
// case-insensitively against each header name the MTA delivers.
const headerName = "message-id"

// Session tracks per-transaction state for one MTA connection. A
// connection never interleaves two messages, and the protocol engine
// delivers callbacks for a connection sequentially, so Session needs no
// locking: it is owned exclusively by its connection's goroutine.
type Session struct {
	hasMessageID bool
}

// ScanHeader records whether the given header name identifies a
// Message-ID header. The header value is deliberately ignored: presence
// is the only criterion, syntax validation is not this milter's job.
func (s *Session) ScanHeader(name string) {
	if isMessageIDName(name) {
		s.hasMessageID = true
	}
}

// isMessageIDName compares name against headerName with ASCII-only case
// folding. Header names are ASCII on the wire; Unicode simple folding
// (strings.EqualFold) would additionally fold look-alikes such as
// U+017F into "s" and treat a header that is not Message-ID as one.
func isMessageIDName(name string) bool {
	if len(name) != len(headerName) {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != headerName[i] {
			return false
		}
	}
	return true
}

// Take reports whether a Message-ID header was observed in the current
// transaction and resets the flag in the same step, so a failure after
// the decision cannot leak state into the next transaction on this
// connection.
func (s *Session) Take() bool {
	seen := s.hasMessageID
	s.hasMessageID = false
	return seen
}

// Reset unconditionally clears the transaction state. Called on abort
// and on connection close so the session is safe to reuse either way.
func (s *Session) Reset() {
	s.hasMessageID = false
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"bytes"
)

// DefaultBufferLimit is the size the [Scanner] buffer may grow to before it is
// trimmed.
const DefaultBufferLimit = 64 * 1024

// Scanner accumulates console output and reports the first occurrence of the
// armed marker.
//
// A match is reported at most once per arm or reset cycle. The buffer is
// trimmed once it exceeds its limit, keeping enough of the tail that a marker
// straddling the cut is still found.
type Scanner struct {
	marker  []byte
	buf     []byte
	matched bool
	end     int
	limit   int
}

// NewScanner creates a new [Scanner] armed with the given marker.
func NewScanner(marker string) *Scanner {
	s := &Scanner{limit: DefaultBufferLimit}
	s.Arm(marker)

	return s
}

// Arm sets the marker to look for, clears the buffer and enables reporting.
func (s *Scanner) Arm(marker string) {
	s.marker = []byte(marker)
	s.Reset()
}

// Reset clears the buffer and enables reporting for the armed marker again.
func (s *Scanner) Reset() {
	s.buf = s.buf[:0]
	s.matched = false
	s.end = 0
}

// Consume drops the buffer up to the end of the reported match and enables
// reporting again. It returns true if the remaining output already contains
// the marker another time. Without a reported match it does the same as
// [Scanner.Reset].
func (s *Scanner) Consume() bool {
	if !s.matched {
		s.Reset()
		return false
	}

	s.buf = append(s.buf[:0], s.buf[s.end:]...)
	s.matched = false
	s.end = 0

	return s.scan()
}

// Marker returns the currently armed marker.
func (s *Scanner) Marker() string {
	return string(s.marker)
}

// Matched returns true if the armed marker has been reported since the last
// arm or reset.
func (s *Scanner) Matched() bool {
	return s.matched
}

// Buffered returns the number of bytes currently held in the buffer.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// Feed appends the chunk to the buffer and returns true if the armed marker
// is contained in the buffer for the first time since the last arm or reset.
func (s *Scanner) Feed(chunk []byte) bool {
	if s.matched || len(s.marker) == 0 {
		return false
	}

	s.buf = append(s.buf, chunk...)

	return s.scan()
}

func (s *Scanner) scan() bool {
	idx := bytes.Index(s.buf, s.marker)
	if idx >= 0 {
		s.matched = true
		s.end = idx + len(s.marker)

		return true
	}

	s.trim()

	return false
}

// trim drops everything but the last len(marker)-1 bytes once the buffer
// exceeds the limit. Nothing before that can be part of a future match.
func (s *Scanner) trim() {
	if len(s.buf) <= s.limit {
		return
	}

	keep := len(s.marker) - 1
	s.buf = append(s.buf[:0], s.buf[len(s.buf)-keep:]...)
}

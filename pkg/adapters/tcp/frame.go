// Package tcp implements the command transport: plain-text frames, each an
// arbitrary payload terminated by the literal "*EOF*", received over one
// TCP connection at a time.
package tcp

import (
	"bufio"
	"bytes"
)

// Sentinel terminates every frame.
const Sentinel = "*EOF*"

// MaxFrameSize bounds a single frame; longer input drops the connection.
const MaxFrameSize = 1 << 20

var sentinel = []byte(Sentinel)

// ScanFrames is a bufio.SplitFunc yielding frame payloads without the sentinel.
// A trailing partial frame at EOF is discarded.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, sentinel); i >= 0 {
		return i + len(sentinel), data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// Encode appends the sentinel to payload.
func Encode(payload string) []byte {
	return append([]byte(payload), sentinel...)
}

func newScanner(r interface{ Read([]byte) (int, error) }) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxFrameSize)
	s.Split(ScanFrames)
	return s
}

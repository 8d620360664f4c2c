package transport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// maxSSELineSize is the maximum size of a single SSE line (1 MB). Tool inputs
// and long text deltas can exceed bufio.Scanner's 64 KiB default.
const maxSSELineSize = 1 << 20

// defaultEventName is the event name of frames without an event field.
const defaultEventName = "message"

// Frame is one Server-Sent Events record as received over the wire.
type Frame struct {
	// Event is the event field, or "message" when absent.
	Event string
	// Data is the data payload; multiple data lines are joined with "\n".
	Data string
	// ID is the last event ID seen on the stream.
	ID string
	// Retry is the reconnection hint, zero if none was sent.
	Retry time.Duration
}

// FrameReader assembles frames from a text/event-stream body. A frame may span
// any number of physical reads; it is returned once its terminating blank line
// has arrived.
type FrameReader struct {
	scanner *bufio.Scanner
	lastID  string
	started bool
}

// NewFrameReader returns a reader over r.
func NewFrameReader(r io.Reader) *FrameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	scanner.Split(scanLines)
	return &FrameReader{scanner: scanner}
}

// Next returns the next complete frame. It returns io.EOF when the stream
// ends; a frame left incomplete at the end is discarded. Comment lines and
// frames without data are skipped.
func (r *FrameReader) Next() (Frame, error) {
	var (
		frame   Frame
		data    strings.Builder
		hasData bool
	)

	for r.scanner.Scan() {
		line := r.scanner.Text()
		if !r.started {
			r.started = true
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if line == "" {
			if !hasData || data.Len() == 0 {
				frame, hasData = Frame{}, false
				data.Reset()
				continue
			}
			frame.Data = data.String()
			frame.ID = r.lastID
			if frame.Event == "" {
				frame.Event = defaultEventName
			}
			return frame, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			frame.Event = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				frame.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("read event stream: %w", err)
	}
	return Frame{}, io.EOF
}

// scanLines splits on LF, CRLF or a lone CR.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing CR may be the first half of CRLF.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

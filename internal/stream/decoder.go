// Package stream consumes the proxy's Server-Sent-Events answer stream and
// turns it into ordered token callbacks.
package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

const doneSentinel = "[DONE]"

// Event is one decoded stream occurrence: an answer token, or the single
// terminal Done marker.
type Event struct {
	Token string
	Done  bool
}

// Decoder reassembles SSE frames from arbitrarily fragmented reads. It owns a
// single residual byte buffer, so multi-byte sequences split across reads are
// preserved: frames are only ever cut at the blank-line separator, which can
// never fall inside a UTF-8 sequence.
//
// Feed bytes as they arrive and process the returned events in order. After a
// Done event the decoder is terminated and yields nothing further.
type Decoder struct {
	buf  []byte
	done bool
}

var frameSep = []byte("\n\n")

// Feed appends p to the residual buffer and returns the events decoded from
// every complete frame now available. The trailing incomplete frame, if any,
// stays buffered for the next call.
func (d *Decoder) Feed(p []byte) []Event {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, p...)

	var events []Event
	for {
		i := bytes.Index(d.buf, frameSep)
		if i < 0 {
			return events
		}
		frame := d.buf[:i]
		d.buf = d.buf[i+len(frameSep):]

		for _, ev := range decodeFrame(frame) {
			events = append(events, ev)
			if ev.Done {
				d.done = true
				d.buf = nil
				return events
			}
		}
	}
}

// Finish marks the end of input. An upstream that closes the connection
// without sending the sentinel counts as clean completion, so Finish yields a
// Done event unless one was already produced. A residual incomplete frame is
// discarded.
func (d *Decoder) Finish() []Event {
	if d.done {
		return nil
	}
	d.done = true
	d.buf = nil
	return []Event{{Done: true}}
}

// decodeFrame extracts events from one complete frame. Only "data:" lines are
// considered; non-JSON payloads are ignored, never fatal.
func decodeFrame(frame []byte) []Event {
	var events []Event
	for _, line := range strings.Split(string(frame), "\n") {
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(line[len("data:"):])
		if data == doneSentinel {
			return append(events, Event{Done: true})
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			events = append(events, Event{Token: chunk.Choices[0].Delta.Content})
		}
	}
	return events
}

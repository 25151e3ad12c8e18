package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MissionSquad/missionsquad-docs/internal/domain"
)

// StatusError is a non-success HTTP status on the initial ask request.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ask HTTP %d", e.StatusCode)
}

// Handlers receives the decoded stream. OnToken is required; OnError and
// OnDone may be nil. Exactly one terminal callback fires per Ask call: OnDone
// on clean completion, OnError on failure. OnToken never fires after either.
type Handlers struct {
	OnToken func(text string)
	OnError func(err error)
	OnDone  func()
}

// Client streams chat answers from the proxy's /api/ask endpoint.
type Client struct {
	proxyURL string
	httpc    *http.Client
}

// NewClient creates a streaming ask client against the given proxy base URL.
// The underlying HTTP client carries no timeout; bound the call with the
// context passed to Ask.
func NewClient(proxyURL string) *Client {
	return &Client{
		proxyURL: strings.TrimRight(proxyURL, "/"),
		httpc:    &http.Client{},
	}
}

// Ask posts the payload with the streaming flag forced true and delivers
// tokens in stream order. Cancelling ctx aborts the read and surfaces as a
// single OnError carrying the context error; no further callbacks fire and
// the response body is released on every exit path.
func (c *Client) Ask(ctx context.Context, opts domain.AskOptions, h Handlers) {
	fail := func(err error) {
		if h.OnError != nil {
			h.OnError(err)
		}
	}

	body, err := json.Marshal(struct {
		domain.AskOptions
		Stream bool `json:"stream"`
	}{AskOptions: opts, Stream: true})
	if err != nil {
		fail(err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		fail(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		fail(fmt.Errorf("ask request: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fail(&StatusError{StatusCode: resp.StatusCode})
		return
	}

	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if c.dispatch(dec.Feed(buf[:n]), h) {
				return
			}
		}
		if readErr == io.EOF {
			c.dispatch(dec.Finish(), h)
			return
		}
		if readErr != nil {
			fail(readErr)
			return
		}
	}
}

// dispatch fires callbacks for events and reports whether a terminal Done was
// reached.
func (c *Client) dispatch(events []Event, h Handlers) bool {
	for _, ev := range events {
		if ev.Done {
			if h.OnDone != nil {
				h.OnDone()
			}
			return true
		}
		if h.OnToken != nil {
			h.OnToken(ev.Token)
		}
	}
	return false
}

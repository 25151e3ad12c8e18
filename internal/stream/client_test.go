package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MissionSquad/missionsquad-docs/internal/domain"
)

type recorder struct {
	tokens []string
	errs   []error
	dones  int
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnToken: func(text string) { r.tokens = append(r.tokens, text) },
		OnError: func(err error) { r.errs = append(r.errs, err) },
		OnDone:  func() { r.dones++ },
	}
}

func askOpts() domain.AskOptions {
	return domain.AskOptions{
		Model:    "docs-agent",
		Messages: []domain.Message{{Role: "user", Content: "how do I deploy?"}},
	}
}

func TestClientAsk(t *testing.T) {
	t.Run("streams tokens then done", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/ask", r.URL.Path)

			var payload struct {
				domain.AskOptions
				Stream bool `json:"stream"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.True(t, payload.Stream, "streaming flag must be forced true")
			assert.Equal(t, "docs-agent", payload.Model)

			w.Header().Set("Content-Type", "text/event-stream")
			fl := w.(http.Flusher)
			for _, piece := range []string{frame("Deploy "), frame("with make."), "data: [DONE]\n\n"} {
				w.Write([]byte(piece))
				fl.Flush()
			}
		}))
		defer srv.Close()

		var rec recorder
		NewClient(srv.URL).Ask(context.Background(), askOpts(), rec.handlers())
		assert.Equal(t, []string{"Deploy ", "with make."}, rec.tokens)
		assert.Equal(t, 1, rec.dones)
		assert.Empty(t, rec.errs)
	})

	t.Run("non-success status yields exactly one error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream busted", http.StatusBadGateway)
		}))
		defer srv.Close()

		var rec recorder
		NewClient(srv.URL).Ask(context.Background(), askOpts(), rec.handlers())
		assert.Empty(t, rec.tokens)
		assert.Zero(t, rec.dones)
		require.Len(t, rec.errs, 1)
		var se *StatusError
		require.ErrorAs(t, rec.errs[0], &se)
		assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	})

	t.Run("connection close without sentinel is clean completion", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(frame("partial answer")))
		}))
		defer srv.Close()

		var rec recorder
		NewClient(srv.URL).Ask(context.Background(), askOpts(), rec.handlers())
		assert.Equal(t, []string{"partial answer"}, rec.tokens)
		assert.Equal(t, 1, rec.dones)
		assert.Empty(t, rec.errs)
	})

	t.Run("unreachable proxy yields one error", func(t *testing.T) {
		var rec recorder
		NewClient("http://127.0.0.1:1").Ask(context.Background(), askOpts(), rec.handlers())
		assert.Empty(t, rec.tokens)
		assert.Zero(t, rec.dones)
		assert.Len(t, rec.errs, 1)
	})

	t.Run("cancellation surfaces as one error and stops tokens", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(frame("first")))
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			close(release)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		rec := recorder{}
		h := rec.handlers()
		h.OnToken = func(text string) {
			rec.tokens = append(rec.tokens, text)
			cancel()
		}
		NewClient(srv.URL).Ask(ctx, askOpts(), h)
		<-release

		assert.Equal(t, []string{"first"}, rec.tokens)
		assert.Zero(t, rec.dones)
		require.Len(t, rec.errs, 1)
		assert.ErrorContains(t, rec.errs[0], "context canceled")
	})

	t.Run("nil optional handlers do not panic", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(frame("tok") + "data: [DONE]\n\n"))
		}))
		defer srv.Close()

		var tokens []string
		NewClient(srv.URL).Ask(context.Background(), askOpts(), Handlers{
			OnToken: func(text string) { tokens = append(tokens, text) },
		})
		assert.Equal(t, []string{"tok"}, tokens)
	})
}

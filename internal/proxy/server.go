// Package proxy is the credential-hiding edge in front of the chat/embedding
// provider. It forwards embedding and ask requests, injecting the upstream
// secret and attaching CORS headers; ask responses stream through as SSE.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/MissionSquad/missionsquad-docs/internal/upstream"
)

// Config holds proxy configuration. APIKey is the server-held secret; it is
// never exposed to callers.
type Config struct {
	Addr    string
	BaseURL string
	APIKey  string
	// DevRewrite removes Referer and Origin from upstream-bound requests. A
	// development-origin Referer can trip edge firewalls at the provider that
	// a normal browser navigation would not.
	DevRewrite bool
}

// Server is a stateless request handler; arbitrary concurrent instances are
// safe with no coordination.
type Server struct {
	echo   *echo.Echo
	cfg    Config
	logger *zap.Logger
	httpc  *http.Client
}

// NewServer creates the proxy. The HTTP client carries no timeout because ask
// responses are long-lived streams.
func NewServer(cfg Config, logger *zap.Logger) (*Server, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("proxy requires an upstream API key")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("proxy requires an upstream base URL")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("proxy request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{echo: e, cfg: cfg, logger: logger, httpc: &http.Client{}}

	e.OPTIONS("/*", s.handlePreflight)
	e.POST("/api/embed", s.handleEmbed)
	e.POST("/api/ask", s.handleAsk)
	e.RouteNotFound("/*", s.handleNotFound)

	// Any other path or method answers 404 with CORS, including wrong-method
	// hits on known paths which echo would otherwise turn into 405.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
			if !c.Response().Committed {
				_ = s.handleNotFound(c)
			}
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	return s, nil
}

// Handler exposes the underlying handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("starting proxy", zap.String("addr", s.cfg.Addr))
	return s.echo.Start(s.cfg.Addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func setSSE(h http.Header) {
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

func (s *Server) handlePreflight(c echo.Context) error {
	setCORS(c.Response().Header())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleNotFound(c echo.Context) error {
	setCORS(c.Response().Header())
	return c.String(http.StatusNotFound, "Not found")
}

func (s *Server) handleEmbed(c echo.Context) error {
	return s.forward(c, upstream.EmbeddingsURL(s.cfg.BaseURL), false)
}

func (s *Server) handleAsk(c echo.Context) error {
	return s.forward(c, upstream.ChatCompletionsURL(s.cfg.BaseURL), true)
}

// forward relays the request body verbatim to endpoint with the secret
// credential substituted for whatever the caller sent, then passes the
// upstream status and body back through. The proxy never interprets the body.
func (s *Server) forward(c echo.Context, endpoint string, sse bool) error {
	in := c.Request()

	req, err := http.NewRequestWithContext(in.Context(), http.MethodPost, endpoint, in.Body)
	if err != nil {
		return err
	}
	req.Header = in.Header.Clone()
	// the caller's own Authorization is never forwarded upstream
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.DevRewrite {
		req.Header.Del("Referer")
		req.Header.Del("Origin")
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		s.logger.Error("upstream unreachable", zap.String("endpoint", endpoint), zap.Error(err))
		setCORS(c.Response().Header())
		return c.String(http.StatusBadGateway, fmt.Sprintf("upstream unreachable: %v", err))
	}
	defer resp.Body.Close()

	out := c.Response()
	copyHeaders(out.Header(), resp.Header)
	setCORS(out.Header())
	if sse {
		setSSE(out.Header())
	}
	out.WriteHeader(resp.StatusCode)

	return streamCopy(out, resp.Body)
}

// copyHeaders merges upstream response headers, skipping hop-by-hop ones that
// must not be relayed.
func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		switch http.CanonicalHeaderKey(k) {
		case "Connection", "Keep-Alive", "Transfer-Encoding", "Upgrade", "Proxy-Authenticate", "Proxy-Authorization", "Te", "Trailer":
			continue
		}
		for _, v := range vv {
			dst.Set(k, v)
		}
	}
}

// streamCopy relays src to dst, flushing after every read so SSE frames reach
// the browser as they arrive instead of sitting in a buffer.
func streamCopy(dst *echo.Response, src io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			dst.Flush()
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

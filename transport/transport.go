// Package transport issues authenticated requests to the Anthropic API, retries
// rate-limited and overloaded responses under an exponential backoff policy, and
// decodes Server-Sent Events streams into typed events.
package transport

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/core"
)

// requestIDHeader is the response header carrying the server request ID.
const requestIDHeader = "request-id"

// Transport is safe for concurrent use. Each call gets its own connection and
// its own retry state.
type Transport struct {
	cfg    Config
	tracer trace.Tracer
}

// New creates a transport for the given API key.
func New(apiKey string, opts ...Option) *Transport {
	cfg := defaultConfig()
	cfg.APIKey = core.NewSecret(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	// Backoff starts at the default, so whatever is left is what the caller
	// asked for. A zero policy means one attempt.
	return newTransport(cfg)
}

// NewWithConfig creates a transport from a complete Config. Zero fields take
// their defaults, including a zero Backoff. Use New with WithBackoff to run
// without retries.
func NewWithConfig(cfg Config) *Transport {
	if cfg.Backoff == (core.BackoffPolicy{}) {
		cfg.Backoff = core.DefaultBackoffPolicy()
	}
	return newTransport(cfg)
}

func newTransport(cfg Config) *Transport {
	def := defaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = def.HTTPClient
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = def.TracerProvider
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = def.Telemetry
	}
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = def.StreamBuffer
	}
	return &Transport{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(tracerName),
	}
}

// Config returns a copy of the transport configuration.
func (t *Transport) Config() Config {
	return t.cfg
}

// buildHeaders constructs the HTTP headers for an API request.
func (t *Transport) buildHeaders(stream bool) http.Header {
	headers := make(http.Header)

	headers.Set("x-api-key", t.cfg.APIKey.Expose())
	headers.Set("anthropic-version", t.cfg.Version)
	headers.Set("Content-Type", "application/json")
	if t.cfg.Beta != "" {
		headers.Set("anthropic-beta", t.cfg.Beta)
	}
	if stream {
		headers.Set("Accept", "text/event-stream")
		headers.Set("Cache-Control", "no-store")
	} else {
		headers.Set("Accept", "application/json")
	}

	for key, values := range t.cfg.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}

// formatURL joins the base URL and path with exactly one slash.
func (t *Transport) formatURL(path string) string {
	return strings.TrimRight(t.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// call tracks one logical request across its attempts.
type call struct {
	id     string
	method string
	path   string
	stream bool
	start  time.Time

	attempts  int
	status    int
	requestID string

	ctx    context.Context
	span   trace.Span
	logger *zap.Logger
}

// startCall opens the span and emits the start telemetry event.
func (t *Transport) startCall(ctx context.Context, method, path string, stream bool) *call {
	c := &call{
		id:     uuid.NewString(),
		method: method,
		path:   path,
		stream: stream,
		start:  time.Now(),
	}
	c.ctx, c.span = t.startSpan(ctx, c)
	c.logger = t.cfg.Logger.With(
		zap.String("call_id", c.id),
		zap.String("method", method),
		zap.String("path", path),
		zap.Bool("stream", stream),
	)

	t.cfg.Telemetry.OnRequestStart(core.RequestStartEvent{
		CallID: c.id,
		Method: method,
		Path:   path,
		Stream: stream,
		Start:  c.start,
	})
	return c
}

// finishCall records the outcome of the request phase. For streams this is
// connection establishment; the span stays open until the stream ends.
func (t *Transport) finishCall(c *call, err error) {
	end := time.Now()
	t.cfg.Telemetry.OnRequestEnd(core.RequestEndEvent{
		CallID:   c.id,
		Method:   c.method,
		Path:     c.path,
		Stream:   c.stream,
		Start:    c.start,
		End:      end,
		Attempts: c.attempts,
		Status:   c.status,
		Err:      err,
	})
	t.cfg.Metrics.observeRequest(c, err, end.Sub(c.start))
	annotateSpan(c, err)

	if err != nil {
		c.logger.Debug("request failed",
			zap.Int("attempts", c.attempts),
			zap.Int("status", c.status),
			zap.Duration("duration", end.Sub(c.start)),
			zap.Error(err))
		return
	}
	c.logger.Debug("request succeeded",
		zap.Int("attempts", c.attempts),
		zap.String("request_id", c.requestID),
		zap.Duration("duration", end.Sub(c.start)))
}

// attempt performs one HTTP exchange and classifies the status. On success
// the response body is left unread for the caller.
func (t *Transport) attempt(ctx context.Context, c *call, payload []byte) (*http.Response, error) {
	c.attempts++
	t.cfg.Metrics.observeAttempt(c)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, c.method, t.formatURL(c.path), body)
	if err != nil {
		return nil, newNetworkError(err)
	}
	httpReq.Header = t.buildHeaders(c.stream)

	c.logger.Debug("sending request", zap.Int("attempt", c.attempts))

	resp, err := t.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}

	c.status = resp.StatusCode
	c.requestID = resp.Header.Get(requestIDHeader)

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		cerr := classifyResponse(resp)
		if core.IsRetryable(cerr) {
			c.logger.Warn("rate limited",
				zap.Int("status", resp.StatusCode),
				zap.String("request_id", c.requestID),
				zap.Error(cerr))
		}
		return nil, cerr
	}

	if c.stream {
		if err := checkEventStream(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
	}
	return resp, nil
}

// checkEventStream rejects 200 responses that are not an event stream.
func checkEventStream(resp *http.Response) error {
	ct := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "text/event-stream" {
		return &core.Error{
			Status:    resp.StatusCode,
			RequestID: resp.Header.Get(requestIDHeader),
			Type:      "invalid_content_type",
			Message:   "expected text/event-stream, got " + ct,
			Err:       core.ErrStream,
		}
	}
	return nil
}

// Package anthropic is a client for the Anthropic Messages and Models APIs.
//
// Requests go through a retrying transport: rate-limited (429) and overloaded
// (529) responses are retried under an exponential backoff policy, and
// streaming replies are decoded into typed events.
//
//	client, err := anthropic.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	req, err := anthropic.NewRequest(anthropic.ModelClaudeSonnet45).
//	    User("Hello").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := client.Messages().Create(ctx, req)
package anthropic

import (
	"errors"
	"net/http"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/core"
	"github.com/petal-labs/anthropic/transport"
)

// DefaultAPIKeyEnvVar is the environment variable name for the Anthropic API key.
const DefaultAPIKeyEnvVar = "ANTHROPIC_API_KEY"

// BaseURLEnvVar optionally overrides the API base URL in NewFromEnv.
const BaseURLEnvVar = "ANTHROPIC_BASE_URL"

// ErrAPIKeyNotFound is returned when the API key environment variable is not set.
var ErrAPIKeyNotFound = errors.New("anthropic: ANTHROPIC_API_KEY environment variable not set")

// Option configures the client.
type Option = transport.Option

// Client is safe for concurrent use.
type Client struct {
	transport *transport.Transport
}

// New creates a client with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	return &Client{transport: transport.New(apiKey, opts...)}
}

// NewFromEnv creates a client using the ANTHROPIC_API_KEY environment variable.
// ANTHROPIC_BASE_URL, when set, replaces the default base URL; explicit options
// still win.
func NewFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}
	if base := os.Getenv(BaseURLEnvVar); base != "" {
		opts = append([]Option{WithBaseURL(base)}, opts...)
	}
	return New(apiKey, opts...), nil
}

// Messages returns the Messages API.
func (c *Client) Messages() *Messages {
	return &Messages{client: c}
}

// Models returns the Models API.
func (c *Client) Models() *Models {
	return &Models{client: c}
}

// Transport returns the underlying transport.
func (c *Client) Transport() *transport.Transport {
	return c.transport
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return transport.WithBaseURL(url)
}

// WithVersion sets the anthropic-version header.
func WithVersion(version string) Option {
	return transport.WithVersion(version)
}

// WithBeta sets the anthropic-beta header.
func WithBeta(beta string) Option {
	return transport.WithBeta(beta)
}

// WithHeader adds an extra header to every request.
func WithHeader(key, value string) Option {
	return transport.WithHeader(key, value)
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return transport.WithHTTPClient(client)
}

// WithBackoff replaces the retry policy.
func WithBackoff(p core.BackoffPolicy) Option {
	return transport.WithBackoff(p)
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return transport.WithLogger(logger)
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *transport.Metrics) Option {
	return transport.WithMetrics(m)
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return transport.WithTracerProvider(tp)
}

// WithTelemetry sets the request lifecycle hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return transport.WithTelemetry(h)
}

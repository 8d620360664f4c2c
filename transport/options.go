package transport

import (
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/core"
)

// DefaultBaseURL is the default Anthropic API base URL.
const DefaultBaseURL = "https://api.anthropic.com"

// DefaultVersion is the default value of the anthropic-version header.
const DefaultVersion = "2023-06-01"

// DefaultStreamBuffer is the number of decoded events a stream may hold before
// the reader goroutine waits for the consumer.
const DefaultStreamBuffer = 64

// Config holds the transport configuration. It is read-only after New and is
// shared by all concurrent calls.
type Config struct {
	// BaseURL is the API base URL. Defaults to https://api.anthropic.com
	BaseURL string

	// APIKey is sent as x-api-key.
	APIKey core.Secret

	// Version is sent as anthropic-version. Defaults to 2023-06-01.
	Version string

	// Beta, when set, is sent as anthropic-beta.
	Beta string

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Backoff governs retries of rate-limited and overloaded responses.
	Backoff core.BackoffPolicy

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics, when set, records Prometheus metrics.
	Metrics *Metrics

	// TracerProvider creates spans for calls and streams. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Telemetry receives request lifecycle events.
	Telemetry core.TelemetryHook

	// NewTimer creates the timer used for one call's backoff sleeps. Nil uses real time.
	NewTimer func() backoff.Timer

	// StreamBuffer is the capacity of the channel behind each EventStream.
	StreamBuffer int
}

// Option configures the transport.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Version:        DefaultVersion,
		Backoff:        core.DefaultBackoffPolicy(),
		HTTPClient:     http.DefaultClient,
		Logger:         zap.NewNop(),
		TracerProvider: otel.GetTracerProvider(),
		Telemetry:      core.NoopTelemetryHook{},
		StreamBuffer:   DefaultStreamBuffer,
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithVersion sets the anthropic-version header.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}

// WithBeta sets the anthropic-beta header.
func WithBeta(beta string) Option {
	return func(c *Config) {
		c.Beta = beta
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithBackoff replaces the retry policy.
func WithBackoff(p core.BackoffPolicy) Option {
	return func(c *Config) {
		c.Backoff = p
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		if tp != nil {
			c.TracerProvider = tp
		}
	}
}

// WithTelemetry sets the lifecycle hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(c *Config) {
		if h != nil {
			c.Telemetry = h
		}
	}
}

// WithTimer sets the timer factory used for backoff sleeps.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(c *Config) {
		c.NewTimer = newTimer
	}
}

// WithStreamBuffer sets the per-stream event buffer capacity.
func WithStreamBuffer(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.StreamBuffer = n
		}
	}
}

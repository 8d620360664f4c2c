package core

import "time"

// TelemetryHook receives request lifecycle notifications from the transport.
// Implementations can feed logs, metrics or tracing systems.
//
// # Security Considerations
//
// Events carry operational metadata only. They never include the API key,
// request bodies, response bodies or stream payloads, so they can be shipped
// to external systems without review.
type TelemetryHook interface {
	// OnRequestStart is called once per call before the first attempt.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called once per call after the final attempt. For streams
	// it fires when the connection has been established or has failed to.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent describes a call about to be issued.
type RequestStartEvent struct {
	CallID string    // Unique per call, shared with log lines and span attributes
	Method string    // HTTP method
	Path   string    // API path, e.g. /v1/messages
	Stream bool      // Whether the response is an event stream
	Start  time.Time // When the call started
}

// RequestEndEvent describes a finished call.
//
// Err holds a *Error whose Message may include server diagnostics, never
// request content.
type RequestEndEvent struct {
	CallID   string
	Method   string
	Path     string
	Stream   bool
	Start    time.Time
	End      time.Time
	Attempts int   // Number of HTTP attempts, at least 1
	Status   int   // Last HTTP status seen, 0 if none
	Err      error // Final error, nil on success
}

// Duration returns the elapsed time for the call.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook ignores all events. It is the default.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

var _ TelemetryHook = NoopTelemetryHook{}

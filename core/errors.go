package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the single error type surfaced by the transport and the stream decoder.
// Err is always one of the sentinel kinds below; Cause, when set, is the underlying
// failure (a net/http error, a json error, a context error).
type Error struct {
	Status    int
	RequestID string
	Type      string
	Message   string
	Err       error
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var details []string
	if e.Status != 0 {
		details = append(details, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Type != "" {
		details = append(details, "type="+e.Type)
	}
	if e.RequestID != "" {
		details = append(details, "request_id="+e.RequestID)
	}
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) kind() string {
	if e.Err == nil {
		return "anthropic"
	}
	return e.Err.Error()
}

// Unwrap exposes both the sentinel kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Error kinds.
var (
	// ErrNetwork means the request could not complete (DNS, TLS, reset, timeout).
	ErrNetwork = errors.New("network error")
	// ErrBadRequest is returned for HTTP 400.
	ErrBadRequest = errors.New("malformed request")
	// ErrUnauthorized is returned for HTTP 401.
	ErrUnauthorized = errors.New("unauthorized; check your API key")
	// ErrAPI is returned for rate limiting (429) and overload (529) once retries are exhausted.
	ErrAPI = errors.New("api error")
	// ErrDecode means a body or stream payload did not match the expected shape.
	ErrDecode = errors.New("failed to deserialize response")
	// ErrStream wraps a server-sent error event or a transport failure mid-stream.
	ErrStream = errors.New("stream failed")
	// ErrUnknownEventType means a stream frame used an event name outside the allowlist.
	ErrUnknownEventType = errors.New("unknown event type")
	// ErrUnknown is returned for any HTTP status without a dedicated kind.
	ErrUnknown = errors.New("unknown error")
)

// Validation errors with actionable guidance.
var (
	ErrModelRequired = errors.New("model required: set a model ID on the request, e.g. anthropic.NewRequest(\"claude-sonnet-4-5\")")
	ErrNoMessages    = errors.New("no messages: add at least one message using .User() or .Assistant()")
)

// IsRetryable reports whether err is a recoverable failure that the retry loop may repeat.
// Only rate limiting and overload qualify; network errors are terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAPI)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

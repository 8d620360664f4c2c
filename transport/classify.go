package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/petal-labs/anthropic/core"
)

// StatusOverloaded is the non-standard status the API returns when it is
// temporarily overloaded. It is retried like 429.
const StatusOverloaded = 529

// maxErrorBodySize caps how much of an error response is read.
const maxErrorBodySize int64 = 1 << 20

// errorEnvelope is the API's JSON error body:
// {"type":"error","error":{"type":"...","message":"..."}}
type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Outcome is the tri-state classification of an HTTP status.
type Outcome int

const (
	// OutcomeSuccess means the body holds the expected value.
	OutcomeSuccess Outcome = iota
	// OutcomeRecoverable means the attempt may be retried.
	OutcomeRecoverable
	// OutcomeTerminal means the call fails without retrying.
	OutcomeTerminal
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRecoverable:
		return "recoverable"
	default:
		return "terminal"
	}
}

// Classify maps an HTTP status to exactly one outcome and, for failures, the
// error kind it produces.
func Classify(status int) (Outcome, error) {
	switch status {
	case http.StatusOK:
		return OutcomeSuccess, nil
	case http.StatusBadRequest:
		return OutcomeTerminal, core.ErrBadRequest
	case http.StatusUnauthorized:
		return OutcomeTerminal, core.ErrUnauthorized
	case http.StatusTooManyRequests, StatusOverloaded:
		return OutcomeRecoverable, core.ErrAPI
	default:
		return OutcomeTerminal, core.ErrUnknown
	}
}

// classifyResponse converts a non-200 response into a *core.Error. The body
// text becomes the diagnostic message, except for 401 where it is not read.
func classifyResponse(resp *http.Response) error {
	_, kind := Classify(resp.StatusCode)

	e := &core.Error{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get(requestIDHeader),
		Err:       kind,
	}
	if kind == core.ErrUnauthorized {
		return e
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return newNetworkError(err)
	}
	text := strings.TrimSpace(string(body))
	e.Message = text

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error.Type != "" {
		e.Type = env.Error.Type
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

// newNetworkError wraps transport failures.
func newNetworkError(err error) error {
	return &core.Error{
		Message: err.Error(),
		Err:     core.ErrNetwork,
		Cause:   err,
	}
}

// newDecodeError wraps JSON decode failures.
func newDecodeError(err error, requestID string) error {
	return &core.Error{
		RequestID: requestID,
		Message:   err.Error(),
		Err:       core.ErrDecode,
		Cause:     err,
	}
}

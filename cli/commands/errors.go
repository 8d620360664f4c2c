package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/anthropic/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
	ExitAuth       = 4
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps an API error to the process exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, core.ErrModelRequired), errors.Is(err, core.ErrNoMessages), errors.Is(err, core.ErrBadRequest):
		return ExitValidation
	case errors.Is(err, core.ErrUnauthorized):
		return ExitAuth
	case errors.Is(err, core.ErrNetwork):
		return ExitNetwork
	default:
		return ExitAPI
	}
}

// handleError reports err on stderr and wraps it with its exit code.
func (a *App) handleError(err error) error {
	var apiErr *core.Error
	if errors.As(err, &apiErr) {
		if a.jsonOutput {
			msg := apiErr.Message
			if msg == "" {
				msg = err.Error()
			}
			a.writeErrorJSON(errorType(apiErr), msg, apiErr.Status, apiErr.RequestID)
		} else {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			if apiErr.RequestID != "" {
				fmt.Fprintf(a.stderr, "  Request ID: %s\n", apiErr.RequestID)
			}
		}
		return exitWithCode(exitCodeFor(err), err)
	}

	code := exitCodeFor(err)
	if a.jsonOutput {
		typ := "error"
		if code == ExitValidation {
			typ = "validation_error"
		}
		a.writeErrorJSON(typ, err.Error(), 0, "")
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return exitWithCode(code, err)
}

func errorType(e *core.Error) string {
	if e.Type != "" {
		return e.Type
	}
	switch {
	case errors.Is(e, core.ErrUnauthorized):
		return "authentication_error"
	case errors.Is(e, core.ErrNetwork):
		return "network_error"
	case errors.Is(e, core.ErrDecode):
		return "decode_error"
	case errors.Is(e, core.ErrStream):
		return "stream_error"
	default:
		return "api_error"
	}
}

func (a *App) writeErrorJSON(errType, message string, status int, requestID string) {
	body := map[string]any{
		"type":    errType,
		"message": message,
	}
	if status != 0 {
		body["status"] = status
	}
	if requestID != "" {
		body["request_id"] = requestID
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"error": body})
}

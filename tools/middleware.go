package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/core"
)

// Handler is the function signature for tool execution.
// Middleware wraps this function to add behavior.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Middleware wraps a Handler to add behavior before and/or after execution.
type Middleware func(next Handler) Handler

// CallInfo describes the tool call in progress.
type CallInfo struct {
	// Name is the name of the tool being called.
	Name string
	// ToolUseID is the id of the tool-use block, when the call came from one.
	ToolUseID string
}

type callInfoKey struct{}

// ContextWithCallInfo returns a context carrying info.
func ContextWithCallInfo(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

// CallInfoFromContext returns the CallInfo stored in ctx, if any.
func CallInfoFromContext(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(CallInfo)
	return info, ok
}

// Chain combines multiple middleware into one. The first middleware is outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Wrap returns a tool that runs middleware around t.Call.
func Wrap(t Tool, middlewares ...Middleware) Tool {
	if len(middlewares) == 0 {
		return t
	}
	return &wrappedTool{Tool: t, call: Chain(middlewares...)(t.Call)}
}

type wrappedTool struct {
	Tool
	call Handler
}

func (w *wrappedTool) Call(ctx context.Context, input json.RawMessage) (any, error) {
	if _, ok := CallInfoFromContext(ctx); !ok {
		ctx = ContextWithCallInfo(ctx, CallInfo{Name: w.Tool.Name()})
	}
	return w.call(ctx, input)
}

// WithTimeout bounds each tool execution to d.
func WithTimeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, input json.RawMessage) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			type result struct {
				value any
				err   error
			}
			ch := make(chan result, 1)

			go func() {
				v, err := next(ctx, input)
				ch <- result{v, err}
			}()

			select {
			case r := <-ch:
				return r.value, r.err
			case <-ctx.Done():
				return nil, fmt.Errorf("tool execution timeout after %v: %w", d, ctx.Err())
			}
		}
	}
}

// WithLogging logs the start and outcome of every tool call.
// Inputs are never logged.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, input json.RawMessage) (any, error) {
			info, _ := CallInfoFromContext(ctx)
			log := logger.With(zap.String("tool", info.Name), zap.String("tool_use_id", info.ToolUseID))

			log.Debug("tool call start", zap.Int("input_bytes", len(input)))
			start := time.Now()

			result, err := next(ctx, input)

			if err != nil {
				log.Warn("tool call failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
			} else {
				log.Debug("tool call succeeded", zap.Duration("duration", time.Since(start)))
			}
			return result, err
		}
	}
}

// ErrInvalidInput is returned by WithValidation for input that is not a JSON object.
var ErrInvalidInput = errors.New("tool input must be a JSON object")

// WithValidation rejects input that is not a JSON object before the tool runs.
func WithValidation() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, input json.RawMessage) (any, error) {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(input, &obj); err != nil || obj == nil {
				return nil, ErrInvalidInput
			}
			return next(ctx, input)
		}
	}
}

// WithRetry retries failed calls on the schedule of policy while retryable
// reports true. A nil retryable retries every error.
func WithRetry(policy core.BackoffPolicy, retryable func(error) bool) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, input json.RawMessage) (any, error) {
			var out any
			op := func() error {
				v, err := next(ctx, input)
				if err == nil {
					out = v
					return nil
				}
				if retryable != nil && !retryable(err) {
					return backoff.Permanent(err)
				}
				return err
			}

			if err := backoff.Retry(op, backoff.WithContext(policy.NewBackOff(), ctx)); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
}

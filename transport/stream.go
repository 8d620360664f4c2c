package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/core"
)

// Reserved event names.
const (
	// EventPing is a keep-alive frame; it is never surfaced.
	EventPing = "ping"
	// EventError carries a structured server error and ends the stream.
	EventError = "error"
)

// OpenStream POSTs body to path and returns the response as a stream of events
// of type T. Only connection establishment is retried. Frames named in
// eventTypes are decoded into T; ping frames are skipped; an error frame or any
// other event name ends the stream with an error.
//
// Setup failures are returned directly. Failures after the stream has started
// are delivered as the stream's terminal error.
func OpenStream[T any](ctx context.Context, t *Transport, path string, body any, eventTypes []string) (*core.EventStream[T], error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newDecodeError(err, "")
	}

	c := t.startCall(ctx, http.MethodPost, path, true)
	streamCtx, cancel := context.WithCancel(c.ctx)

	var resp *http.Response
	err = t.retry(streamCtx, c, func() error {
		r, err := t.attempt(streamCtx, c, payload)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	t.finishCall(c, err)
	if err != nil {
		cancel()
		c.span.End()
		return nil, err
	}

	allowed := make(map[string]struct{}, len(eventTypes))
	for _, name := range eventTypes {
		allowed[name] = struct{}{}
	}

	d := &decoder[T]{
		allowed:   allowed,
		requestID: c.requestID,
		logger:    c.logger,
		metrics:   t.cfg.Metrics,
		span:      c.span,
	}
	ch := make(chan core.StreamItem[T], t.cfg.StreamBuffer)
	done := make(chan struct{})

	c.logger.Debug("stream opened", zap.String("request_id", c.requestID))
	go d.run(streamCtx, resp.Body, ch, done)

	return core.NewEventStream(ctx, ch, cancel, done), nil
}

// decoder turns frames into typed events for one connection.
type decoder[T any] struct {
	allowed   map[string]struct{}
	requestID string
	logger    *zap.Logger
	metrics   *Metrics
	span      trace.Span

	events int
}

// run owns body. It stops at the end of the stream, after the first terminal
// error, or when ctx is cancelled, and always closes body, then ch, then done.
func (d *decoder[T]) run(ctx context.Context, body io.ReadCloser, ch chan<- core.StreamItem[T], done chan<- struct{}) {
	var terminal error

	d.metrics.streamOpened()
	defer close(done)
	defer close(ch)
	defer func() {
		body.Close()
		d.metrics.streamClosed(terminal)
		endStreamSpan(d.span, d.events, terminal)
		d.logger.Debug("stream closed", zap.Int("events", d.events), zap.Error(terminal))
	}()

	reader := NewFrameReader(body)
	for {
		frame, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			if ctx.Err() != nil {
				return
			}
			terminal = &core.Error{
				RequestID: d.requestID,
				Type:      "sse_error",
				Message:   err.Error(),
				Err:       core.ErrStream,
				Cause:     err,
			}
			d.send(ctx, ch, core.StreamItem[T]{Err: terminal})
			return
		}

		d.logger.Debug("stream frame", zap.String("event", frame.Event), zap.Int("bytes", len(frame.Data)))

		item, ok := d.decode(frame)
		if !ok {
			continue
		}
		if item.Err != nil {
			terminal = item.Err
		} else {
			d.events++
			d.metrics.observeStreamEvent(frame.Event)
		}
		if !d.send(ctx, ch, item) || terminal != nil {
			return
		}
	}
}

// send delivers item unless the consumer has gone away.
func (d *decoder[T]) send(ctx context.Context, ch chan<- core.StreamItem[T], item core.StreamItem[T]) bool {
	select {
	case ch <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

// decode maps one frame to a stream item. ok is false for frames that produce
// nothing.
func (d *decoder[T]) decode(f Frame) (item core.StreamItem[T], ok bool) {
	if f.Event == EventPing {
		return item, false
	}

	if f.Event == EventError {
		item.Err = parseStreamError([]byte(f.Data), d.requestID)
		return item, true
	}

	if _, allowed := d.allowed[f.Event]; allowed {
		if err := json.Unmarshal([]byte(f.Data), &item.Event); err != nil {
			item.Err = newDecodeError(err, d.requestID)
		}
		return item, true
	}

	d.logger.Warn("unknown stream event", zap.String("event", f.Event))
	item.Err = &core.Error{
		RequestID: d.requestID,
		Type:      "unknown_event_type",
		Message:   fmt.Sprintf("unknown event type: %s", f.Event),
		Err:       core.ErrUnknownEventType,
	}
	return item, true
}

// streamErrorBody accepts both the bare {type, message} shape and the API's
// {"type":"error","error":{type, message}} envelope.
type streamErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseStreamError converts an error frame into a terminal stream error, or a
// decode error when the payload is not a structured error.
func parseStreamError(data []byte, requestID string) error {
	var body streamErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return newDecodeError(err, requestID)
	}

	errType, message := body.Type, body.Message
	if body.Error != nil && body.Error.Message != "" {
		errType, message = body.Error.Type, body.Error.Message
	}
	if message == "" {
		return newDecodeError(errors.New("error event without message"), requestID)
	}

	return &core.Error{
		RequestID: requestID,
		Type:      errType,
		Message:   message,
		Err:       core.ErrStream,
	}
}

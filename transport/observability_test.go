package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/anthropic/core"
)

func TestMetrics(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "text/event-stream" {
			startEventStream(w)
			writeEvent(t, w, "content_block_delta", deltaJSON(0))
			writeEvent(t, w, "content_block_delta", deltaJSON(1))
			writeEvent(t, w, "message_stop", `{"type":"message_stop"}`)
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	tr := newTestTransport(t, server.URL, &sleepRecorder{}, WithMetrics(m))

	if err := tr.Send(context.Background(), "/v1/messages", struct{}{}, nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, err := openTestStream(t, tr).Collect(); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/v1/messages", "success")); got != 2 {
		t.Errorf("requests{success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("POST", "/v1/messages")); got != 3 {
		t.Errorf("attempts = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.retries.WithLabelValues("POST", "/v1/messages")); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.streamEvents.WithLabelValues("content_block_delta")); got != 2 {
		t.Errorf("stream events{content_block_delta} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.streamEvents.WithLabelValues("message_stop")); got != 1 {
		t.Errorf("stream events{message_stop} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.streamsActive); got != 0 {
		t.Errorf("active streams = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.streamsEnded.WithLabelValues("success")); got != 1 {
		t.Errorf("streams ended{success} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.latency); got != 1 {
		t.Errorf("latency series = %d, want 1", got)
	}
}

func TestMetricsStreamUnknownEventType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startEventStream(w)
		writeEvent(t, w, "content_block_delta", deltaJSON(0))
		writeEvent(t, w, "content_block_shuffle", `{"type":"content_block_shuffle"}`)
	}))
	defer server.Close()

	m := NewMetrics(prometheus.NewRegistry())
	stream := openTestStream(t, newTestTransport(t, server.URL, nil, WithMetrics(m)))
	if _, err := stream.Collect(); !errors.Is(err, core.ErrUnknownEventType) {
		t.Fatalf("Collect() error = %v, want ErrUnknownEventType", err)
	}
	<-stream.Done()

	if got := testutil.ToFloat64(m.streamsEnded.WithLabelValues("unknown_event_type")); got != 1 {
		t.Errorf("streams ended{unknown_event_type} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.streamsActive); got != 0 {
		t.Errorf("active streams = %v, want 0", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	c := &call{method: "POST", path: "/v1/messages"}

	m.observeRequest(c, nil, time.Second)
	m.observeAttempt(c)
	m.observeRetry(c)
	m.observeStreamEvent("message_stop")
	m.streamOpened()
	m.streamClosed(nil)
}

func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&core.Error{Err: core.ErrBadRequest}, "bad_request"},
		{&core.Error{Err: core.ErrUnauthorized}, "unauthorized"},
		{&core.Error{Err: core.ErrAPI}, "api_error"},
		{&core.Error{Err: core.ErrDecode}, "decode_error"},
		{&core.Error{Err: core.ErrStream}, "stream_error"},
		{&core.Error{Err: core.ErrNetwork}, "network_error"},
		{&core.Error{Err: core.ErrUnknownEventType}, "unknown_event_type"},
		{&core.Error{Err: core.ErrUnknown}, "unknown"},
	}

	for _, tt := range tests {
		if got := outcomeLabel(tt.err); got != tt.want {
			t.Errorf("outcomeLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingSpans(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/stream":
			startEventStream(w)
			writeEvent(t, w, "content_block_delta", deltaJSON(0))
		case "/v1/fail":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("nope"))
		default:
			w.Header().Set("request-id", "req_span")
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	tr := newTestTransport(t, server.URL, nil, WithTracerProvider(tp))
	ctx := context.Background()

	if err := tr.Send(ctx, "/v1/messages", struct{}{}, nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := tr.Send(ctx, "/v1/fail", struct{}{}, nil); err == nil {
		t.Fatal("Send(/v1/fail) should fail")
	}
	stream, err := OpenStream[testEvent](ctx, tr, "/v1/stream", struct{}{}, testEventTypes)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	if _, err := stream.Collect(); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("ended spans = %d, want 3", len(spans))
	}

	ok := spans[0]
	if ok.Name() != "anthropic.request" {
		t.Errorf("span[0] name = %q, want anthropic.request", ok.Name())
	}
	if v, found := spanAttr(ok, "anthropic.request_id"); !found || v.AsString() != "req_span" {
		t.Errorf("anthropic.request_id = %v, want req_span", v.AsString())
	}
	if v, found := spanAttr(ok, "anthropic.attempts"); !found || v.AsInt64() != 1 {
		t.Errorf("anthropic.attempts = %v, want 1", v.AsInt64())
	}

	failed := spans[1]
	if failed.Status().Code != codes.Error {
		t.Errorf("failed span status = %v, want Error", failed.Status().Code)
	}

	streamed := spans[2]
	if streamed.Name() != "anthropic.stream" {
		t.Errorf("span[2] name = %q, want anthropic.stream", streamed.Name())
	}
	if v, found := spanAttr(streamed, "anthropic.stream.events"); !found || v.AsInt64() != 1 {
		t.Errorf("anthropic.stream.events = %v, want 1", v.AsInt64())
	}
}

func TestConcurrentCallsIsolated(t *testing.T) {
	const workers = 8

	var mu sync.Mutex
	seen := make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path]++
		n := seen[r.URL.Path]
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"id":%q}`, r.URL.Path)
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	tr := newTestTransport(t, server.URL, rec)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		path := fmt.Sprintf("/v1/worker/%d", i)
		g.Go(func() error {
			var out echoResponse
			if err := tr.Send(context.Background(), path, struct{}{}, &out); err != nil {
				return err
			}
			if out.ID != path {
				return fmt.Errorf("ID = %q, want %q", out.ID, path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Send() error = %v", err)
	}

	// Each call starts from the initial interval; shared state would double it.
	sleeps := rec.durations()
	if len(sleeps) != workers {
		t.Fatalf("sleeps = %d, want %d", len(sleeps), workers)
	}
	for i, d := range sleeps {
		if d != time.Millisecond {
			t.Errorf("sleep[%d] = %v, want 1ms", i, d)
		}
	}
}

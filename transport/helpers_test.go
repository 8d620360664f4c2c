package transport

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-contrib/sse"

	"github.com/petal-labs/anthropic/core"
)

// sleepRecorder hands out timers that fire immediately and remembers the
// durations they were started with.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) newTimer() backoff.Timer {
	return &instantTimer{rec: r, c: make(chan time.Time, 1)}
}

func (r *sleepRecorder) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.sleeps))
	copy(out, r.sleeps)
	return out
}

type instantTimer struct {
	rec *sleepRecorder
	c   chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.rec.mu.Lock()
	t.rec.sleeps = append(t.rec.sleeps, d)
	t.rec.mu.Unlock()
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}

// fastPolicy retries without jitter so sleep durations are predictable.
func fastPolicy(initial, maxElapsed time.Duration) core.BackoffPolicy {
	return core.BackoffPolicy{
		InitialInterval:     initial,
		Multiplier:          2.0,
		RandomizationFactor: 0,
		MaxElapsedTime:      maxElapsed,
	}
}

func newTestTransport(t *testing.T, baseURL string, rec *sleepRecorder, opts ...Option) *Transport {
	t.Helper()
	base := []Option{
		WithBaseURL(baseURL),
		WithBackoff(fastPolicy(time.Millisecond, time.Second)),
	}
	if rec != nil {
		base = append(base, WithTimer(rec.newTimer))
	}
	return New("test-key", append(base, opts...)...)
}

// writeEvent writes one SSE frame and flushes it to the client.
func writeEvent(t *testing.T, w http.ResponseWriter, event, data string) {
	t.Helper()
	if err := sse.Encode(w, sse.Event{Event: event, Data: data}); err != nil {
		t.Errorf("sse.Encode: %v", err)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func startEventStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("request-id", "req_stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

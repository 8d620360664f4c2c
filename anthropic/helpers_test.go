package anthropic

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-contrib/sse"

	"github.com/petal-labs/anthropic/core"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithBaseURL(baseURL),
		WithBackoff(core.BackoffPolicy{
			InitialInterval: time.Millisecond,
			Multiplier:      2.0,
			MaxElapsedTime:  time.Second,
		}),
	}
	return New("test-key", append(base, opts...)...)
}

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
}

// toolUseStream is a complete reply with one text block and one tool call
// whose input arrives in two fragments.
var toolUseStream = []struct{ event, data string }{
	{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5","content":[],"usage":{"input_tokens":10,"output_tokens":1}}}`},
	{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
	{"ping", `{"type":"ping"}`},
	{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":", world"}}`},
	{"content_block_stop", `{"type":"content_block_stop","index":0}`},
	{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{}}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"location\":"}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":" \"Paris\"}"}}`},
	{"content_block_stop", `{"type":"content_block_stop","index":1}`},
	{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":25}}`},
	{"message_stop", `{"type":"message_stop"}`},
}

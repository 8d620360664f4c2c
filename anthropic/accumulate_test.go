package anthropic

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/petal-labs/anthropic/internal/toolcalls"
)

func feed(t *testing.T, acc *MessageAccumulator, events ...StreamEvent) {
	t.Helper()
	for _, ev := range events {
		if err := acc.Add(MessageStreamEvent{StreamEvent: ev}); err != nil {
			t.Fatalf("Add(%s) error = %v", ev.EventType(), err)
		}
	}
}

func TestAccumulatorText(t *testing.T) {
	acc := NewMessageAccumulator()
	feed(t, acc,
		MessageStartEvent{Message: CreateMessagesResponse{ID: "msg_1", Role: RoleAssistant, Usage: &Usage{InputTokens: 7}}},
		ContentBlockStartEvent{Index: 0, ContentBlock: Text("")},
		ContentBlockDeltaEvent{Index: 0, Delta: TextDelta{Text: "Hel"}},
	)
	if got := acc.Text(); got != "Hel" {
		t.Errorf("Text() = %q, want Hel", got)
	}
	if acc.Done() {
		t.Error("Done() = true before message_stop")
	}

	feed(t, acc,
		ContentBlockDeltaEvent{Index: 0, Delta: TextDelta{Text: "lo"}},
		ContentBlockStopEvent{Index: 0},
		MessageDeltaEvent{Delta: MessageDelta{StopReason: StopReasonEndTurn}, Usage: &Usage{OutputTokens: 3}},
		MessageStopEvent{},
	)
	if !acc.Done() {
		t.Error("Done() = false after message_stop")
	}

	msg, err := acc.Message()
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	if msg.ID != "msg_1" || msg.Text() != "Hello" || msg.StopReason != StopReasonEndTurn {
		t.Errorf("Message() = %+v", msg)
	}
	if msg.Usage.InputTokens != 7 || msg.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v, want input 7 output 3", msg.Usage)
	}
}

func TestAccumulatorOrdersBlocksByIndex(t *testing.T) {
	acc := NewMessageAccumulator()
	feed(t, acc,
		ContentBlockStartEvent{Index: 1, ContentBlock: Text("b")},
		ContentBlockStartEvent{Index: 0, ContentBlock: Text("a")},
	)
	msg, err := acc.Message()
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	if got := msg.Text(); got != "ab" {
		t.Errorf("Text() = %q, want ab", got)
	}
}

func TestAccumulatorToolInput(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		want      string
	}{
		{"no fragments", nil, `{}`},
		{"single", []string{`{"location":"Paris"}`}, `{"location":"Paris"}`},
		{"split", []string{`{"loc`, `ation":`, ` "Paris"}`}, `{"location": "Paris"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewMessageAccumulator()
			feed(t, acc, ContentBlockStartEvent{Index: 0, ContentBlock: ToolUseBlock{ID: "toolu_1", Name: "get_weather", Input: json.RawMessage(`{}`)}})
			for _, f := range tt.fragments {
				feed(t, acc, ContentBlockDeltaEvent{Index: 0, Delta: InputJSONDelta{PartialJSON: f}})
			}
			feed(t, acc, ContentBlockStopEvent{Index: 0})

			msg, err := acc.Message()
			if err != nil {
				t.Fatalf("Message() error = %v", err)
			}
			uses := msg.ToolUses()
			if len(uses) != 1 {
				t.Fatalf("len(ToolUses()) = %d, want 1", len(uses))
			}
			if string(uses[0].Input) != tt.want {
				t.Errorf("Input = %s, want %s", uses[0].Input, tt.want)
			}
		})
	}
}

func TestAccumulatorRepairsTruncatedInput(t *testing.T) {
	acc := NewMessageAccumulator()
	feed(t, acc,
		ContentBlockStartEvent{Index: 0, ContentBlock: ToolUseBlock{ID: "toolu_1", Name: "get_weather"}},
		ContentBlockDeltaEvent{Index: 0, Delta: InputJSONDelta{PartialJSON: `{"location": "Paris", "unit": "celsius"`}},
	)

	msg, err := acc.Message()
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	var in struct {
		Location string `json:"location"`
		Unit     string `json:"unit"`
	}
	if err := json.Unmarshal(msg.ToolUses()[0].Input, &in); err != nil {
		t.Fatalf("repaired input is invalid: %v", err)
	}
	if in.Location != "Paris" || in.Unit != "celsius" {
		t.Errorf("repaired input = %+v", in)
	}
}

func TestAccumulatorRejectsOrphanDeltas(t *testing.T) {
	tests := []struct {
		name string
		ev   StreamEvent
	}{
		{"text delta", ContentBlockDeltaEvent{Index: 4, Delta: TextDelta{Text: "x"}}},
		{"input delta", ContentBlockDeltaEvent{Index: 4, Delta: InputJSONDelta{PartialJSON: "{"}}},
		{"stop", ContentBlockStopEvent{Index: 4}},
		{"start without block", ContentBlockStartEvent{Index: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewMessageAccumulator()
			if err := acc.Add(MessageStreamEvent{StreamEvent: tt.ev}); err == nil {
				t.Error("Add() error = nil, want error")
			}
		})
	}
}

func TestAccumulatorUnrepairableInput(t *testing.T) {
	acc := &MessageAccumulator{
		blocks: make(map[int]ContentBlock),
		text:   nil,
		tools:  toolcalls.NewAssembler(toolcalls.Config{EmptyInputJSON: "{}"}),
	}
	feed(t, acc,
		ContentBlockStartEvent{Index: 0, ContentBlock: ToolUseBlock{ID: "toolu_1", Name: "get_weather"}},
		ContentBlockDeltaEvent{Index: 0, Delta: InputJSONDelta{PartialJSON: `{"location":`}},
	)

	if _, err := acc.Message(); !errors.Is(err, toolcalls.ErrInvalidJSON) {
		t.Errorf("Message() error = %v, want ErrInvalidJSON", err)
	}
}

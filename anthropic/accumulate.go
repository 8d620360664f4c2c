package anthropic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petal-labs/anthropic/internal/toolcalls"
)

// MessageAccumulator folds stream events into the complete reply that the
// non-streaming call would have returned.
//
//	acc := anthropic.NewMessageAccumulator()
//	for ev, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    acc.Add(ev)
//	}
//	resp, err := acc.Message()
type MessageAccumulator struct {
	msg     CreateMessagesResponse
	started bool
	stopped bool

	blocks map[int]ContentBlock
	text   map[int]*strings.Builder
	tools  *toolcalls.Assembler
}

// NewMessageAccumulator returns an empty accumulator.
func NewMessageAccumulator() *MessageAccumulator {
	return &MessageAccumulator{
		blocks: make(map[int]ContentBlock),
		text:   make(map[int]*strings.Builder),
		tools:  toolcalls.NewAssembler(toolcalls.Config{EmptyInputJSON: "{}", Repair: true}),
	}
}

// Add applies one event. Deltas for a block that was never started are
// rejected.
func (a *MessageAccumulator) Add(ev MessageStreamEvent) error {
	switch e := ev.StreamEvent.(type) {
	case MessageStartEvent:
		a.msg = e.Message
		a.msg.Content = nil
		if e.Message.Usage != nil {
			u := *e.Message.Usage
			a.msg.Usage = &u
		}
		a.started = true

	case ContentBlockStartEvent:
		switch block := e.ContentBlock.(type) {
		case TextBlock:
			sb := &strings.Builder{}
			sb.WriteString(block.Text)
			a.text[e.Index] = sb
			a.blocks[e.Index] = block
		case ToolUseBlock:
			a.tools.StartCall(e.Index, block.ID, block.Name)
			if input := strings.TrimSpace(string(block.Input)); input != "" && input != "{}" {
				a.tools.AddInput(e.Index, input)
			}
			a.blocks[e.Index] = block
		case nil:
			return fmt.Errorf("content block %d: missing block", e.Index)
		default:
			a.blocks[e.Index] = block
		}

	case ContentBlockDeltaEvent:
		switch d := e.Delta.(type) {
		case TextDelta:
			sb, ok := a.text[e.Index]
			if !ok {
				return fmt.Errorf("text delta for unknown content block %d", e.Index)
			}
			sb.WriteString(d.Text)
		case InputJSONDelta:
			if !a.tools.Has(e.Index) {
				return fmt.Errorf("input delta for unknown content block %d", e.Index)
			}
			a.tools.AddInput(e.Index, d.PartialJSON)
		}

	case ContentBlockStopEvent:
		if _, ok := a.blocks[e.Index]; !ok {
			return fmt.Errorf("stop for unknown content block %d", e.Index)
		}

	case MessageDeltaEvent:
		if e.Delta.StopReason != "" {
			a.msg.StopReason = e.Delta.StopReason
		}
		if e.Delta.StopSequence != "" {
			a.msg.StopSequence = e.Delta.StopSequence
		}
		if e.Usage != nil {
			if a.msg.Usage == nil {
				a.msg.Usage = &Usage{}
			}
			a.msg.Usage.OutputTokens = e.Usage.OutputTokens
			if e.Usage.InputTokens > 0 {
				a.msg.Usage.InputTokens = e.Usage.InputTokens
			}
		}

	case MessageStopEvent:
		a.stopped = true
	}
	return nil
}

// Done reports whether message_stop has been seen.
func (a *MessageAccumulator) Done() bool {
	return a.stopped
}

// Text returns the text accumulated so far across all text blocks.
func (a *MessageAccumulator) Text() string {
	var sb strings.Builder
	for _, idx := range a.indices() {
		if t, ok := a.text[idx]; ok {
			sb.WriteString(t.String())
		}
	}
	return sb.String()
}

// Message assembles the reply from the events seen so far. Tool inputs that
// were cut off mid-stream are repaired when possible.
func (a *MessageAccumulator) Message() (*CreateMessagesResponse, error) {
	out := a.msg
	if !a.started && out.Type == "" {
		out.Type = "message"
		out.Role = RoleAssistant
	}

	content := make(Content, 0, len(a.blocks))
	for _, idx := range a.indices() {
		switch block := a.blocks[idx].(type) {
		case TextBlock:
			content = append(content, TextBlock{Text: a.text[idx].String()})
		case ToolUseBlock:
			call, err := a.tools.Finish(idx)
			if err != nil {
				return nil, err
			}
			content = append(content, ToolUseBlock{ID: call.ID, Name: call.Name, Input: call.Input})
		default:
			content = append(content, block)
		}
	}
	out.Content = content
	return &out, nil
}

func (a *MessageAccumulator) indices() []int {
	idx := make([]int, 0, len(a.blocks))
	for i := range a.blocks {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Accumulate drains stream into a complete reply and closes it.
func Accumulate(stream *MessageStream) (*CreateMessagesResponse, error) {
	acc := NewMessageAccumulator()
	for ev, err := range stream.All() {
		if err != nil {
			return nil, err
		}
		if err := acc.Add(ev); err != nil {
			return nil, err
		}
	}
	return acc.Message()
}

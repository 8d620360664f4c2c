package anthropic

import (
	"encoding/json"
	"fmt"
)

// Stream event type tags. They double as SSE event names.
const (
	EventMessageStart      = "message_start"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
)

// StreamEventTypes is the allowlist of event names decoded from a message
// stream. Any other name except ping and error ends the stream.
var StreamEventTypes = []string{
	EventMessageStart,
	EventMessageDelta,
	EventMessageStop,
	EventContentBlockStart,
	EventContentBlockDelta,
	EventContentBlockStop,
}

// StreamEvent is implemented by the six message stream event variants.
type StreamEvent interface {
	// EventType returns the type tag of the event.
	EventType() string

	isStreamEvent()
}

// MessageStreamEvent is one decoded event of a message stream. The embedded
// StreamEvent holds exactly one variant:
//
//	switch ev := e.StreamEvent.(type) {
//	case anthropic.ContentBlockDeltaEvent:
//	    ...
//	}
type MessageStreamEvent struct {
	StreamEvent
}

// UnmarshalJSON dispatches on the type tag.
func (e *MessageStreamEvent) UnmarshalJSON(data []byte) error {
	var tag typeTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	var (
		ev  StreamEvent
		err error
	)
	switch tag.Type {
	case EventMessageStart:
		var v MessageStartEvent
		err = json.Unmarshal(data, &v)
		ev = v
	case EventMessageDelta:
		var v MessageDeltaEvent
		err = json.Unmarshal(data, &v)
		ev = v
	case EventMessageStop:
		ev = MessageStopEvent{}
	case EventContentBlockStart:
		var v ContentBlockStartEvent
		err = json.Unmarshal(data, &v)
		ev = v
	case EventContentBlockDelta:
		var v ContentBlockDeltaEvent
		err = json.Unmarshal(data, &v)
		ev = v
	case EventContentBlockStop:
		var v ContentBlockStopEvent
		err = json.Unmarshal(data, &v)
		ev = v
	default:
		return fmt.Errorf("unknown stream event type %q", tag.Type)
	}
	if err != nil {
		return err
	}
	e.StreamEvent = ev
	return nil
}

// MarshalJSON encodes the held variant with its type tag.
func (e MessageStreamEvent) MarshalJSON() ([]byte, error) {
	if e.StreamEvent == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.StreamEvent)
}

// MessageStartEvent opens the stream with an empty message shell.
type MessageStartEvent struct {
	Message CreateMessagesResponse `json:"message"`
}

func (MessageStartEvent) EventType() string { return EventMessageStart }
func (MessageStartEvent) isStreamEvent()    {}

func (e MessageStartEvent) MarshalJSON() ([]byte, error) {
	type alias MessageStartEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{EventMessageStart, alias(e)})
}

// MessageDelta carries top-level message changes.
type MessageDelta struct {
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}

// MessageDeltaEvent reports the stop reason and cumulative output usage.
type MessageDeltaEvent struct {
	Delta MessageDelta `json:"delta"`
	Usage *Usage       `json:"usage,omitempty"`
}

func (MessageDeltaEvent) EventType() string { return EventMessageDelta }
func (MessageDeltaEvent) isStreamEvent()    {}

func (e MessageDeltaEvent) MarshalJSON() ([]byte, error) {
	type alias MessageDeltaEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{EventMessageDelta, alias(e)})
}

// MessageStopEvent ends the message.
type MessageStopEvent struct{}

func (MessageStopEvent) EventType() string { return EventMessageStop }
func (MessageStopEvent) isStreamEvent()    {}

func (MessageStopEvent) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"message_stop"}`), nil
}

// ContentBlockStartEvent opens the content block at Index.
type ContentBlockStartEvent struct {
	Index        int
	ContentBlock ContentBlock
}

func (ContentBlockStartEvent) EventType() string { return EventContentBlockStart }
func (ContentBlockStartEvent) isStreamEvent()    {}

func (e *ContentBlockStartEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index        int             `json:"index"`
		ContentBlock json.RawMessage `json:"content_block"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	block, err := decodeContentBlock(raw.ContentBlock)
	if err != nil {
		return fmt.Errorf("content_block: %w", err)
	}
	e.Index = raw.Index
	e.ContentBlock = block
	return nil
}

func (e ContentBlockStartEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string       `json:"type"`
		Index        int          `json:"index"`
		ContentBlock ContentBlock `json:"content_block"`
	}{EventContentBlockStart, e.Index, e.ContentBlock})
}

// ContentBlockDeltaEvent extends the content block at Index.
type ContentBlockDeltaEvent struct {
	Index int
	Delta Delta
}

func (ContentBlockDeltaEvent) EventType() string { return EventContentBlockDelta }
func (ContentBlockDeltaEvent) isStreamEvent()    {}

func (e *ContentBlockDeltaEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index int             `json:"index"`
		Delta json.RawMessage `json:"delta"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delta, err := decodeDelta(raw.Delta)
	if err != nil {
		return fmt.Errorf("delta: %w", err)
	}
	e.Index = raw.Index
	e.Delta = delta
	return nil
}

func (e ContentBlockDeltaEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Index int    `json:"index"`
		Delta Delta  `json:"delta"`
	}{EventContentBlockDelta, e.Index, e.Delta})
}

// ContentBlockStopEvent closes the content block at Index.
type ContentBlockStopEvent struct {
	Index int `json:"index"`
}

func (ContentBlockStopEvent) EventType() string { return EventContentBlockStop }
func (ContentBlockStopEvent) isStreamEvent()    {}

func (e ContentBlockStopEvent) MarshalJSON() ([]byte, error) {
	type alias ContentBlockStopEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{EventContentBlockStop, alias(e)})
}

// Delta type tags.
const (
	DeltaTypeText      = "text_delta"
	DeltaTypeInputJSON = "input_json_delta"
)

// Delta is an incremental content change: TextDelta or InputJSONDelta.
type Delta interface {
	// DeltaType returns the type tag of the delta.
	DeltaType() string

	isDelta()
}

// TextDelta appends text to a text block.
type TextDelta struct {
	Text string `json:"text"`
}

func (TextDelta) DeltaType() string { return DeltaTypeText }
func (TextDelta) isDelta()          {}

func (d TextDelta) MarshalJSON() ([]byte, error) {
	type alias TextDelta
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{DeltaTypeText, alias(d)})
}

// InputJSONDelta appends a fragment of a tool-use block's JSON input.
// Fragments are not valid JSON on their own.
type InputJSONDelta struct {
	PartialJSON string `json:"partial_json"`
}

func (InputJSONDelta) DeltaType() string { return DeltaTypeInputJSON }
func (InputJSONDelta) isDelta()          {}

func (d InputJSONDelta) MarshalJSON() ([]byte, error) {
	type alias InputJSONDelta
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{DeltaTypeInputJSON, alias(d)})
}

func decodeDelta(data []byte) (Delta, error) {
	var tag typeTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}

	switch tag.Type {
	case DeltaTypeText:
		var d TextDelta
		err := json.Unmarshal(data, &d)
		return d, err
	case DeltaTypeInputJSON:
		var d InputJSONDelta
		err := json.Unmarshal(data, &d)
		return d, err
	default:
		return nil, fmt.Errorf("unknown delta type %q", tag.Type)
	}
}

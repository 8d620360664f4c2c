package anthropic

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content block type tags.
const (
	ContentTypeText       = "text"
	ContentTypeToolUse    = "tool_use"
	ContentTypeToolResult = "tool_result"
)

// ContentBlock is one element of message content. It is a closed set:
// TextBlock, ToolUseBlock and ToolResultBlock.
type ContentBlock interface {
	// ContentType returns the type tag for this block.
	ContentType() string

	isContentBlock()
}

// TextBlock is plain text content.
type TextBlock struct {
	Text string `json:"text"`
}

// ContentType returns "text".
func (TextBlock) ContentType() string { return ContentTypeText }

func (TextBlock) isContentBlock() {}

// MarshalJSON adds the type tag.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	type alias TextBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{ContentTypeText, alias(b)})
}

// ToolUseBlock is a request from the model to call a tool.
type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ContentType returns "tool_use".
func (ToolUseBlock) ContentType() string { return ContentTypeToolUse }

func (ToolUseBlock) isContentBlock() {}

// MarshalJSON adds the type tag. A nil input is sent as an empty object.
func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	type alias ToolUseBlock
	if len(b.Input) == 0 {
		b.Input = json.RawMessage("{}")
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{ContentTypeToolUse, alias(b)})
}

// ToolResultBlock carries the output of a tool call back to the model.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ContentType returns "tool_result".
func (ToolResultBlock) ContentType() string { return ContentTypeToolResult }

func (ToolResultBlock) isContentBlock() {}

// MarshalJSON adds the type tag.
func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	type alias ToolResultBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{ContentTypeToolResult, alias(b)})
}

// typeTag reads only the discriminator of a tagged object.
type typeTag struct {
	Type string `json:"type"`
}

// decodeContentBlock dispatches on the type tag.
func decodeContentBlock(data []byte) (ContentBlock, error) {
	var tag typeTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}

	switch tag.Type {
	case ContentTypeText:
		var b TextBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case ContentTypeToolUse:
		var b ToolUseBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case ContentTypeToolResult:
		var b ToolResultBlock
		err := json.Unmarshal(data, &b)
		return b, err
	default:
		return nil, fmt.Errorf("unknown content block type %q", tag.Type)
	}
}

// Content is a list of content blocks. On input it also accepts a bare JSON
// string, which becomes a single TextBlock.
type Content []ContentBlock

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = Content{TextBlock{Text: text}}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Content, 0, len(raw))
	for i, r := range raw {
		block, err := decodeContentBlock(r)
		if err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
		out = append(out, block)
	}
	*c = out
	return nil
}

// Text concatenates all text blocks.
func (c Content) Text() string {
	var buf bytes.Buffer
	for _, block := range c {
		if t, ok := block.(TextBlock); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}

// ToolUses returns the tool-use blocks in order.
func (c Content) ToolUses() []ToolUseBlock {
	var out []ToolUseBlock
	for _, block := range c {
		if tu, ok := block.(ToolUseBlock); ok {
			out = append(out, tu)
		}
	}
	return out
}

// Text returns a text block.
func Text(s string) TextBlock {
	return TextBlock{Text: s}
}

// ToolResult returns a tool result block for the given tool-use ID.
func ToolResult(toolUseID, content string, isError bool) ToolResultBlock {
	return ToolResultBlock{ToolUseID: toolUseID, Content: content, IsError: isError}
}

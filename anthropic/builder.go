package anthropic

import "github.com/petal-labs/anthropic/core"

// RequestBuilder provides a fluent API for building message requests.
// RequestBuilder is NOT thread-safe and should not be shared across goroutines.
type RequestBuilder struct {
	req CreateMessagesRequest
}

// NewRequest starts a request for model.
func NewRequest(model string) *RequestBuilder {
	return &RequestBuilder{
		req: CreateMessagesRequest{
			Model:     model,
			MaxTokens: DefaultMaxTokens,
		},
	}
}

// System sets the system prompt.
func (b *RequestBuilder) System(s string) *RequestBuilder {
	b.req.System = s
	return b
}

// User appends a user text message.
func (b *RequestBuilder) User(s string) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, UserMessage(Text(s)))
	return b
}

// Assistant appends an assistant text message.
func (b *RequestBuilder) Assistant(s string) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, AssistantMessage(Text(s)))
	return b
}

// Message appends a prepared message.
func (b *RequestBuilder) Message(m Message) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, m)
	return b
}

// Continue appends a previous reply as an assistant turn, so tool results
// can follow it.
func (b *RequestBuilder) Continue(resp *CreateMessagesResponse) *RequestBuilder {
	if resp == nil {
		return b
	}
	b.req.Messages = append(b.req.Messages, Message{Role: RoleAssistant, Content: resp.Content})
	return b
}

// MaxTokens sets the maximum number of tokens to generate.
func (b *RequestBuilder) MaxTokens(n int) *RequestBuilder {
	b.req.MaxTokens = n
	return b
}

// Temperature sets the sampling temperature.
func (b *RequestBuilder) Temperature(v float64) *RequestBuilder {
	b.req.Temperature = &v
	return b
}

// TopK sets top-k sampling.
func (b *RequestBuilder) TopK(k int) *RequestBuilder {
	b.req.TopK = &k
	return b
}

// TopP sets nucleus sampling.
func (b *RequestBuilder) TopP(p float64) *RequestBuilder {
	b.req.TopP = &p
	return b
}

// StopSequences sets custom stop sequences.
func (b *RequestBuilder) StopSequences(seqs ...string) *RequestBuilder {
	b.req.StopSequences = seqs
	return b
}

// Metadata sets a metadata entry, e.g. "user_id".
func (b *RequestBuilder) Metadata(key string, value any) *RequestBuilder {
	if b.req.Metadata == nil {
		b.req.Metadata = make(map[string]any)
	}
	b.req.Metadata[key] = value
	return b
}

// Tools appends tool definitions.
func (b *RequestBuilder) Tools(defs ...map[string]any) *RequestBuilder {
	b.req.Tools = append(b.req.Tools, defs...)
	return b
}

// ToolChoice sets how the model uses the tools.
func (b *RequestBuilder) ToolChoice(tc *ToolChoice) *RequestBuilder {
	b.req.ToolChoice = tc
	return b
}

// validate checks that the request is valid.
func (b *RequestBuilder) validate() error {
	if b.req.Model == "" {
		return core.ErrModelRequired
	}
	if len(b.req.Messages) == 0 {
		return core.ErrNoMessages
	}
	for _, msg := range b.req.Messages {
		if len(msg.Content) == 0 {
			return core.ErrNoMessages
		}
	}
	return nil
}

// Build validates and returns the request. The builder may be reused; the
// returned request shares no slices with it.
func (b *RequestBuilder) Build() (*CreateMessagesRequest, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	req := b.req
	req.Messages = append([]Message(nil), b.req.Messages...)
	req.Tools = append([]map[string]any(nil), b.req.Tools...)
	req.StopSequences = append([]string(nil), b.req.StopSequences...)
	if b.req.Metadata != nil {
		req.Metadata = make(map[string]any, len(b.req.Metadata))
		for k, v := range b.req.Metadata {
			req.Metadata[k] = v
		}
	}
	return &req, nil
}

// MessageBuilder builds a message from several content blocks.
type MessageBuilder struct {
	parent *RequestBuilder
	role   Role
	blocks Content
}

// UserBlocks starts building a multi-block user message.
func (b *RequestBuilder) UserBlocks() *MessageBuilder {
	return &MessageBuilder{parent: b, role: RoleUser}
}

// AssistantBlocks starts building a multi-block assistant message.
func (b *RequestBuilder) AssistantBlocks() *MessageBuilder {
	return &MessageBuilder{parent: b, role: RoleAssistant}
}

// Text adds a text block.
func (m *MessageBuilder) Text(s string) *MessageBuilder {
	m.blocks = append(m.blocks, Text(s))
	return m
}

// ToolUse adds a tool-use block.
func (m *MessageBuilder) ToolUse(block ToolUseBlock) *MessageBuilder {
	m.blocks = append(m.blocks, block)
	return m
}

// ToolResult adds a tool result block.
func (m *MessageBuilder) ToolResult(toolUseID, content string) *MessageBuilder {
	m.blocks = append(m.blocks, ToolResult(toolUseID, content, false))
	return m
}

// ToolError adds a tool result block flagged as an error.
func (m *MessageBuilder) ToolError(toolUseID, message string) *MessageBuilder {
	m.blocks = append(m.blocks, ToolResult(toolUseID, message, true))
	return m
}

// Done completes the message and returns to the RequestBuilder.
func (m *MessageBuilder) Done() *RequestBuilder {
	m.parent.req.Messages = append(m.parent.req.Messages, Message{
		Role:    m.role,
		Content: m.blocks,
	})
	return m.parent
}

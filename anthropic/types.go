package anthropic

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultMaxTokens is applied when a request leaves MaxTokens unset.
const DefaultMaxTokens = 2048

// Message is one turn of a conversation.
type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// UserMessage returns a user message with the given blocks.
func UserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// AssistantMessage returns an assistant message with the given blocks.
func AssistantMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: blocks}
}

// ToolChoice types.
const (
	ToolChoiceTypeAuto = "auto"
	ToolChoiceTypeAny  = "any"
	ToolChoiceTypeTool = "tool"
)

// ToolChoice controls how the model uses the provided tools.
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// ToolChoiceAuto lets the model decide whether to call a tool.
func ToolChoiceAuto() *ToolChoice {
	return &ToolChoice{Type: ToolChoiceTypeAuto}
}

// ToolChoiceAny requires the model to call one of the tools.
func ToolChoiceAny() *ToolChoice {
	return &ToolChoice{Type: ToolChoiceTypeAny}
}

// ToolChoiceTool forces the model to call the named tool.
func ToolChoiceTool(name string) *ToolChoice {
	return &ToolChoice{Type: ToolChoiceTypeTool, Name: name}
}

// CreateMessagesRequest is the body of POST /v1/messages.
//
// Tools are open JSON objects ({"name", "description", "input_schema"});
// see the tools package for a typed way to build them.
type CreateMessagesRequest struct {
	Model         string           `json:"model"`
	Messages      []Message        `json:"messages"`
	MaxTokens     int              `json:"max_tokens"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	StopSequences []string         `json:"stop_sequences,omitempty"`
	Stream        bool             `json:"stream"`
	Temperature   *float64         `json:"temperature,omitempty"`
	ToolChoice    *ToolChoice      `json:"tool_choice,omitempty"`
	Tools         []map[string]any `json:"tools,omitempty"`
	TopK          *int             `json:"top_k,omitempty"`
	TopP          *float64         `json:"top_p,omitempty"`
	System        string           `json:"system,omitempty"`
}

// Usage reports token counts. In message_delta events only OutputTokens is set.
type Usage struct {
	InputTokens              int `json:"input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// Stop reasons.
const (
	StopReasonEndTurn      = "end_turn"
	StopReasonMaxTokens    = "max_tokens"
	StopReasonStopSequence = "stop_sequence"
	StopReasonToolUse      = "tool_use"
)

// CreateMessagesResponse is a complete model reply. Every field is optional on
// the wire.
type CreateMessagesResponse struct {
	ID           string  `json:"id,omitempty"`
	Type         string  `json:"type,omitempty"`
	Role         Role    `json:"role,omitempty"`
	Model        string  `json:"model,omitempty"`
	Content      Content `json:"content,omitempty"`
	StopReason   string  `json:"stop_reason,omitempty"`
	StopSequence string  `json:"stop_sequence,omitempty"`
	Usage        *Usage  `json:"usage,omitempty"`
}

// Text concatenates the text blocks of the reply.
func (r *CreateMessagesResponse) Text() string {
	return r.Content.Text()
}

// ToolUses returns the tool calls requested by the reply.
func (r *CreateMessagesResponse) ToolUses() []ToolUseBlock {
	return r.Content.ToolUses()
}

// HasToolUse reports whether the reply asks for at least one tool call.
func (r *CreateMessagesResponse) HasToolUse() bool {
	return len(r.ToolUses()) > 0
}

// ModelInfo describes one model.
type ModelInfo struct {
	Type        string `json:"type,omitempty"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// GetModelResponse is the body of GET /v1/models/{id}.
type GetModelResponse = ModelInfo

// ListModelsResponse is one page of GET /v1/models.
type ListModelsResponse struct {
	Data    []ModelInfo `json:"data"`
	FirstID string      `json:"first_id,omitempty"`
	HasMore bool        `json:"has_more"`
	LastID  string      `json:"last_id,omitempty"`
}

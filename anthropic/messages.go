package anthropic

import (
	"context"

	"github.com/petal-labs/anthropic/core"
	"github.com/petal-labs/anthropic/transport"
)

const messagesPath = "/v1/messages"

// MessageStream is a live stream of message events.
type MessageStream = core.EventStream[MessageStreamEvent]

// Messages is the Messages API.
type Messages struct {
	client *Client
}

// Create sends req and waits for the complete reply. The stream flag is
// forced off; the caller's request is not modified.
func (m *Messages) Create(ctx context.Context, req *CreateMessagesRequest) (*CreateMessagesResponse, error) {
	body, err := prepare(req, false)
	if err != nil {
		return nil, err
	}

	var resp CreateMessagesResponse
	if err := m.client.transport.Send(ctx, messagesPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateStream sends req with the stream flag forced on and returns the reply
// as a stream of events. Setup failures, including exhausted retries, are
// returned directly; failures after the first byte end the stream with an error.
// The caller must drain or Close the stream.
func (m *Messages) CreateStream(ctx context.Context, req *CreateMessagesRequest) (*MessageStream, error) {
	body, err := prepare(req, true)
	if err != nil {
		return nil, err
	}
	return transport.OpenStream[MessageStreamEvent](ctx, m.client.transport, messagesPath, body, StreamEventTypes)
}

// prepare validates req and returns a copy with defaults and the stream flag applied.
func prepare(req *CreateMessagesRequest, stream bool) (*CreateMessagesRequest, error) {
	if req == nil || req.Model == "" {
		return nil, core.ErrModelRequired
	}
	if len(req.Messages) == 0 {
		return nil, core.ErrNoMessages
	}

	out := *req
	out.Stream = stream
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	return &out, nil
}

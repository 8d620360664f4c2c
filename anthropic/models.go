package anthropic

import (
	"context"
	"errors"
	"net/url"
)

// Model IDs.
const (
	ModelClaudeSonnet45 = "claude-sonnet-4-5"
	ModelClaudeHaiku45  = "claude-haiku-4-5"
	ModelClaudeOpus45   = "claude-opus-4-5"
)

const modelsPath = "/v1/models"

var errModelIDRequired = errors.New("model id required")

// Models is the Models API.
type Models struct {
	client *Client
}

// List returns the first page of available models.
func (m *Models) List(ctx context.Context) (*ListModelsResponse, error) {
	var resp ListModelsResponse
	if err := m.client.transport.Get(ctx, modelsPath, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns a single model by ID.
func (m *Models) Get(ctx context.Context, id string) (*GetModelResponse, error) {
	if id == "" {
		return nil, errModelIDRequired
	}

	var resp GetModelResponse
	if err := m.client.transport.Get(ctx, modelsPath+"/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

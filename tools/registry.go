package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/petal-labs/anthropic/anthropic"
)

// ErrDuplicateTool is returned when attempting to register a tool with a name
// that is already registered.
var ErrDuplicateTool = errors.New("tool already registered")

// Registry manages a collection of tools indexed by name.
// Registry is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	middlewares []Middleware
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// Returns ErrDuplicateTool if a tool with the same name is already registered.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool cannot be nil")
	}

	name := t.Name()
	if name == "" {
		return ErrNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return ErrDuplicateTool
	}

	r.tools[name] = t
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name.
// The returned slice is a copy and safe to modify.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Definitions renders every registered tool for a request's tools list.
func (r *Registry) Definitions() ([]map[string]any, error) {
	list := r.List()
	out := make([]map[string]any, 0, len(list))
	for _, t := range list {
		def, err := Define(t)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", t.Name(), err)
		}
		m, err := def.Map()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Use appends middleware that runs around every tool the registry executes.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, middlewares...)
}

// Execute finds a tool by name and calls it with the given input.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (any, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	mws := r.middlewares
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tool %q not found", name)
	}

	info, _ := CallInfoFromContext(ctx)
	info.Name = name
	ctx = ContextWithCallInfo(ctx, info)

	return Chain(mws...)(tool.Call)(ctx, input)
}

// Run executes the tool named by block and wraps the outcome as a tool result.
// Failures become results with IsError set so the model can react to them;
// only a block without an ID is rejected outright.
func (r *Registry) Run(ctx context.Context, block anthropic.ToolUseBlock) (anthropic.ToolResultBlock, error) {
	if block.ID == "" {
		return anthropic.ToolResultBlock{}, fmt.Errorf("%w: missing id", ErrInvalidToolUse)
	}

	ctx = ContextWithCallInfo(ctx, CallInfo{Name: block.Name, ToolUseID: block.ID})
	out, err := r.Execute(ctx, block.Name, block.Input)
	if err != nil {
		return anthropic.ToolResult(block.ID, err.Error(), true), nil
	}

	text, err := resultText(out)
	if err != nil {
		return anthropic.ToolResult(block.ID, err.Error(), true), nil
	}
	return anthropic.ToolResult(block.ID, text, false), nil
}

// RunAll executes every tool use in resp and returns the user message that
// carries the results back.
func (r *Registry) RunAll(ctx context.Context, resp *anthropic.CreateMessagesResponse) (anthropic.Message, error) {
	uses := resp.ToolUses()
	blocks := make(anthropic.Content, 0, len(uses))
	for _, use := range uses {
		res, err := r.Run(ctx, use)
		if err != nil {
			return anthropic.Message{}, err
		}
		blocks = append(blocks, res)
	}
	return anthropic.Message{Role: anthropic.RoleUser, Content: blocks}, nil
}

// resultText renders a tool's return value as tool result content.
func resultText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case json.RawMessage:
		return string(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

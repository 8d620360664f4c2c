// Package tools defines tools the model can call and turns its tool-use
// requests into tool results.
package tools

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNameRequired is returned when a definition has no name.
var ErrNameRequired = errors.New("tool name required")

// Tool defines the interface for model-callable tools.
// Tools provide a schema for their input and a Call method for execution.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This is provided to the model to help it decide when to use the tool.
	Description() string

	// Schema returns the JSON Schema that describes the tool's input.
	Schema() ToolSchema

	// Call executes the tool with the given input.
	// The input parameter contains the raw JSON input from the model.
	Call(ctx context.Context, input json.RawMessage) (any, error)
}

// ToolSchema describes the input a tool accepts.
// JSONSchema must be a valid JSON Schema object.
type ToolSchema struct {
	// JSONSchema is a valid JSON Schema object describing the tool's input.
	// Example: {"type": "object", "properties": {"location": {"type": "string"}}}
	JSONSchema json.RawMessage `json:"json_schema"`
}

// Definition is the wire description of a tool.
type Definition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Map renders the definition as the open JSON object the API accepts in the
// request's tools list. A missing schema becomes an empty object schema.
func (d Definition) Map() (map[string]any, error) {
	if d.Name == "" {
		return nil, ErrNameRequired
	}

	schema := d.InputSchema
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	m := map[string]any{
		"name":         d.Name,
		"input_schema": schema,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	return m, nil
}

// Define returns the definition of t.
func Define(t Tool) (Definition, error) {
	d := Definition{Name: t.Name(), Description: t.Description()}

	raw := t.Schema().JSONSchema
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.InputSchema); err != nil {
			return Definition{}, err
		}
	}
	return d, nil
}

// Func adapts a function to the Tool interface.
type Func struct {
	ToolName        string
	ToolDescription string
	InputSchema     json.RawMessage
	Fn              func(ctx context.Context, input json.RawMessage) (any, error)
}

func (f *Func) Name() string        { return f.ToolName }
func (f *Func) Description() string { return f.ToolDescription }
func (f *Func) Schema() ToolSchema  { return ToolSchema{JSONSchema: f.InputSchema} }

func (f *Func) Call(ctx context.Context, input json.RawMessage) (any, error) {
	return f.Fn(ctx, input)
}

var _ Tool = (*Func)(nil)

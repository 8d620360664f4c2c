package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/anthropic/anthropic"
)

// ErrInvalidToolUse is returned when a tool-use block lacks its ID or name.
var ErrInvalidToolUse = errors.New("invalid tool use")

// ParseInput decodes a tool-use block's input into a typed struct. The block
// must carry both an ID and a name; an empty input decodes as {}.
//
// Example:
//
//	type WeatherInput struct {
//	    Location string `json:"location"`
//	}
//
//	for _, use := range resp.ToolUses() {
//	    in, err := tools.ParseInput[WeatherInput](use)
//	    if err != nil {
//	        return err
//	    }
//	    // Use in.Location
//	}
func ParseInput[T any](block anthropic.ToolUseBlock) (*T, error) {
	if block.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidToolUse)
	}
	if block.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidToolUse)
	}

	input := block.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	var result T
	if err := json.Unmarshal(input, &result); err != nil {
		return nil, fmt.Errorf("parse %s input: %w", block.Name, err)
	}
	return &result, nil
}

// Package toolcalls assembles tool-use inputs that arrive as partial JSON
// fragments across a message stream.
package toolcalls

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrInvalidJSON is returned when assembled tool input is not valid JSON and
// cannot be repaired.
var ErrInvalidJSON = errors.New("tool input invalid json")

// Config controls assembler behavior.
type Config struct {
	// EmptyInputJSON, when set, is used as the input of a call that received no
	// fragments.
	EmptyInputJSON string

	// Repair enables best-effort repair of truncated or malformed input, such
	// as a stream that ended before the closing brace arrived.
	Repair bool
}

// Call is one assembled tool call.
type Call struct {
	Index    int
	ID       string
	Name     string
	Input    json.RawMessage
	Repaired bool
}

type assemblingCall struct {
	ID    string
	Name  string
	Input strings.Builder
}

// Assembler accumulates fragmented tool inputs keyed by content block index.
type Assembler struct {
	calls map[int]*assemblingCall
	cfg   Config
}

// NewAssembler creates a tool-call assembler.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{
		calls: make(map[int]*assemblingCall),
		cfg:   cfg,
	}
}

// StartCall initializes a tool call by content block index.
func (a *Assembler) StartCall(index int, id, name string) {
	a.calls[index] = &assemblingCall{
		ID:   id,
		Name: name,
	}
}

// AddInput appends an input fragment for an existing call.
// If the call index has not been started, this is a no-op.
func (a *Assembler) AddInput(index int, chunk string) {
	call, exists := a.calls[index]
	if !exists || chunk == "" {
		return
	}
	call.Input.WriteString(chunk)
}

// Has reports whether a call was started at index.
func (a *Assembler) Has(index int) bool {
	_, ok := a.calls[index]
	return ok
}

// Len returns the number of started calls.
func (a *Assembler) Len() int {
	return len(a.calls)
}

// Finish validates and returns the call at index.
func (a *Assembler) Finish(index int) (Call, error) {
	call, exists := a.calls[index]
	if !exists {
		return Call{}, fmt.Errorf("tool call %d not started", index)
	}

	input := call.Input.String()
	if strings.TrimSpace(input) == "" && a.cfg.EmptyInputJSON != "" {
		input = a.cfg.EmptyInputJSON
	}

	out := Call{Index: index, ID: call.ID, Name: call.Name}
	if json.Valid([]byte(input)) {
		out.Input = json.RawMessage(input)
		return out, nil
	}
	if !a.cfg.Repair {
		return out, fmt.Errorf("%w: %s", ErrInvalidJSON, call.Name)
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil || !json.Valid([]byte(repaired)) {
		return out, fmt.Errorf("%w: %s", ErrInvalidJSON, call.Name)
	}
	out.Input = json.RawMessage(repaired)
	out.Repaired = true
	return out, nil
}

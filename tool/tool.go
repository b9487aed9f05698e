// Package tool implements the function calling subsystem: a static registry
// of declared capabilities and a dispatcher that validates and executes
// model-issued tool calls with timeout and error containment.
package tool

import (
	"context"
	"fmt"
)

// Tool is a callable capability the model may invoke mid-turn.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Declare a minimal JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description is shown to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-validated arguments and returns a
	// text payload for the conversation context.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// FailureKind categorizes dispatch failures.
type FailureKind string

// Dispatch failure kinds.
const (
	FailUnknownTool      FailureKind = "UnknownTool"
	FailInvalidArguments FailureKind = "InvalidArguments"
	FailTimeout          FailureKind = "ToolTimeout"
	FailExecution        FailureKind = "ToolExecutionError"
)

// DispatchError is the structured error produced when a dispatch fails. It
// never propagates past the dispatcher boundary as a crash; callers receive
// it inside a Result alongside a user-facing fallback string.
type DispatchError struct {
	Tool    string      `json:"tool"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("tool %s failed [%s]: %s", e.Tool, e.Kind, e.Message)
}

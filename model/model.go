package model

import (
	"context"
	"fmt"

	"github.com/elbchat/elbchat/core"
)

// ToolDefinition declaratively exposes a callable capability to the model.
// Parameters is a JSON Schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the orchestrator:
// the fixed system prompt, the replayed message history (memory snapshot plus
// in-flight tool results) and the declared tool set.
type Request struct {
	System   string            `json:"system"`
	Messages []core.Message    `json:"messages"`
	Tools    []ToolDefinition  `json:"tools,omitempty"`
	Stream   bool              `json:"stream,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Response is a (partial or final) chunk emitted by a model. Partial
// responses carry a text delta; the final response carries the full
// assistant text and any tool calls, plus the provider finish reason.
type Response struct {
	Partial      bool            `json:"partial"`
	Text         string          `json:"text"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the orchestrator needs to drive generation.
// Generate returns a response channel and an error channel; both are closed
// when the call completes. When req.Stream is set the response channel
// carries partial deltas before the final response.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model for tests. Responses can be
// scripted per call via Enqueue (tool calls included); unscripted calls fall
// back to a canned completion keyed by the last user text.
type MockModel struct {
	info      Info
	script    []Response
	responses map[string]string
	calls     int
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Enqueue appends a scripted final response consumed by the next Generate
// call. Scripted responses take precedence over AddResponse completions.
func (m *MockModel) Enqueue(resp Response) { m.script = append(m.script, resp) }

// Calls reports how many times Generate has been invoked.
func (m *MockModel) Calls() int { return m.calls }

// Generate implements Model; with req.Stream it emits per-rune partial
// deltas before the final response, mirroring provider behavior.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)
	m.calls++

	final, ok := m.nextResponse(req)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if !ok {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		if req.Stream && len(final.ToolCalls) == 0 {
			for _, r := range final.Text {
				if err := ctx.Err(); err != nil {
					errCh <- err
					return
				}
				respCh <- Response{Partial: true, Text: string(r)}
			}
		}
		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}
		respCh <- final
	}()
	return respCh, errCh
}

func (m *MockModel) nextResponse(req Request) (Response, bool) {
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		if next.FinishReason == "" {
			next.FinishReason = "stop"
			if len(next.ToolCalls) > 0 {
				next.FinishReason = "tool_calls"
			}
		}
		return next, true
	}
	if len(req.Messages) == 0 {
		return Response{}, false
	}
	last := req.Messages[len(req.Messages)-1]
	text := m.responses[last.Text]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", last.Text)
	}
	return Response{Text: text, FinishReason: "stop"}, true
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

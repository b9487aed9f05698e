package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elbchat/elbchat/core"
)

func weatherStub(t *testing.T) *FunctionTool {
	t.Helper()
	return NewFunctionTool(
		"get_weather",
		"Get current weather conditions for a city",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
			"required": []string{"city"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "Weather in Hamburg: clear, 18°C", nil
		},
	)
}

func newDispatcher(t *testing.T, tools ...Tool) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(tools...)
	return NewDispatcher(reg)
}

func TestDispatchSuccess(t *testing.T) {
	d := newDispatcher(t, weatherStub(t))

	res := d.Dispatch(context.Background(), core.ToolCall{
		ID:        "fc_1",
		Name:      "get_weather",
		Arguments: map[string]any{"city": "Hamburg"},
	})

	assert.True(t, res.Succeeded())
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, "Weather in Hamburg: clear, 18°C", res.Text)
	assert.Nil(t, res.Err)
}

func TestDispatchUnknownTool(t *testing.T) {
	d := newDispatcher(t, weatherStub(t))

	res := d.Dispatch(context.Background(), core.ToolCall{Name: "teleport"})

	assert.Equal(t, StateFailed, res.State)
	require.NotNil(t, res.Err)
	assert.Equal(t, FailUnknownTool, res.Err.Kind)
	// A fallback string is still produced so the turn continues.
	assert.NotEmpty(t, res.Text)
}

func TestDispatchInvalidArguments(t *testing.T) {
	d := newDispatcher(t, weatherStub(t))

	// Missing required field.
	res := d.Dispatch(context.Background(), core.ToolCall{Name: "get_weather", Arguments: map[string]any{}})
	require.NotNil(t, res.Err)
	assert.Equal(t, FailInvalidArguments, res.Err.Kind)

	// Mistyped field.
	res = d.Dispatch(context.Background(), core.ToolCall{Name: "get_weather", Arguments: map[string]any{"city": 7}})
	require.NotNil(t, res.Err)
	assert.Equal(t, FailInvalidArguments, res.Err.Kind)
}

func TestDispatchHandlerError(t *testing.T) {
	failing := NewFunctionTool("broken", "always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("upstream unavailable")
		},
	)
	d := newDispatcher(t, failing)

	res := d.Dispatch(context.Background(), core.ToolCall{Name: "broken", Arguments: map[string]any{}})

	assert.Equal(t, StateFailed, res.State)
	require.NotNil(t, res.Err)
	assert.Equal(t, FailExecution, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "upstream unavailable")
	assert.NotEmpty(t, res.Text)
}

func TestDispatchHandlerPanicIsContained(t *testing.T) {
	panicky := NewFunctionTool("panicky", "panics",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			panic("boom")
		},
	)
	d := newDispatcher(t, panicky)

	var res Result
	assert.NotPanics(t, func() {
		res = d.Dispatch(context.Background(), core.ToolCall{Name: "panicky", Arguments: map[string]any{}})
	})
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, FailExecution, res.Err.Kind)
}

func TestDispatchTimeout(t *testing.T) {
	slow := NewFunctionTool("slow", "never returns in time",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "too late", nil
			}
		},
	)
	reg := NewRegistry()
	reg.MustRegister(slow)
	d := NewDispatcher(reg, func(o *DispatcherOptions) { o.Timeout = 20 * time.Millisecond })

	res := d.Dispatch(context.Background(), core.ToolCall{Name: "slow", Arguments: map[string]any{}})

	assert.Equal(t, StateFailed, res.State)
	require.NotNil(t, res.Err)
	assert.Equal(t, FailTimeout, res.Err.Kind)
}

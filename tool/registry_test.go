package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopTool(name string) *FunctionTool {
	return NewFunctionTool(name, "noop",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) { return "", nil },
	)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(noopTool("get_events")))

	// The same capability aliased a second time must not be registered; a
	// model call would otherwise double-invoke it.
	err := reg.Register(noopTool("get_events"))
	assert.Error(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("missing")
	require.Error(t, err)
	var dErr *DispatchError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, FailUnknownTool, dErr.Kind)
}

func TestRegistryListIsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(noopTool("zulu"), noopTool("alpha"), noopTool("mike"))

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name())
	assert.Equal(t, "mike", list[1].Name())
	assert.Equal(t, "zulu", list[2].Name())
}

func TestFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"Search query"`
	}
	ft := NewFunctionToolFromStruct("search", "search something", args{},
		func(ctx context.Context, a map[string]any) (string, error) { return "ok", nil })

	props := ft.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "query")

	out, err := ft.Call(context.Background(), map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	City  string `json:"city" description:"City name"`
	Days  *int   `json:"days" description:"Optional forecast days"`
	Units string `json:"units,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleArgs{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "days")
	assert.Contains(t, props, "units")

	city := props["city"].(map[string]any)
	assert.Equal(t, "string", city["type"])
	assert.Equal(t, "City name", city["description"])

	// Pointer and omitempty fields are optional.
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"city"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
			"days": map[string]any{"type": "integer"},
		},
		"required": []any{"city"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"city": "Hamburg"}, schema))

	// JSON decodes integers as float64; whole values pass.
	assert.NoError(t, ValidateParameters(map[string]any{"city": "Hamburg", "days": float64(3)}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "city", vErr.Field)

	err = ValidateParameters(map[string]any{"city": 42}, schema)
	require.Error(t, err)
	vErr, ok = err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Message, "expected type string")

	// Extra fields are tolerated.
	assert.NoError(t, ValidateParameters(map[string]any{"city": "Hamburg", "lang": "de"}, schema))
}

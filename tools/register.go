package tools

import (
	"github.com/elbchat/elbchat/retrieval"
	"github.com/elbchat/elbchat/tool"
)

// Deps carries everything the built-in tools need. A nil Engine skips the
// retrieval-backed tools.
type Deps struct {
	Weather    WeatherConfig
	Places     PlacesConfig
	Directions DirectionsConfig
	Engine     *retrieval.Engine
}

// RegisterBuiltins registers every built-in tool exactly once. The registry
// rejects duplicate names, so a second call returns an error instead of
// silently doubling a capability.
func RegisterBuiltins(reg *tool.Registry, deps Deps) error {
	places := NewPlacesClient(deps.Places)

	builtins := []tool.Tool{
		NewWeatherTool(deps.Weather),
		NewPlacesTool(places),
		NewDirectionsTool(deps.Directions),
		NewEventsTool(places),
	}
	if deps.Engine != nil {
		builtins = append(builtins,
			NewKnowledgeTool(deps.Engine),
			NewHistoryTool(deps.Engine),
		)
	}
	for _, t := range builtins {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

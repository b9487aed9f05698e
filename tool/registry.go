package tool

import (
	"fmt"
	"sort"
)

// Registry is the process-wide catalog of callable capabilities. It is
// populated once at startup and read-only afterwards, so lookups need no
// locking. Each distinct capability is registered exactly once; duplicate
// names are an error rather than a silent overwrite.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the catalog. Registering the same name twice is
// rejected so one capability can never be double-invoked under two aliases.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// MustRegister is Register for static startup wiring; it panics on error.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the tool for name or a DispatchError of kind UnknownTool.
func (r *Registry) Resolve(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, &DispatchError{Tool: name, Kind: FailUnknownTool, Message: "not registered"}
	}
	return t, nil
}

// List returns all registered tools sorted by name, giving model providers a
// deterministic declaration order.
func (r *Registry) List() []Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

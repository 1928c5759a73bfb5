package tool

import (
	"fmt"
	"strings"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

// Tool pairs a declared spec with its callable. Provider groups return
// slices of these and the registry is populated by composition at
// startup; no runtime reflection.
type Tool struct {
	Spec contractx.ToolSpec
	Fn   contractx.ToolFunc
}

// Registry is a fixed name → (schema, callable, description) table.
type Registry struct {
	entries map[string]Tool
	order   []string
}

// NewRegistry composes the given tool groups. Duplicate names are a
// wiring bug and fail construction.
func NewRegistry(groups ...[]Tool) (*Registry, error) {
	r := &Registry{entries: make(map[string]Tool)}
	for _, group := range groups {
		for _, t := range group {
			name := strings.TrimSpace(t.Spec.Name)
			if name == "" {
				return nil, fmt.Errorf("tool with empty name")
			}
			if t.Fn == nil {
				return nil, fmt.Errorf("tool %s has no callable", name)
			}
			if _, exists := r.entries[name]; exists {
				return nil, fmt.Errorf("duplicate tool name %s", name)
			}
			r.entries[name] = t
			r.order = append(r.order, name)
		}
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (contractx.ToolFunc, bool) {
	t, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return t.Fn, true
}

// Specs returns the capability table in registration order.
func (r *Registry) Specs() []contractx.ToolSpec {
	specs := make([]contractx.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.entries[name].Spec)
	}
	return specs
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/davitran/finsight/internal/log"
)

// Registry holds the agent's tools in registration order. Registration order
// is the order tools are described to the model, so it is deterministic.
//
// Execute never returns an error: unknown tools and tool failures come back
// as error text the model can read and react to.
type Registry struct {
	order  []string
	byName map[string]Tool
	logger log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		byName: make(map[string]Tool),
		logger: logger,
	}
}

// Register adds tools to the registry. Re-registering a name replaces the
// tool but keeps its original position.
func (r *Registry) Register(tools ...Tool) {
	for _, t := range tools {
		if _, exists := r.byName[t.Name()]; !exists {
			r.order = append(r.order, t.Name())
		}
		r.byName[t.Name()] = t
	}
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.order)
}

// Describe renders every tool's name, description and argument schema as a
// prompt fragment for the system message.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, name := range r.order {
		t := r.byName[name]
		b.WriteString(fmt.Sprintf("- %s: %s\n", t.Name(), t.Description()))
		if schema := t.Schema(); schema != nil {
			if data, err := json.Marshal(schema); err == nil {
				b.WriteString(fmt.Sprintf("  Arguments: %s\n", data))
			}
		}
	}
	return b.String()
}

// Execute runs the named tool. All failure modes produce readable error text
// instead of an error so the agent loop keeps going.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) string {
	t, ok := r.byName[name]
	if !ok {
		r.logger.Warn("unknown tool requested", "tool", name)
		return fmt.Sprintf("Error: Tool %s not found", name)
	}

	r.logger.Info("executing tool", "tool", name, "args", args)
	result, err := t.Execute(ctx, args)
	if err != nil {
		r.logger.Error("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return result
}

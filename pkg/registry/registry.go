package registry

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidCapability is returned when a tool is registered without an
// invocable handler.
var ErrInvalidCapability = fmt.Errorf("capability is not invocable")

// Registry manages available tools and their metadata
type Registry struct {
	tools   map[string]*Definition
	schemas map[string]*gojsonschema.Schema
	order   []string
	mu      sync.RWMutex
}

// New creates a new tool registry
func New() *Registry {
	log.Info().Msg("Tool registry initialized")

	return &Registry{
		tools:   make(map[string]*Definition),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a tool to the registry. Registering a name that already
// exists replaces the previous definition (last write wins) while keeping
// its original position in listing order.
func (r *Registry) Register(def Definition) error {
	if def.Handler == nil {
		return fmt.Errorf("%w: handler for %s is nil", ErrInvalidCapability, def.Name)
	}
	if err := def.validate(); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schema, err := generateSchema(def)
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.tools[def.Name] = &def
	r.schemas[def.Name] = schema

	log.Info().Str("tool", def.Name).Str("category", def.Category).Msg("Tool registered")

	return nil
}

// Lookup returns the tool definition for a name, if registered
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tools[name]
	return def, ok
}

// List returns all registered tool definitions in registration order,
// optionally filtered by category (empty string means all)
func (r *Registry) List(category string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		if category != "" && def.Category != category {
			continue
		}
		defs = append(defs, *def)
	}

	return defs
}

// Unregister removes a tool, reporting whether a removal occurred
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return false
	}

	delete(r.tools, name)
	delete(r.schemas, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Info().Str("tool", name).Msg("Tool unregistered")

	return true
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// Categories returns the distinct categories of registered tools
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var categories []string
	for _, name := range r.order {
		cat := r.tools[name].Category
		if !seen[cat] {
			seen[cat] = true
			categories = append(categories, cat)
		}
	}

	return categories
}

// ValidateArguments checks arguments against a tool's parameter schema.
// Undeclared keys are permitted so that context injection can pass
// side-channel payloads through to handlers that tolerate extra arguments.
func (r *Registry) ValidateArguments(name string, args map[string]interface{}) error {
	r.mu.RLock()
	schema := r.schemas[name]
	r.mu.RUnlock()

	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}

	if !result.Valid() {
		errs := []string{}
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("validation errors: %v", errs)
	}

	return nil
}

// generateSchema builds a JSON Schema from a tool's parameter specs
func generateSchema(def Definition) (*gojsonschema.Schema, error) {
	properties := make(map[string]interface{})
	required := []string{}

	for _, param := range def.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}

		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

package registry

import (
	"context"
	"fmt"
)

// Capability is the function signature for tool execution. Handlers may
// block on I/O; the dispatcher bounds them with a per-call timeout.
type Capability func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// ParameterSpec defines a parameter for a tool
type ParameterSpec struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// Definition holds a tool's metadata and handler
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterSpec `json:"parameters"`
	Category    string          `json:"category"`
	Handler     Capability      `json:"-"`
}

var validParamTypes = map[string]bool{
	"string": true, "number": true, "boolean": true,
	"object": true, "array": true, "integer": true,
}

func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if d.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}

	for _, param := range d.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if !validParamTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
		}
	}

	return nil
}

package registry

import (
	"fmt"
	"strings"
)

// Catalog renders all registered tools as a text block suitable for an
// LLM system prompt, with per-parameter required/default annotations.
func (r *Registry) Catalog() string {
	defs := r.List("")

	var b strings.Builder
	for i, def := range defs {
		if i > 0 {
			b.WriteString("\n\n")
		}

		params := make([]string, 0, len(def.Parameters))
		for _, p := range def.Parameters {
			annotation := "(optional"
			if p.Required {
				annotation = "(required"
			} else if p.Default != nil {
				annotation = fmt.Sprintf("(optional, default: %v", p.Default)
			}
			params = append(params, fmt.Sprintf("%s: %s %s)", p.Name, p.Type, annotation))
		}

		fmt.Fprintf(&b, "• %s(%s)\n  Category: %s\n  Description: %s",
			def.Name, strings.Join(params, ", "), def.Category, def.Description)
	}

	return b.String()
}

// CatalogLine renders a single-line summary for a tool, used in compact
// listings.
func CatalogLine(def Definition) string {
	params := make([]string, 0, len(def.Parameters))
	for _, p := range def.Parameters {
		params = append(params, fmt.Sprintf("%s: %s", p.Name, p.Type))
	}
	return fmt.Sprintf("- %s(%s): %s", def.Name, strings.Join(params, ", "), def.Description)
}

package oracle

import (
	"context"

	"github.com/sentinelai/sentinel/pkg/dispatch"
	"github.com/sentinelai/sentinel/pkg/registry"
)

// Plan is the reasoning oracle's decision for one query: which tools to
// invoke and what to tell the user while they run.
type Plan struct {
	Rationale  string          `json:"reasoning"`
	ToolCalls  []dispatch.Call `json:"tool_calls"`
	Narration  string          `json:"response"`
	Confidence float64         `json:"confidence"`
}

// Reasoner decides which tools to invoke for a query. A malformed model
// response degrades to an empty-tool-calls Plan with zero confidence; it
// is never surfaced as an error.
type Reasoner interface {
	Reason(ctx context.Context, query string, execCtx map[string]interface{}, catalog []registry.Definition) (Plan, error)
}

// Synthesizer turns a result view into a final natural-language answer.
// On model failure implementations fall back to rendering the raw results
// rather than losing the response.
type Synthesizer interface {
	Synthesize(ctx context.Context, query, rationale string, results map[string]interface{}) (string, error)
}

package pipeline

import "fmt"

// EventType identifies a streamed pipeline event
type EventType string

const (
	EventStatus        EventType = "status"
	EventReasoning     EventType = "reasoning"
	EventToolResults   EventType = "tool_results"
	EventFinalResponse EventType = "final_response"
	EventError         EventType = "error"
)

// Stage names mark each suspension point of a query's lifecycle
const (
	StageReasoning         = "reasoning"
	StageReasoningComplete = "reasoning_complete"
	StageExecutingTools    = "executing_tools"
	StageToolsComplete     = "tools_complete"
	StageSynthesizing      = "synthesizing"
	StageComplete          = "complete"
	StageFailed            = "failed"
)

// Event is a discrete update emitted by the streaming pipeline as each
// stage completes
type Event struct {
	Type    EventType              `json:"type"`
	Stage   string                 `json:"stage"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// streamResultLimit bounds per-tool result text in streamed events; the
// non-streamed path returns full results
const streamResultLimit = 200

// truncateResult renders a tool result for a streamed event
func truncateResult(result interface{}) interface{} {
	if result == nil {
		return nil
	}

	text := fmt.Sprintf("%v", result)
	if len(text) > streamResultLimit {
		return text[:streamResultLimit]
	}
	return text
}

package dispatch

import "time"

// Call is a single requested tool invocation, produced by the reasoning
// oracle. A Call has no identity beyond its position in a batch unless the
// planner assigned it a CallID.
type Call struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
	CallID    string                 `json:"call_id,omitempty"`
}

// Outcome is the settled result of one attempted call. Exactly one of
// Result and Error is meaningful; Elapsed is always populated, including
// on failure.
type Outcome struct {
	ToolName string        `json:"tool_name"`
	Result   interface{}   `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"execution_time"`
}

// Failed reports whether the call settled with an error
func (o Outcome) Failed() bool {
	return o.Error != ""
}

// TotalElapsed sums per-call wall-clock times across a result set. This is
// a workload metric, not pipeline latency: concurrent calls contribute
// their full individual durations.
func TotalElapsed(results map[string]Outcome) time.Duration {
	var total time.Duration
	for _, outcome := range results {
		total += outcome.Elapsed
	}
	return total
}

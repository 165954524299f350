package dispatch

import (
	"fmt"
	"strings"
)

// AnalyzeDependencies partitions a batch into calls that can run in
// parallel and calls that appear to depend on another call's output.
//
// The signal is a case-insensitive substring match: a call is classified
// dependent when any other tool's name in the batch appears in that
// call's serialized arguments. It can over- and under-trigger and is
// advisory only; the default pipeline executes the full batch in
// parallel and callers who want ordering use ExecuteSequential.
func AnalyzeDependencies(calls []Call) (independent, dependent []Call) {
	names := make(map[string]bool, len(calls))
	for _, call := range calls {
		names[call.ToolName] = true
	}

	for _, call := range calls {
		argsText := strings.ToLower(fmt.Sprintf("%v", call.Arguments))

		hasDependency := false
		for name := range names {
			if name == call.ToolName {
				continue
			}
			if strings.Contains(argsText, strings.ToLower(name)) {
				hasDependency = true
				break
			}
		}

		if hasDependency {
			dependent = append(dependent, call)
		} else {
			independent = append(independent, call)
		}
	}

	return independent, dependent
}

package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// Turn is one completed query/response exchange
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// historyWindow bounds how many prior turns inform a follow-up query
const historyWindow = 3

// ProcessWithHistory runs a query with recent conversation turns prepended
// so the reasoner can resolve references to earlier exchanges. Only the
// last few turns are carried; older context is dropped.
func (p *Pipeline) ProcessWithHistory(ctx context.Context, query string, execCtx map[string]interface{}, history []Turn) Response {
	return p.Process(ctx, contextualQuery(query, history), execCtx)
}

// ProcessStreamWithHistory is the streaming variant of ProcessWithHistory
func (p *Pipeline) ProcessStreamWithHistory(ctx context.Context, query string, execCtx map[string]interface{}, history []Turn) <-chan Event {
	return p.ProcessStream(ctx, contextualQuery(query, history), execCtx)
}

func contextualQuery(query string, history []Turn) string {
	if len(history) == 0 {
		return query
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Query, turn.Response)
	}
	fmt.Fprintf(&b, "\nCurrent query: %s", query)
	return b.String()
}

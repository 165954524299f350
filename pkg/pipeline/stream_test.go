package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelai/sentinel/pkg/dispatch"
	"github.com/sentinelai/sentinel/pkg/oracle"
)

func collectEvents(t *testing.T, events <-chan Event) []Event {
	t.Helper()

	var collected []Event
	for event := range events {
		collected = append(collected, event)
	}
	return collected
}

func stages(events []Event) []string {
	out := make([]string, len(events))
	for i, event := range events {
		out[i] = event.Stage
	}
	return out
}

func TestProcessStreamEventOrder(t *testing.T) {
	reasoner := &fakeReasoner{plan: oracle.Plan{
		Rationale: "needs weather",
		ToolCalls: []dispatch.Call{
			{ToolName: "get_weather", Arguments: map[string]interface{}{"city": "Oslo"}},
		},
	}}
	p := testPipeline(t, reasoner, &fakeSynthesizer{answer: "Sunny."})

	events := collectEvents(t, p.ProcessStream(context.Background(), "weather?", nil))

	assert.Equal(t, []string{
		StageReasoning,
		StageReasoningComplete,
		StageExecutingTools,
		StageToolsComplete,
		StageSynthesizing,
		StageComplete,
	}, stages(events))

	reasoning := events[1]
	assert.Equal(t, EventReasoning, reasoning.Type)
	assert.Equal(t, "needs weather", reasoning.Data["reasoning"])

	results := events[3]
	assert.Equal(t, EventToolResults, results.Type)
	require.Contains(t, results.Data, "get_weather")
	entry := results.Data["get_weather"].(map[string]interface{})
	assert.Equal(t, "sunny in Oslo", entry["result"])
	assert.NotContains(t, entry, "error")

	final := events[5]
	assert.Equal(t, EventFinalResponse, final.Type)
	assert.Equal(t, "Sunny.", final.Data["response"])
}

func TestProcessStreamShortCircuitsWithoutTools(t *testing.T) {
	reasoner := &fakeReasoner{plan: oracle.Plan{
		Rationale: "no tools",
		Narration: "Hi!",
	}}
	synthesizer := &fakeSynthesizer{answer: "unused"}
	p := testPipeline(t, reasoner, synthesizer)

	events := collectEvents(t, p.ProcessStream(context.Background(), "hi", nil))

	assert.Equal(t, []string{
		StageReasoning,
		StageReasoningComplete,
		StageComplete,
	}, stages(events))
	assert.Equal(t, "Hi!", events[2].Data["response"])
	assert.Nil(t, synthesizer.lastResults)
}

func TestProcessStreamReasonerFailure(t *testing.T) {
	reasoner := &fakeReasoner{err: fmt.Errorf("provider down")}
	p := testPipeline(t, reasoner, &fakeSynthesizer{})

	events := collectEvents(t, p.ProcessStream(context.Background(), "q", nil))

	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[1].Type)
	assert.Equal(t, StageFailed, events[1].Stage)
	assert.Equal(t, "provider down", events[1].Message)
}

func TestProcessStreamIncludesToolErrors(t *testing.T) {
	reasoner := &fakeReasoner{plan: oracle.Plan{
		ToolCalls: []dispatch.Call{{ToolName: "get_news"}},
	}}
	p := testPipeline(t, reasoner, &fakeSynthesizer{answer: "News is down."})

	events := collectEvents(t, p.ProcessStream(context.Background(), "news?", nil))

	results := events[3]
	entry := results.Data["get_news"].(map[string]interface{})
	assert.Equal(t, "news service unavailable", entry["error"])
}

func TestTruncateResult(t *testing.T) {
	assert.Nil(t, truncateResult(nil))
	assert.Equal(t, "short", truncateResult("short"))

	long := strings.Repeat("x", 500)
	truncated := truncateResult(long)
	assert.Len(t, truncated, streamResultLimit)
}

func TestProcessStreamRespectsCancelledConsumer(t *testing.T) {
	reasoner := &fakeReasoner{plan: oracle.Plan{
		ToolCalls: []dispatch.Call{
			{ToolName: "get_weather", Arguments: map[string]interface{}{"city": "Oslo"}},
		},
	}}
	p := testPipeline(t, reasoner, &fakeSynthesizer{answer: "Sunny."})

	ctx, cancel := context.WithCancel(context.Background())
	events := p.ProcessStream(ctx, "weather?", nil)

	// Read one event then walk away; the producer must still terminate
	<-events
	cancel()

	for range events {
	}
}

package pipeline

import (
	"context"
	"fmt"
)

// ProcessStream runs a query end to end, emitting an event as each stage
// completes. The returned channel is closed after the final event. Event
// order is fixed: status(reasoning), reasoning_complete, then either
// final_response (no tools) or status(executing_tools), tool_results,
// status(synthesizing), final_response.
func (p *Pipeline) ProcessStream(ctx context.Context, query string, execCtx map[string]interface{}) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		defer func() {
			if r := recover(); r != nil {
				p.logger.Error().Interface("panic", r).Msg("Streaming pipeline panicked")
				p.emit(ctx, events, Event{
					Type:    EventError,
					Stage:   StageFailed,
					Message: fmt.Sprintf("unexpected fault: %v", r),
				})
			}
		}()

		p.emit(ctx, events, Event{
			Type:    EventStatus,
			Stage:   StageReasoning,
			Message: "Agent is thinking...",
		})

		plan, err := p.reasoner.Reason(ctx, query, execCtx, p.registry.List(""))
		if err != nil {
			p.recordStageFailure(StageReasoning)
			p.emit(ctx, events, Event{
				Type:    EventError,
				Stage:   StageFailed,
				Message: err.Error(),
			})
			return
		}

		p.emit(ctx, events, Event{
			Type:  EventReasoning,
			Stage: StageReasoningComplete,
			Data: map[string]interface{}{
				"reasoning":  plan.Rationale,
				"tool_calls": plan.ToolCalls,
				"response":   plan.Narration,
			},
		})

		// No tools: short-circuit to the final answer
		if len(plan.ToolCalls) == 0 {
			if p.metrics != nil {
				p.metrics.ShortCircuitedQueries.Inc()
			}
			p.emit(ctx, events, Event{
				Type:  EventFinalResponse,
				Stage: StageComplete,
				Data:  map[string]interface{}{"response": plan.Narration},
			})
			return
		}

		p.emit(ctx, events, Event{
			Type:    EventStatus,
			Stage:   StageExecutingTools,
			Message: fmt.Sprintf("Executing %d tools...", len(plan.ToolCalls)),
		})

		results := p.dispatcher.ExecuteAll(ctx, plan.ToolCalls, execCtx)

		resultData := make(map[string]interface{}, len(results))
		for name, outcome := range results {
			entry := map[string]interface{}{
				"result":         truncateResult(outcome.Result),
				"execution_time": outcome.Elapsed.Seconds(),
			}
			if outcome.Failed() {
				entry["error"] = outcome.Error
			}
			resultData[name] = entry
		}
		p.emit(ctx, events, Event{
			Type:  EventToolResults,
			Stage: StageToolsComplete,
			Data:  resultData,
		})

		p.emit(ctx, events, Event{
			Type:    EventStatus,
			Stage:   StageSynthesizing,
			Message: "Synthesizing results...",
		})

		answer := p.synthesize(ctx, query, plan.Rationale, results)

		p.emit(ctx, events, Event{
			Type:  EventFinalResponse,
			Stage: StageComplete,
			Data:  map[string]interface{}{"response": answer},
		})
	}()

	return events
}

// emit delivers an event unless the caller has gone away
func (p *Pipeline) emit(ctx context.Context, events chan<- Event, event Event) {
	select {
	case events <- event:
		if p.metrics != nil {
			p.metrics.EventsSentTotal.Inc()
		}
	case <-ctx.Done():
	}
}

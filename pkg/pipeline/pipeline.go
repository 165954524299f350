package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/pkg/dispatch"
	"github.com/sentinelai/sentinel/pkg/oracle"
	"github.com/sentinelai/sentinel/pkg/registry"
)

// Response is the complete output for one processed query. The caller
// always receives a Response, never a raw fault: stage failures degrade
// into it with Error set.
type Response struct {
	Rationale          string                      `json:"reasoning"`
	ToolCalls          []dispatch.Call             `json:"tool_calls"`
	ToolResults        map[string]dispatch.Outcome `json:"tool_results"`
	Answer             string                      `json:"response"`
	TotalExecutionTime time.Duration               `json:"execution_time"`
	Error              string                      `json:"error,omitempty"`
}

// Pipeline sequences reasoning, dispatch, and synthesis for each query
type Pipeline struct {
	reasoner    oracle.Reasoner
	synthesizer oracle.Synthesizer
	registry    *registry.Registry
	dispatcher  *dispatch.Dispatcher
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// Config holds pipeline configuration
type Config struct {
	Reasoner    oracle.Reasoner
	Synthesizer oracle.Synthesizer
	Registry    *registry.Registry
	Dispatcher  *dispatch.Dispatcher
	Metrics     *metrics.Metrics // optional
	Logger      zerolog.Logger
}

// New creates a new Pipeline
func New(cfg Config) (*Pipeline, error) {
	if cfg.Reasoner == nil {
		return nil, fmt.Errorf("reasoner is required")
	}
	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	return &Pipeline{
		reasoner:    cfg.Reasoner,
		synthesizer: cfg.Synthesizer,
		registry:    cfg.Registry,
		dispatcher:  cfg.Dispatcher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}, nil
}

// Process runs a query end to end and returns the composed response
func (p *Pipeline) Process(ctx context.Context, query string, execCtx map[string]interface{}) (resp Response) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("Pipeline panicked")
			resp = p.failedResponse(fmt.Errorf("unexpected fault: %v", r))
		}
		if p.metrics != nil {
			status := "success"
			if resp.Error != "" {
				status = "failed"
			}
			p.metrics.RecordQuery(status, time.Since(start))
		}
	}()

	p.logger.Info().Str("query", truncateQuery(query)).Msg("Processing query")

	// Stage 1: reasoning
	plan, err := p.reasoner.Reason(ctx, query, execCtx, p.registry.List(""))
	if err != nil {
		p.recordStageFailure(StageReasoning)
		return p.failedResponse(err)
	}

	// No tools needed: answer directly from the plan
	if len(plan.ToolCalls) == 0 {
		p.logger.Info().Msg("No tools needed, returning direct response")
		if p.metrics != nil {
			p.metrics.ShortCircuitedQueries.Inc()
		}
		return Response{
			Rationale:   plan.Rationale,
			ToolCalls:   []dispatch.Call{},
			ToolResults: map[string]dispatch.Outcome{},
			Answer:      plan.Narration,
		}
	}

	// Stage 2: dispatch
	p.logger.Info().Int("count", len(plan.ToolCalls)).Msg("Executing tools")
	results := p.dispatcher.ExecuteAll(ctx, plan.ToolCalls, execCtx)

	// Stage 3: synthesis
	answer := p.synthesize(ctx, query, plan.Rationale, results)

	total := dispatch.TotalElapsed(results)
	p.logger.Info().Dur("execution_time", total).Msg("Query processed")

	return Response{
		Rationale:          plan.Rationale,
		ToolCalls:          plan.ToolCalls,
		ToolResults:        results,
		Answer:             answer,
		TotalExecutionTime: total,
	}
}

// synthesize invokes the synthesis collaborator, degrading to a raw
// results rendering if it errors
func (p *Pipeline) synthesize(ctx context.Context, query, rationale string, results map[string]dispatch.Outcome) string {
	view := SimplifyResults(results)

	answer, err := p.synthesizer.Synthesize(ctx, query, rationale, view)
	if err != nil {
		p.recordStageFailure(StageSynthesizing)
		p.logger.Error().Err(err).Msg("Synthesis failed, emitting raw results")

		viewJSON, merr := json.MarshalIndent(view, "", "  ")
		if merr != nil {
			return fmt.Sprintf("Tool results: %v", view)
		}
		return fmt.Sprintf("Tool results: %s", viewJSON)
	}

	return answer
}

// SimplifyResults flattens outcomes into the view handed to the
// synthesizer: the success value, or a formatted error string. Errors are
// surfaced as data, not swallowed.
func SimplifyResults(results map[string]dispatch.Outcome) map[string]interface{} {
	view := make(map[string]interface{}, len(results))
	for name, outcome := range results {
		if outcome.Failed() {
			view[name] = fmt.Sprintf("Error: %s", outcome.Error)
		} else {
			view[name] = outcome.Result
		}
	}
	return view
}

func (p *Pipeline) failedResponse(err error) Response {
	p.logger.Error().Err(err).Msg("Error processing query")
	return Response{
		ToolCalls:   []dispatch.Call{},
		ToolResults: map[string]dispatch.Outcome{},
		Answer:      fmt.Sprintf("I encountered an error: %v", err),
		Error:       err.Error(),
	}
}

func (p *Pipeline) recordStageFailure(stage string) {
	if p.metrics != nil {
		p.metrics.StageFailuresTotal.WithLabelValues(stage).Inc()
	}
}

func truncateQuery(query string) string {
	if len(query) > 100 {
		return query[:100] + "..."
	}
	return query
}

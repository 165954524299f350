package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/pkg/registry"
)

// DefaultTimeout bounds a single tool call when no category override applies
const DefaultTimeout = 30 * time.Second

// Dispatcher executes batches of tool calls against a registry, either
// all at once or strictly in order
type Dispatcher struct {
	registry         *registry.Registry
	defaultTimeout   time.Duration
	categoryTimeouts map[string]time.Duration
	metrics          *metrics.Metrics
	logger           zerolog.Logger
}

// Config holds dispatcher configuration
type Config struct {
	Registry         *registry.Registry
	DefaultTimeout   time.Duration
	CategoryTimeouts map[string]time.Duration
	Metrics          *metrics.Metrics // optional
	Logger           zerolog.Logger
}

// New creates a new Dispatcher
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}

	return &Dispatcher{
		registry:         cfg.Registry,
		defaultTimeout:   cfg.DefaultTimeout,
		categoryTimeouts: cfg.CategoryTimeouts,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
	}, nil
}

// ExecuteAll executes every call in the batch concurrently and returns
// once all of them have completed, failed, or timed out. A failing or
// slow call never cancels its siblings. The returned mapping is keyed by
// tool name; duplicate names in one batch overwrite in input order.
func (d *Dispatcher) ExecuteAll(ctx context.Context, calls []Call, execCtx map[string]interface{}) map[string]Outcome {
	results := make(map[string]Outcome, len(calls))
	if len(calls) == 0 {
		return results
	}

	d.logger.Info().Int("count", len(calls)).Msg("Executing tools concurrently")

	outcomes := make([]Outcome, len(calls))
	var wg sync.WaitGroup

	start := time.Now()
	for i, call := range calls {
		args := PrepareArguments(call.Arguments, execCtx)

		wg.Add(1)
		go func(index int, call Call, args map[string]interface{}) {
			defer wg.Done()
			outcomes[index] = d.executeSingle(ctx, call, args)
		}(i, call, args)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		results[outcome.ToolName] = outcome
	}

	d.logger.Info().
		Dur("wall_clock", time.Since(start)).
		Dur("summed_elapsed", TotalElapsed(results)).
		Int("count", len(calls)).
		Msg("All tools completed")

	return results
}

// ExecuteSequential executes calls one at a time in input order. Each
// call sees the accumulated results of its predecessors under the
// previous_results context key. Execution stops at the first failing
// call; calls after it are never attempted and the partial mapping is
// returned.
func (d *Dispatcher) ExecuteSequential(ctx context.Context, calls []Call, execCtx map[string]interface{}) map[string]Outcome {
	results := make(map[string]Outcome, len(calls))
	if len(calls) == 0 {
		return results
	}

	d.logger.Info().Int("count", len(calls)).Msg("Executing tools sequentially")

	for _, call := range calls {
		merged := make(map[string]interface{}, len(execCtx)+1)
		for k, v := range execCtx {
			merged[k] = v
		}
		merged["previous_results"] = snapshotResults(results)

		args := PrepareArguments(call.Arguments, merged)
		outcome := d.executeSingle(ctx, call, args)
		results[call.ToolName] = outcome

		if outcome.Failed() {
			d.logger.Warn().
				Str("tool", call.ToolName).
				Str("error", outcome.Error).
				Msg("Sequential execution stopped on error")
			break
		}
	}

	return results
}

// executeSingle runs one call under its timeout and converts every
// failure mode into an Outcome
func (d *Dispatcher) executeSingle(ctx context.Context, call Call, args map[string]interface{}) Outcome {
	start := time.Now()

	callID := call.CallID
	if callID == "" {
		callID, _ = gonanoid.New()
	}
	logger := d.logger.With().Str("tool", call.ToolName).Str("call_id", callID).Logger()

	def, ok := d.registry.Lookup(call.ToolName)
	if !ok {
		logger.Error().Msg("Tool not found in registry")
		return d.settle(call.ToolName, Outcome{
			ToolName: call.ToolName,
			Error:    fmt.Sprintf("tool '%s' not found in registry", call.ToolName),
			Elapsed:  time.Since(start),
		}, "unknown_tool")
	}

	if err := d.registry.ValidateArguments(call.ToolName, args); err != nil {
		logger.Error().Err(err).Msg("Parameter validation failed")
		return d.settle(call.ToolName, Outcome{
			ToolName: call.ToolName,
			Error:    fmt.Sprintf("parameter validation failed: %v", err),
			Elapsed:  time.Since(start),
		}, "invalid_arguments")
	}

	timeout := d.timeoutFor(def.Category)
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug().Dur("timeout", timeout).Msg("Executing tool")

	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("tool panicked: %v", r)
			}
		}()

		result, err := def.Handler(timeoutCtx, args)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- result
		}
	}()

	select {
	case result := <-resultChan:
		elapsed := time.Since(start)
		logger.Debug().Dur("duration", elapsed).Msg("Tool execution completed")
		return d.settle(call.ToolName, Outcome{
			ToolName: call.ToolName,
			Result:   result,
			Elapsed:  elapsed,
		}, "success")

	case err := <-errChan:
		elapsed := time.Since(start)
		logger.Error().Err(err).Dur("duration", elapsed).Msg("Tool execution failed")
		return d.settle(call.ToolName, Outcome{
			ToolName: call.ToolName,
			Error:    fmt.Sprintf("tool execution error: %v", err),
			Elapsed:  elapsed,
		}, "error")

	case <-timeoutCtx.Done():
		elapsed := time.Since(start)
		logger.Error().Dur("duration", elapsed).Msg("Tool execution timeout")
		return d.settle(call.ToolName, Outcome{
			ToolName: call.ToolName,
			Error:    fmt.Sprintf("tool execution timed out after %v", timeout),
			Elapsed:  elapsed,
		}, "timeout")
	}
}

// timeoutFor resolves the per-call budget for a tool category
func (d *Dispatcher) timeoutFor(category string) time.Duration {
	if timeout, ok := d.categoryTimeouts[category]; ok && timeout > 0 {
		return timeout
	}
	return d.defaultTimeout
}

func (d *Dispatcher) settle(toolName string, outcome Outcome, status string) Outcome {
	if d.metrics != nil {
		d.metrics.RecordToolExecution(toolName, status, outcome.Elapsed)
	}
	return outcome
}

// snapshotResults copies the accumulated result mapping so a handler
// cannot observe later mutations
func snapshotResults(results map[string]Outcome) map[string]Outcome {
	snapshot := make(map[string]Outcome, len(results))
	for k, v := range results {
		snapshot[k] = v
	}
	return snapshot
}

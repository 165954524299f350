package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sentinelai/sentinel/pkg/registry"
)

const fallbackNarration = "I had trouble understanding how to help with that. Could you rephrase?"

// Client implements Reasoner and Synthesizer over a completion provider
type Client struct {
	provider    Provider
	model       string
	maxTokens   int
	temperature float64
	logger      zerolog.Logger
}

// ClientConfig holds oracle client configuration
type ClientConfig struct {
	Provider    Provider
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      zerolog.Logger
}

// NewClient creates a new oracle client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	return &Client{
		provider:    cfg.Provider,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}, nil
}

// Reason asks the model which tools to invoke for a query. A response
// that cannot be decoded as a plan degrades to an empty plan with zero
// confidence; provider transport errors are returned to the caller.
func (c *Client) Reason(ctx context.Context, query string, execCtx map[string]interface{}, catalog []registry.Definition) (Plan, error) {
	c.logger.Info().Str("provider", c.provider.Name()).Msg("Reasoning on query")

	text, err := c.provider.Complete(ctx, CompletionRequest{
		Model:       c.model,
		System:      BuildSystemPrompt(catalog),
		Prompt:      BuildUserMessage(query, execCtx),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("reasoning call failed: %w", err)
	}

	plan, err := decodePlan(text)
	if err != nil {
		c.logger.Error().Err(err).Str("response", truncateForLog(text)).Msg("Failed to parse plan")
		return Plan{
			Rationale:  "Failed to parse response",
			Narration:  fallbackNarration,
			Confidence: 0,
		}, nil
	}

	c.logger.Info().Int("tool_calls", len(plan.ToolCalls)).Msg("Plan generated")
	return plan, nil
}

// Synthesize turns tool results into a final answer. On provider failure
// the raw results are rendered as text so the response is never lost.
func (c *Client) Synthesize(ctx context.Context, query, rationale string, results map[string]interface{}) (string, error) {
	text, err := c.provider.Complete(ctx, CompletionRequest{
		Model:     c.model,
		Prompt:    BuildSynthesisPrompt(query, rationale, results),
		MaxTokens: 1024,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("Synthesis failed, falling back to raw results")
		resultsJSON, merr := json.MarshalIndent(results, "", "  ")
		if merr != nil {
			return fmt.Sprintf("Tool results: %v", results), nil
		}
		return fmt.Sprintf("Tool results: %s", resultsJSON), nil
	}

	c.logger.Info().Msg("Results synthesized")
	return strings.TrimSpace(text), nil
}

// decodePlan parses a model response into a Plan, tolerating markdown
// code fences around the JSON body
func decodePlan(text string) (Plan, error) {
	cleaned := stripCodeFences(text)

	var plan Plan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return Plan{}, err
	}

	plan.Confidence = 1.0

	return plan, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block if present
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}

func truncateForLog(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}

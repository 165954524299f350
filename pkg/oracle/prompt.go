package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sentinelai/sentinel/pkg/registry"
)

const systemPromptTemplate = `You are Sentinel, an autonomous agent that can use tools to help users.

# YOUR ROLE
You are a reasoning engine that:
1. Understands user queries (text, voice transcripts, image descriptions)
2. Decides which tools to invoke and in what order
3. Synthesizes results into helpful responses

# AVAILABLE TOOLS
%s

# DECISION PROCESS
1. **Analyze the query**: What is the user asking for?
2. **Identify required tools**: Which tools are needed?
3. **Plan execution order**: Can tools run in parallel or must be sequential?
4. **Consider context**: Are there previous results to incorporate?

# RESPONSE FORMAT
You must respond with a JSON object:
{
    "reasoning": "Explain your thought process and why you chose these tools",
    "tool_calls": [
        {
            "tool_name": "exact_tool_name",
            "arguments": {
                "param_name": "value"
            }
        }
    ],
    "response": "User-facing explanation of what you're doing"
}

# IMPORTANT RULES
- If no tools are needed, return an empty tool_calls array and provide a direct response
- For image analysis queries, ALWAYS check if image_data is in context
- For voice queries, check if audio_data or transcript is available
- You can call multiple tools - they will execute in parallel when possible
- Keep reasoning concise but clear
- Make response conversational and helpful

Now respond to the user's query.`

// BuildSystemPrompt renders the reasoning system prompt for a tool catalog
func BuildSystemPrompt(catalog []registry.Definition) string {
	descriptions := make([]string, 0, len(catalog))
	for _, def := range catalog {
		params := make([]string, 0, len(def.Parameters))
		for _, p := range def.Parameters {
			annotation := "(optional)"
			if p.Required {
				annotation = "(required)"
			} else if p.Default != nil {
				annotation = fmt.Sprintf("(optional, default: %v)", p.Default)
			}
			params = append(params, fmt.Sprintf("%s: %s %s", p.Name, p.Type, annotation))
		}
		descriptions = append(descriptions, fmt.Sprintf(
			"• %s(%s)\n  Category: %s\n  Description: %s",
			def.Name, strings.Join(params, ", "), def.Category, def.Description,
		))
	}

	return fmt.Sprintf(systemPromptTemplate, strings.Join(descriptions, "\n\n"))
}

// BuildUserMessage renders the user message for reasoning, summarizing
// large binary payloads instead of inlining them
func BuildUserMessage(query string, execCtx map[string]interface{}) string {
	message := fmt.Sprintf("Query: %s", query)

	if len(execCtx) == 0 {
		return message
	}

	summary := make(map[string]interface{}, len(execCtx))
	for key, value := range execCtx {
		switch key {
		case "image_data":
			if s, ok := value.(string); ok && s != "" {
				summary[key] = fmt.Sprintf("<base64_image_%d_chars>", len(s))
				continue
			}
			summary[key] = value
		case "audio_data":
			if s, ok := value.(string); ok && s != "" {
				summary[key] = fmt.Sprintf("<audio_data_%d_bytes>", len(s))
				continue
			}
			summary[key] = value
		default:
			summary[key] = value
		}
	}

	contextJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return message
	}

	return fmt.Sprintf("%s\n\nContext: %s", message, contextJSON)
}

const synthesisPromptTemplate = `# TASK
Synthesize the following tool results into a helpful, conversational response.

# ORIGINAL QUERY
%s

# YOUR REASONING
%s

# TOOL RESULTS
%s

# INSTRUCTIONS
- Provide a clear, direct answer to the user's query
- Incorporate relevant information from all tool results
- Be conversational and helpful
- If results are incomplete or conflicting, acknowledge it
- Keep response concise but complete
- Do NOT mention tool names or technical details unless relevant

Respond with just the synthesized answer, no JSON or formatting.`

// BuildSynthesisPrompt renders the synthesis prompt from a result view
func BuildSynthesisPrompt(query, rationale string, results map[string]interface{}) string {
	resultsJSON, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		resultsJSON = []byte(fmt.Sprintf("%v", results))
	}

	return fmt.Sprintf(synthesisPromptTemplate, query, rationale, resultsJSON)
}

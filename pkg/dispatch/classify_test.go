package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDependencies_AllIndependent(t *testing.T) {
	calls := []Call{
		{ToolName: "get_weather", Arguments: map[string]interface{}{"city": "Austin"}},
		{ToolName: "get_news", Arguments: map[string]interface{}{"query": "markets"}},
	}

	independent, dependent := AnalyzeDependencies(calls)

	assert.Len(t, independent, 2)
	assert.Empty(t, dependent)
}

func TestAnalyzeDependencies_SubstringMatchFlagsDependent(t *testing.T) {
	calls := []Call{
		{ToolName: "analyze_image", Arguments: map[string]interface{}{"prompt": "describe"}},
		{ToolName: "search_knowledge", Arguments: map[string]interface{}{
			"query": "use the ANALYZE_IMAGE output to find docs",
		}},
	}

	independent, dependent := AnalyzeDependencies(calls)

	require.Len(t, dependent, 1)
	assert.Equal(t, "search_knowledge", dependent[0].ToolName)
	require.Len(t, independent, 1)
	assert.Equal(t, "analyze_image", independent[0].ToolName)
}

func TestAnalyzeDependencies_OwnNameIgnored(t *testing.T) {
	calls := []Call{
		{ToolName: "web_search", Arguments: map[string]interface{}{"query": "how does web_search work"}},
	}

	independent, dependent := AnalyzeDependencies(calls)

	assert.Len(t, independent, 1)
	assert.Empty(t, dependent)
}

func TestAnalyzeDependencies_PreservesInputOrder(t *testing.T) {
	calls := []Call{
		{ToolName: "fetch_logs", Arguments: map[string]interface{}{"next": "pipe into parse_report"}},
		{ToolName: "parse_report"},
		{ToolName: "summarize", Arguments: map[string]interface{}{"input": "use parse_report output"}},
	}

	independent, dependent := AnalyzeDependencies(calls)

	require.Len(t, dependent, 2)
	assert.Equal(t, "fetch_logs", dependent[0].ToolName)
	assert.Equal(t, "summarize", dependent[1].ToolName)
	require.Len(t, independent, 1)
	assert.Equal(t, "parse_report", independent[0].ToolName)
}

func TestAnalyzeDependencies_EmptyBatch(t *testing.T) {
	independent, dependent := AnalyzeDependencies(nil)
	assert.Empty(t, independent)
	assert.Empty(t, dependent)
}

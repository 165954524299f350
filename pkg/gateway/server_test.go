package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelai/sentinel/pkg/dispatch"
	"github.com/sentinelai/sentinel/pkg/oracle"
	"github.com/sentinelai/sentinel/pkg/pipeline"
	"github.com/sentinelai/sentinel/pkg/registry"
)

type scriptedReasoner struct {
	plan oracle.Plan
}

func (r *scriptedReasoner) Reason(_ context.Context, query string, _ map[string]interface{}, _ []registry.Definition) (oracle.Plan, error) {
	plan := r.plan
	// Surface the contextualized query so multi-turn tests can observe it
	if plan.Narration == "" {
		plan.Narration = "echo: " + query
	}
	return plan, nil
}

type scriptedSynthesizer struct {
	answer string
}

func (s *scriptedSynthesizer) Synthesize(context.Context, string, string, map[string]interface{}) (string, error) {
	return s.answer, nil
}

func newTestServer(t *testing.T, plan oracle.Plan, answer string) *Server {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(registry.Definition{
		Name:        "get_time",
		Description: "Current time",
		Category:    "live_data",
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			return "12:00", nil
		},
	}))

	disp, err := dispatch.New(dispatch.Config{Registry: reg, Logger: zerolog.Nop()})
	require.NoError(t, err)

	p, err := pipeline.New(pipeline.Config{
		Reasoner:    &scriptedReasoner{plan: plan},
		Synthesizer: &scriptedSynthesizer{answer: answer},
		Registry:    reg,
		Dispatcher:  disp,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	server, err := NewServer(Config{
		Host:     "127.0.0.1",
		Port:     8765,
		Pipeline: p,
		Registry: reg,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	return server
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestWebSocketPingPong(t *testing.T) {
	server := newTestServer(t, oracle.Plan{}, "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "pong", reply["type"])
}

func TestWebSocketQueryStreamsEvents(t *testing.T) {
	plan := oracle.Plan{
		Rationale: "time check",
		ToolCalls: []dispatch.Call{{ToolName: "get_time"}},
	}
	server := newTestServer(t, plan, "It is noon.")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "query", "query": "what time is it?"}))

	var stages []string
	for {
		var event pipeline.Event
		require.NoError(t, conn.ReadJSON(&event))
		stages = append(stages, event.Stage)
		if event.Stage == pipeline.StageComplete || event.Stage == pipeline.StageFailed {
			assert.Equal(t, "It is noon.", event.Data["response"])
			break
		}
	}

	assert.Equal(t, []string{
		pipeline.StageReasoning,
		pipeline.StageReasoningComplete,
		pipeline.StageExecutingTools,
		pipeline.StageToolsComplete,
		pipeline.StageSynthesizing,
		pipeline.StageComplete,
	}, stages)
}

func TestWebSocketCarriesHistory(t *testing.T) {
	server := newTestServer(t, oracle.Plan{}, "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)

	ask := func(query string) string {
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "query", "query": query}))
		for {
			var event pipeline.Event
			require.NoError(t, conn.ReadJSON(&event))
			if event.Stage == pipeline.StageComplete {
				return event.Data["response"].(string)
			}
		}
	}

	first := ask("first question")
	assert.Equal(t, "echo: first question", first)

	// The follow-up query reaches the reasoner with prior turns prepended
	second := ask("follow up")
	assert.Contains(t, second, "Previous conversation:")
	assert.Contains(t, second, "User: first question")
	assert.Contains(t, second, "Current query: follow up")
}

func TestWebSocketUnknownType(t *testing.T) {
	server := newTestServer(t, oracle.Plan{}, "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))

	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply["type"])
	assert.Contains(t, reply["message"], "unknown message type")
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, oracle.Plan{}, "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, float64(1), payload["tools"])
}

func TestToolsEndpointGroupsByCategory(t *testing.T) {
	server := newTestServer(t, oracle.Plan{}, "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		Total           int                                 `json:"total"`
		Categories      []string                            `json:"categories"`
		ToolsByCategory map[string][]map[string]interface{} `json:"tools_by_category"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.Equal(t, 1, payload.Total)
	assert.Contains(t, payload.Categories, "live_data")
	require.Len(t, payload.ToolsByCategory["live_data"], 1)
	assert.Equal(t, "get_time", payload.ToolsByCategory["live_data"][0]["name"])
}

func TestQueryEndpoint(t *testing.T) {
	plan := oracle.Plan{ToolCalls: []dispatch.Call{{ToolName: "get_time"}}}
	server := newTestServer(t, plan, "It is noon.")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json",
		strings.NewReader(`{"query": "what time is it?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload pipeline.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "It is noon.", payload.Answer)
	assert.Contains(t, payload.ToolResults, "get_time")
}

func TestQueryEndpointRejectsEmptyQuery(t *testing.T) {
	server := newTestServer(t, oracle.Plan{}, "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKnowledgeAddWithoutStore(t *testing.T) {
	server := newTestServer(t, oracle.Plan{}, "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/knowledge/add", "application/json",
		strings.NewReader(`{"text": "a fact"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

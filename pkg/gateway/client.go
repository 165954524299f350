package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sentinelai/sentinel/pkg/pipeline"
)

// historyLimit bounds the per-connection conversation memory
const historyLimit = 20

// clientFrame is an inbound WebSocket message
type clientFrame struct {
	Type    string                 `json:"type"`
	Query   string                 `json:"query,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// client is one live WebSocket connection with its conversation history
type client struct {
	id      string
	conn    *websocket.Conn
	history []pipeline.Turn
	writeMu sync.Mutex
}

func (c *client) send(payload interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(payload)
}

func (c *client) remember(query, response string) {
	c.history = append(c.history, pipeline.Turn{Query: query, Response: response})
	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}
}

// handleWebSocket upgrades the connection and serves frames until the
// client goes away
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
	}
	s.addClient(c)

	s.logger.Info().
		Str("client_id", c.id).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	defer func() {
		conn.Close()
		s.removeClient(c.id)
		s.logger.Info().Str("client_id", c.id).Msg("Client disconnected")
	}()

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Str("client_id", c.id).Msg("Read error")
			}
			return
		}

		switch frame.Type {
		case "ping":
			if err := c.send(map[string]string{"type": "pong"}); err != nil {
				return
			}

		case "query":
			if frame.Query == "" {
				if err := c.send(map[string]string{"type": "error", "message": "query is required"}); err != nil {
					return
				}
				continue
			}
			if err := s.streamQuery(c, frame); err != nil {
				return
			}

		default:
			if err := c.send(map[string]string{"type": "error", "message": "unknown message type: " + frame.Type}); err != nil {
				return
			}
		}
	}
}

// streamQuery runs one query through the pipeline, forwarding each event
// to the client as it happens
func (s *Server) streamQuery(c *client, frame clientFrame) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	events := s.pipeline.ProcessStreamWithHistory(ctx, frame.Query, frame.Context, c.history)

	var finalResponse string
	for event := range events {
		if event.Type == pipeline.EventFinalResponse {
			if response, ok := event.Data["response"].(string); ok {
				finalResponse = response
			}
		}

		if err := c.send(event); err != nil {
			s.logger.Warn().Err(err).Str("client_id", c.id).Msg("Failed to send event")
			return err
		}
	}

	if finalResponse != "" {
		c.remember(frame.Query, finalResponse)
	}
	return nil
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "SentinelAI",
		"version": "1.0.0",
		"status":  "running",
		"tools":   s.registry.Len(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]interface{}{
		"status": "healthy",
		"tools":  s.registry.Len(),
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if count, err := s.store.Count(ctx); err == nil {
			payload["documents_indexed"] = count
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	byCategory := make(map[string][]map[string]interface{})
	for _, def := range s.registry.List("") {
		byCategory[def.Category] = append(byCategory[def.Category], map[string]interface{}{
			"name":        def.Name,
			"description": def.Description,
			"parameters":  def.Parameters,
			"category":    def.Category,
		})
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":             s.registry.Len(),
		"categories":        categories,
		"tools_by_category": byCategory,
	})
}

type queryRequest struct {
	Query   string                 `json:"query"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	resp := s.pipeline.Process(ctx, req.Query, req.Context)
	writeJSON(w, http.StatusOK, resp)
}

type knowledgeAddRequest struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Server) handleKnowledgeAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge store is not configured")
		return
	}

	var req knowledgeAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	docID, err := s.store.AddDocument(ctx, req.Text, req.Metadata)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to add document")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"doc_id":  docID,
		"message": "Document added",
	})
}

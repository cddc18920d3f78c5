package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pranav-agent/pranav/pkg/logger"
	"github.com/pranav-agent/pranav/pkg/session"
	"github.com/pranav-agent/pranav/pkg/storage"
	"github.com/pranav-agent/pranav/pkg/telemetry"
	"github.com/pranav-agent/pranav/pkg/version"
)

// ProcessRequest is the body of POST /api/process.
type ProcessRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
}

// ProcessResponse is the reply to POST /api/process.
type ProcessResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

// TaskRequest is the body of POST /api/tasks.
type TaskRequest struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// LearnRequest is the body of POST /api/learn.
type LearnRequest struct {
	Data map[string]any `json:"data"`
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	AgentName string `json:"agent_name,omitempty"`
}

// SessionSummary is the list representation of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	AgentName    string    `json:"agent_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Summary      string    `json:"summary"`
	MessageCount int       `json:"message_count"`
}

// ListSessionsResponse is the reply to GET /api/sessions.
type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, map[string]any{
		"status":  "ok",
		"agent":   s.agent.Name(),
		"version": version.Get().Version,
	})
}

// handleProcess handles POST /api/process. With a session_id the exchange
// is appended to that session; without one the request is stateless.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	response := s.agent.ProcessInput(ctx, req.Input)

	if req.SessionID != "" {
		_, err := s.sessions.Append(ctx, req.SessionID,
			session.NewMessage(session.RoleUser, req.Input),
			session.NewMessage(session.RoleAgent, response),
		)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.writeErrorResponse(w, http.StatusNotFound, "session not found", err)
				return
			}
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to update session", err)
			return
		}
	}

	s.writeJSONResponse(w, ProcessResponse{Response: response, SessionID: req.SessionID})
}

// handleExecuteTask handles POST /api/tasks.
func (s *Server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "task name is required", nil)
		return
	}

	result, err := s.agent.ExecuteTask(ctx, req.Name, req.Parameters)
	if err != nil {
		telemetry.RecordError(ctx, err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "task execution failed", err)
		return
	}

	s.writeJSONResponse(w, result)
}

// handleLearn handles POST /api/learn.
func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LearnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Data) == 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, "data is required", nil)
		return
	}

	if err := s.agent.Learn(ctx, req.Data); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to learn data", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListSessions handles GET /api/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list sessions", err)
		return
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, SessionSummary{
			ID:           sess.ID,
			AgentName:    sess.AgentName,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
			Summary:      sess.Summary(),
			MessageCount: len(sess.Messages),
		})
	}

	s.writeJSONResponse(w, ListSessionsResponse{Sessions: summaries, Total: len(summaries)})
}

// handleCreateSession handles POST /api/sessions. The body is optional.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	agentName := req.AgentName
	if agentName == "" {
		agentName = s.agent.Name()
	}

	sess, err := s.sessions.Start(ctx, agentName)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode session response")
	}
}

// handleGetSession handles GET /api/sessions/{id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeErrorResponse(w, http.StatusNotFound, "session not found", err)
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to get session", err)
		return
	}

	s.writeJSONResponse(w, sess)
}

// handleDeleteSession handles DELETE /api/sessions/{id}.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.sessions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeErrorResponse(w, http.StatusNotFound, "session not found", err)
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to delete session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListNamespaces handles GET /api/memory.
func (s *Server) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := s.store.ListNamespaces(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list namespaces", err)
		return
	}

	s.writeJSONResponse(w, map[string]any{"namespaces": namespaces})
}

// handleListKeys handles GET /api/memory/{namespace}.
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	namespace := mux.Vars(r)["namespace"]

	keys, err := s.store.ListKeys(r.Context(), namespace)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list keys", err)
		return
	}

	s.writeJSONResponse(w, map[string]any{"namespace": namespace, "keys": keys})
}

// handleGetMemory handles GET /api/memory/{namespace}/{key}. The stored
// JSON value is returned verbatim.
func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	raw, err := s.store.Retrieve(r.Context(), vars["key"], vars["namespace"])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeErrorResponse(w, http.StatusNotFound, "key not found", err)
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to retrieve value", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// handlePutMemory handles PUT /api/memory/{namespace}/{key}. The request
// body is stored as the JSON value.
func (s *Server) handlePutMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	if !json.Valid(body) {
		s.writeErrorResponse(w, http.StatusBadRequest, "request body must be valid JSON", nil)
		return
	}

	if err := s.store.Store(r.Context(), vars["key"], json.RawMessage(body), vars["namespace"]); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to store value", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteMemory handles DELETE /api/memory/{namespace}/{key}.
// Deleting an absent key succeeds.
func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.store.Delete(r.Context(), vars["key"], vars["namespace"]); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to delete value", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

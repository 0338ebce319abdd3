package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/engine"
	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/tools"
)

var errBadRequest = goerr.New("invalid request")

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// EmotionEvent is an emotion memory as returned by /v1/memory/emotions.
type EmotionEvent struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Metadata    memory.Metadata `json:"metadata"`
}

// StoreRequest is the body of POST /v1/memory/{kind}. Which fields are read
// depends on the kind.
type StoreRequest struct {
	// conversations
	UserInput         string            `json:"user_input,omitempty"`
	Response          string            `json:"response,omitempty"`
	Topics            []string          `json:"topics,omitempty"`
	RelationshipStage string            `json:"relationship_stage,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`

	// conversations, emotion_events
	Emotion string `json:"emotion,omitempty"`

	// knowledge
	Fact   string `json:"fact,omitempty"`
	Source string `json:"source,omitempty"`

	// knowledge, observations
	Confidence float64 `json:"confidence,omitempty"`
	Category   string  `json:"category,omitempty"`

	// emotion_events
	Description string  `json:"description,omitempty"`
	Intensity   float64 `json:"intensity,omitempty"`
	Trigger     string  `json:"trigger,omitempty"`

	// goals_and_plans
	Goal     string `json:"goal,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority int    `json:"priority,omitempty"`
	Context  string `json:"context,omitempty"`

	// observations
	Observation string `json:"observation,omitempty"`
}

func (req *StoreRequest) record(kind memory.Kind) (memory.Record, error) {
	var (
		rec      memory.Record
		field    string
		required string
	)
	switch kind {
	case memory.KindConversations:
		rec = memory.Conversation{
			UserInput:         req.UserInput,
			Response:          req.Response,
			Emotion:           req.Emotion,
			Topics:            req.Topics,
			RelationshipStage: req.RelationshipStage,
			Extra:             req.Extra,
		}
		field, required = "user_input", req.UserInput+req.Response
	case memory.KindKnowledge:
		rec = memory.Knowledge{Fact: req.Fact, Source: req.Source, Confidence: req.Confidence, Category: req.Category}
		field, required = "fact", req.Fact
	case memory.KindEmotions:
		rec = memory.EmotionEvent{Description: req.Description, Emotion: req.Emotion, Intensity: req.Intensity, Trigger: req.Trigger}
		field, required = "description", req.Description
	case memory.KindGoals:
		rec = memory.Goal{Goal: req.Goal, Status: req.Status, Priority: req.Priority, Context: req.Context}
		field, required = "goal", req.Goal
	case memory.KindObservations:
		rec = memory.Observation{Observation: req.Observation, Category: req.Category, Confidence: req.Confidence}
		field, required = "observation", req.Observation
	default:
		return nil, goerr.Wrap(memory.ErrUnknownKind, "store", goerr.V("kind", kind))
	}
	if strings.TrimSpace(required) == "" {
		return nil, goerr.Wrap(errBadRequest, field+" must not be empty")
	}
	return rec, nil
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message           string   `json:"message"`
	SystemPrompt      string   `json:"system_prompt,omitempty"`
	SessionID         string   `json:"session_id,omitempty"`
	Emotion           string   `json:"emotion,omitempty"`
	Topics            []string `json:"topics,omitempty"`
	RelationshipStage string   `json:"relationship_stage,omitempty"`
}

// ChatResponse is the body returned by POST /v1/chat.
type ChatResponse struct {
	Reply         string `json:"reply"`
	SessionID     string `json:"session_id"`
	MemoryContext string `json:"memory_context,omitempty"`
}

// ConsolidateRequest is the body of POST /v1/memory/consolidate.
type ConsolidateRequest struct {
	Topic string `json:"topic"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"memory_enabled": s.store.Enabled(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if strings.TrimSpace(query) == "" {
		s.writeError(w, goerr.Wrap(errBadRequest, "query must not be empty"))
		return
	}
	kind, err := memory.ParseKind(q.Get("type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var opts []memory.RecallOption
	if raw := q.Get("time_weight"); raw != "" {
		tw, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, goerr.Wrap(errBadRequest, "time_weight must be a number"))
			return
		}
		opts = append(opts, memory.WithTimeWeight(tw))
	}
	if emotion := q.Get("emotion"); emotion != "" {
		opts = append(opts, memory.WithWhere(map[string]string{memory.KeyEmotion: emotion}))
	}

	results := s.store.Recall(r.Context(), query, kind, limit, opts...)
	if results == nil {
		results = []memory.RecallResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := q.Get("input")
	if strings.TrimSpace(input) == "" {
		s.writeError(w, goerr.Wrap(errBadRequest, "input must not be empty"))
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if limit == 0 {
		limit = 3
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"context": s.store.RelevantContext(r.Context(), input, limit),
	})
}

func (s *Server) handleAboutUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if strings.TrimSpace(query) == "" {
		s.writeError(w, goerr.Wrap(errBadRequest, "query must not be empty"))
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	results := s.store.RecallAboutUser(r.Context(), query, limit)
	if results == nil {
		results = []memory.RecallResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleEmotions(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	matches := s.store.EmotionalContext(r.Context(), limit)
	events := make([]EmotionEvent, 0, len(matches))
	for _, m := range matches {
		events = append(events, EmotionEvent{ID: m.ID, Description: m.Text, Metadata: m.Metadata})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":     s.store.Enabled(),
		"collections": s.store.Stats(),
		"metrics":     s.store.Metrics(),
	})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, goerr.Wrap(errBadRequest, err.Error()))
		return
	}
	rec, err := req.record(kind)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.store.Put(r.Context(), rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tools.Stored{ID: id, Collection: string(kind)})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.ClearCollection(r.Context(), kind); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "collection": string(kind)})
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	if s.gen == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "no generator configured")
		return
	}
	var req ConsolidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, goerr.Wrap(errBadRequest, err.Error()))
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		s.writeError(w, goerr.Wrap(errBadRequest, "topic must not be empty"))
		return
	}

	summary, err := s.store.Consolidate(r.Context(), s.gen, req.Topic, req.Limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "no generator configured")
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, goerr.Wrap(errBadRequest, err.Error()))
		return
	}

	out, err := s.engine.Run(r.Context(), &engine.Input{
		UserMessage:       req.Message,
		SystemPrompt:      req.SystemPrompt,
		SessionID:         req.SessionID,
		Emotion:           req.Emotion,
		Topics:            req.Topics,
		RelationshipStage: req.RelationshipStage,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:         out.Text,
		SessionID:     out.SessionID,
		MemoryContext: out.MemoryContext,
	})
}

func pathKind(r *http.Request) (memory.Kind, error) {
	kind, err := memory.ParseKind(r.PathValue("kind"))
	if err != nil {
		return "", err
	}
	if kind == memory.KindAll {
		return "", goerr.Wrap(memory.ErrUnknownKind, "a single collection is required", goerr.V("kind", kind))
	}
	return kind, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, goerr.Wrap(errBadRequest, "limit must be a non-negative integer", goerr.V("limit", raw))
	}
	return min(n, memory.MaxResults), nil
}

// classify maps an error to an HTTP status and an error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, memory.ErrUnknownKind),
		errors.Is(err, engine.ErrEmptyMessage),
		errors.Is(err, tools.ErrInvalidInput),
		errors.Is(err, tools.ErrThoughtRequired):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, memory.ErrNothingToConsolidate):
		return http.StatusNotFound, "no_memories"
	case errors.Is(err, memory.ErrDisabled), errors.Is(err, memory.ErrIndexUnavailable):
		return http.StatusServiceUnavailable, "memory_unavailable"
	default:
		return http.StatusInternalServerError, "memory_error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, errType := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeError(w, status, errType, err.Error())
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: errType, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

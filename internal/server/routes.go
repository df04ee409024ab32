package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lazypower/verdict/internal/decision"
	"github.com/lazypower/verdict/internal/engine"
)

// maxProcessBody bounds the text accepted by the process endpoint.
const maxProcessBody = 1 << 20

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
		Role      string `json:"role"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProcessBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	keys, err := s.engine.Process(r.Context(), req.Text, req.SessionID, req.Role)
	if err != nil {
		s.logger.Warn("process failed",
			zap.String("session_id", req.SessionID),
			zap.Strings("stored", keys),
			zap.Error(err))
		body := map[string]any{"error": engine.ErrNotRecorded.Error()}
		if errors.Is(err, engine.ErrResolutionPending) {
			body["keys"] = keys
			body["resolution_pending"] = true
		}
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}

	opts := engine.SearchOpts{SessionID: q.Get("session")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("include_superseded"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_superseded must be a boolean")
			return
		}
		opts.IncludeSuperseded = b
	}

	resp, err := s.engine.Search(r.Context(), query, opts)
	if err != nil {
		s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, engine.ErrSearchUnavailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	d, err := s.db.GetDecision(r.Context(), key)
	if err != nil {
		s.logger.Warn("get decision failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "decision not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	hist, err := s.db.History(r.Context(), key)
	if err != nil {
		s.logger.Warn("history failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if hist == nil {
		hist = []decision.SupersedenceRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "history": hist})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	superseded, err := s.engine.Resolve(r.Context(), key)
	if err != nil {
		s.logger.Warn("resolve failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, engine.ErrResolutionPending.Error())
		return
	}
	if superseded == nil {
		superseded = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "superseded": superseded})
}

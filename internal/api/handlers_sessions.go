package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.Sessions().Get(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleDeleteSession forgets the session and removes everything persisted
// under it.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	removed := s.orchestrator.Sessions().Delete(id)

	persisted := false
	if store := s.orchestrator.Store(); store != nil {
		if err := store.DeleteSession(r.Context(), id); err != nil {
			s.log.Error("delete persisted session failed", zap.String("session_id", id), zap.Error(err))
			jsonError(w, "failed to delete persisted session: "+err.Error(), http.StatusBadGateway)
			return
		}
		persisted = true
	}
	if !removed && !persisted {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        id,
		"session_deleted":   removed,
		"persisted_deleted": persisted,
	})
}

// handleDeleteDocument removes one document from a session. Later runs no
// longer include it; its index is never reused.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	idx, err := strconv.Atoi(chi.URLParam(r, "docIndex"))
	if err != nil || idx < 1 {
		jsonError(w, "docIndex must be a positive integer", http.StatusBadRequest)
		return
	}
	sess := s.orchestrator.Sessions().Get(id)
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	if !sess.RemoveDocument(idx) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if store := s.orchestrator.Store(); store != nil {
		if err := store.DeleteDocument(r.Context(), id, idx); err != nil {
			s.log.Warn("delete persisted document failed",
				zap.String("session_id", id), zap.Int("doc", idx), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		jsonError(w, "persistence is disabled", http.StatusNotFound)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := store.ListRuns(r.Context(), chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		jsonError(w, "failed to list runs: "+err.Error(), http.StatusBadGateway)
		return
	}
	if runs == nil {
		runs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		jsonError(w, "persistence is disabled", http.StatusNotFound)
		return
	}
	item, err := store.LoadSummary(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "runID"))
	if err != nil {
		jsonError(w, "failed to load run: "+err.Error(), http.StatusBadGateway)
		return
	}
	if item == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

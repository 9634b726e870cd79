package server

import (
	"log/slog"
	"net/http"

	"github.com/remindai/remind/internal/journal"
)

// searchTopK bounds semantic search results per query.
const searchTopK = 10

func (s *Server) listMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := s.store.ListMemories(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

func (s *Server) addMemory(w http.ResponseWriter, r *http.Request) {
	var m journal.Memory
	if !readJSON(w, r, &m) {
		return
	}
	m.UserID = userID(r)
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.AddMemory(r.Context(), m)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.indexMemory(r, created)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getMemory(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMemory(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) updateMemory(w http.ResponseWriter, r *http.Request) {
	var m journal.Memory
	if !readJSON(w, r, &m) {
		return
	}
	m.ID = r.PathValue("id")
	m.UserID = userID(r)
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateMemory(r.Context(), m); err != nil {
		writeStoreError(w, err)
		return
	}
	s.indexMemory(r, m)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMemory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteMemory(r.Context(), userID(r), id); err != nil {
		writeStoreError(w, err)
		return
	}
	if s.semantic != nil {
		if err := s.semantic.RemoveMemory(r.Context(), id); err != nil {
			slog.Warn("failed to drop memory embedding", "memory_id", id, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) searchMemories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	uid := userID(r)

	if s.semantic != nil && query != "" {
		hits, err := s.semantic.Search(r.Context(), uid, query, searchTopK)
		if err == nil {
			memories := make([]journal.Memory, len(hits))
			for i, h := range hits {
				memories[i] = h.Memory
			}
			writeJSON(w, http.StatusOK, memories)
			return
		}
		// Semantic search is best-effort; substring search still answers.
		slog.Warn("semantic search failed, falling back to substring match", "err", err)
	}

	memories, err := s.store.SearchMemories(r.Context(), uid, query)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

// indexMemory updates the semantic index after a write. Indexing failures
// never fail the request.
func (s *Server) indexMemory(r *http.Request, m journal.Memory) {
	if s.semantic == nil {
		return
	}
	if err := s.semantic.IndexMemory(r.Context(), m); err != nil {
		slog.Warn("failed to index memory", "memory_id", m.ID, "err", err)
	}
}

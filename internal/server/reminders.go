package server

import (
	"net/http"

	"github.com/remindai/remind/internal/journal"
)

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.store.ListReminders(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) addReminder(w http.ResponseWriter, r *http.Request) {
	var rem journal.Reminder
	if !readJSON(w, r, &rem) {
		return
	}
	rem.UserID = userID(r)
	if err := rem.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.AddReminder(r.Context(), rem)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	rem, err := s.store.GetReminder(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) updateReminder(w http.ResponseWriter, r *http.Request) {
	var rem journal.Reminder
	if !readJSON(w, r, &rem) {
		return
	}
	rem.ID = r.PathValue("id")
	rem.UserID = userID(r)
	if err := rem.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateReminder(r.Context(), rem); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReminder(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// completeRequest is the body for POST /api/reminders/{id}/complete. An
// absent body marks the reminder completed.
type completeRequest struct {
	Completed *bool `json:"completed"`
}

func (s *Server) completeReminder(w http.ResponseWriter, r *http.Request) {
	completed := true
	if r.ContentLength > 0 {
		var req completeRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Completed != nil {
			completed = *req.Completed
		}
	}

	rem, err := s.store.SetReminderCompleted(r.Context(), userID(r), r.PathValue("id"), completed)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

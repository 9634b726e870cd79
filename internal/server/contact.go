package server

import (
	"fmt"
	"net/http"

	"github.com/remindai/remind/internal/journal"
)

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Contact(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "no emergency contact configured")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) putContact(w http.ResponseWriter, r *http.Request) {
	var c journal.EmergencyContact
	if !readJSON(w, r, &c) {
		return
	}
	c.UserID = userID(r)
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SetContact(r.Context(), c); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// sosResponse is the body for POST /api/sos. Alerted is false when no
// contact is configured; the alert then degrades to a setup reminder.
type sosResponse struct {
	Alerted bool                      `json:"alerted"`
	Contact *journal.EmergencyContact `json:"contact,omitempty"`
	Message string                    `json:"message"`
}

func (s *Server) triggerSOS(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Contact(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if c == nil {
		writeJSON(w, http.StatusOK, sosResponse{
			Message: "No emergency contact set. Please set up your emergency contact in settings.",
		})
		return
	}

	s.metrics.RecordSOS(r.Context())
	writeJSON(w, http.StatusOK, sosResponse{
		Alerted: true,
		Contact: c,
		Message: fmt.Sprintf("Emergency alert! Calling %s...", c.Name),
	})
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeline-editor/session"
)

type dragSummary struct {
	State   session.State    `json:"state"`
	Preview *session.Preview `json:"preview,omitempty"`
}

// dragStatus reports the process-wide drag state and, while a gesture is
// live, its preview.
func (h *handler) dragStatus(w http.ResponseWriter, r *http.Request) {
	status := dragSummary{State: h.drags.State()}
	if s, ok := h.drags.Active(); ok {
		pv := s.Preview()
		status.Preview = &pv
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handler) getDrag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.drags.Get(chi.URLParam(r, "sessionId"))
	if !ok {
		http.Error(w, "drag not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.Preview())
}

// cancelDrag aborts the current gesture from outside its socket. The socket
// sees the gesture as no longer active on its next message.
func (h *handler) cancelDrag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if err := h.drags.Cancel(id); err != nil {
		http.Error(w, "drag not found", http.StatusNotFound)
		return
	}
	h.log.Info("drag cancelled", slog.String("session", id))
	w.WriteHeader(http.StatusNoContent)
}

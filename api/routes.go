package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"timeline-editor/logging"
	"timeline-editor/preset"
	"timeline-editor/session"
)

// maxBody bounds request and import payloads.
const maxBody = 4 << 20

func RegisterRoutes(presets *preset.Manager, drags *session.Manager, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{presets: presets, drags: drags, log: logging.WithComponent(log, "api")}

	r.Route("/api", func(r chi.Router) {
		r.Get("/presets", h.listPresets)
		r.Post("/presets", h.createPreset)
		r.Put("/presets", h.replacePresets)
		r.Post("/presets/import", h.importPreset)

		r.Route("/presets/{id}", func(r chi.Router) {
			r.Get("/", h.getPreset)
			r.Put("/", h.putPreset)
			r.Delete("/", h.deletePreset)
			r.Post("/duplicate", h.duplicatePreset)
			r.Get("/export", h.exportPreset)
			r.Post("/import", h.importIntoPreset)

			r.Get("/rosters", h.getRosters)
			r.Patch("/rosters/{kind}/{slot}", h.patchSlot)
			r.Post("/rosters/{kind}/reorder", h.reorderRoster)

			r.Post("/timeline", h.insertEvent)
			r.Post("/timeline/reorder", h.reorderTimeline)
			r.Delete("/timeline/{eventId}", h.removeEvent)
			r.Put("/timeline/{eventId}/time", h.setEventTime)

			// WebSocket
			r.Get("/drag", h.handleDrag)
		})

		r.Get("/drag", h.dragStatus)
		r.Get("/drag/{sessionId}", h.getDrag)
		r.Delete("/drag/{sessionId}", h.cancelDrag)

		r.Get("/selection", h.getSelection)
		r.Put("/selection", h.putSelection)

		r.Get("/export", h.exportAll)
		r.Post("/import", h.importAll)
	})

	return r
}

type handler struct {
	presets *preset.Manager
	drags   *session.Manager
	log     *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
}

// editResult writes the outcome of a preset.Manager edit.
func (h *handler) editResult(w http.ResponseWriter, p preset.Preset, ok bool, err error) {
	if err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

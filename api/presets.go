package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeline-editor/preset"
	"timeline-editor/transfer"
)

func (h *handler) listPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.presets.Snapshot())
}

func (h *handler) createPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	// An empty body creates a preset with the default name.
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := h.presets.Create(req.Name)
	if err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// replacePresets swaps the whole collection. Ids are kept, except that
// missing or repeated ones are replaced.
func (h *handler) replacePresets(w http.ResponseWriter, r *http.Request) {
	data, ok := readPayload(w, r)
	if !ok {
		return
	}
	presets, err := transfer.DecodeCollection(data)
	if err != nil {
		h.rejectImport(w, err)
		return
	}
	seen := make(map[string]bool, len(presets))
	for i, p := range presets {
		if p.ID == "" || seen[p.ID] {
			presets[i] = transfer.ReassignIDs(p)
		}
		seen[presets[i].ID] = true
	}
	if err := h.presets.BulkReplace(presets); err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.presets.Snapshot())
}

func (h *handler) getPreset(w http.ResponseWriter, r *http.Request) {
	p, ok := h.presets.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// putPreset replaces a preset's content. The body is checked like an import
// of a single preset; the id in the path wins.
func (h *handler) putPreset(w http.ResponseWriter, r *http.Request) {
	data, ok := readPayload(w, r)
	if !ok {
		return
	}
	p, err := transfer.DecodePreset(data)
	if err != nil {
		h.rejectImport(w, err)
		return
	}
	p.ID = chi.URLParam(r, "id")
	found, err := h.presets.Update(p)
	h.editResult(w, p, found, err)
}

func (h *handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	ok, err := h.presets.Delete(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) duplicatePreset(w http.ResponseWriter, r *http.Request) {
	cp, ok, err := h.presets.Duplicate(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, cp)
}

type selection struct {
	SelectedPresetID *string        `json:"selectedPresetId"`
	Preset           *preset.Preset `json:"preset,omitempty"`
}

func (h *handler) currentSelection() selection {
	p, ok := h.presets.Selected()
	if !ok {
		return selection{}
	}
	return selection{SelectedPresetID: &p.ID, Preset: &p}
}

// getSelection returns the selected id along with the preset it names.
func (h *handler) getSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentSelection())
}

// putSelection sets or, with a null id, clears the selection. Unknown ids
// leave it unchanged.
func (h *handler) putSelection(w http.ResponseWriter, r *http.Request) {
	var req selection
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id := ""
	if req.SelectedPresetID != nil {
		id = *req.SelectedPresetID
	}
	if _, err := h.presets.Select(id); err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.currentSelection())
}

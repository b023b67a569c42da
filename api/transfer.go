package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeline-editor/preset"
	"timeline-editor/transfer"
)

// rejectImport answers a malformed payload with 400. The collection is left
// as it was.
func (h *handler) rejectImport(w http.ResponseWriter, err error) {
	h.log.Warn("import rejected", slog.Any("err", err))
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func readPayload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func exportFormat(w http.ResponseWriter, r *http.Request) (transfer.Format, bool) {
	f, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return f, true
}

func writeExport(w http.ResponseWriter, v any, f transfer.Format, filename string) {
	data, err := transfer.Encode(v, f)
	if err != nil {
		http.Error(w, "failed to encode export", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

// exportAll writes every preset as a bare list.
func (h *handler) exportAll(w http.ResponseWriter, r *http.Request) {
	f, ok := exportFormat(w, r)
	if !ok {
		return
	}
	writeExport(w, h.presets.Snapshot().Presets, f, "presets"+f.Ext())
}

func (h *handler) exportPreset(w http.ResponseWriter, r *http.Request) {
	f, ok := exportFormat(w, r)
	if !ok {
		return
	}
	p, found := h.presets.Get(chi.URLParam(r, "id"))
	if !found {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeExport(w, p, f, transfer.Filename(p.Name, f))
}

// importAll replaces the collection with the uploaded presets, each under a
// fresh id.
func (h *handler) importAll(w http.ResponseWriter, r *http.Request) {
	data, ok := readPayload(w, r)
	if !ok {
		return
	}
	presets, err := transfer.DecodeCollection(data)
	if err != nil {
		h.rejectImport(w, err)
		return
	}
	for i := range presets {
		presets[i] = transfer.ReassignIDs(presets[i])
	}
	if err := h.presets.BulkReplace(presets); err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	h.log.Info("presets imported", slog.Int("count", len(presets)))
	writeJSON(w, http.StatusOK, h.presets.Snapshot())
}

// importPreset adds one uploaded preset under a fresh id and selects it.
func (h *handler) importPreset(w http.ResponseWriter, r *http.Request) {
	data, ok := readPayload(w, r)
	if !ok {
		return
	}
	p, err := transfer.DecodePreset(data)
	if err != nil {
		h.rejectImport(w, err)
		return
	}
	p = transfer.ReassignIDs(p)
	if err := h.presets.Add(p); err != nil {
		http.Error(w, "failed to save presets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// importIntoPreset replaces the content of an existing preset, keeping its id.
func (h *handler) importIntoPreset(w http.ResponseWriter, r *http.Request) {
	data, ok := readPayload(w, r)
	if !ok {
		return
	}
	imported, err := transfer.DecodePreset(data)
	if err != nil {
		h.rejectImport(w, err)
		return
	}
	p, found, err := h.presets.Edit(chi.URLParam(r, "id"), func(target preset.Preset) preset.Preset {
		return transfer.ImportInto(target, imported)
	})
	h.editResult(w, p, found, err)
}

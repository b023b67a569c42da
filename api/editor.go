package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timeline-editor/preset"
)

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func rosterKind(w http.ResponseWriter, r *http.Request) (preset.RosterKind, bool) {
	kind := preset.RosterKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		http.Error(w, "unknown roster", http.StatusBadRequest)
		return "", false
	}
	return kind, true
}

type slotView struct {
	Index                 int              `json:"index"`
	Role                  string           `json:"role,omitempty"`
	Character             preset.Character `json:"character"`
	CanToggleInitialSkill bool             `json:"canToggleInitialSkill"`
}

type rostersView struct {
	Strikers          []slotView `json:"strikers"`
	Specials          []slotView `json:"specials"`
	InitialSkillCount int        `json:"initialSkillCount"`
	MaxInitialSkills  int        `json:"maxInitialSkills"`
}

// getRosters lists both rosters slot by slot with the striker formation role
// and whether each initial-skill flag may be flipped.
func (h *handler) getRosters(w http.ResponseWriter, r *http.Request) {
	p, ok := h.presets.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	view := rostersView{
		InitialSkillCount: preset.InitialSkillCount(p),
		MaxInitialSkills:  preset.MaxInitialSkills,
	}
	for i := range p.Strikers {
		role := preset.StrikerRole(i)
		view.Strikers = append(view.Strikers, slotView{
			Index:                 i,
			Role:                  role.String(),
			Character:             p.Striker(role),
			CanToggleInitialSkill: preset.CanToggleInitialSkill(p, preset.Strikers, i),
		})
	}
	for i, c := range p.Specials {
		view.Specials = append(view.Specials, slotView{
			Index:                 i,
			Character:             c,
			CanToggleInitialSkill: preset.CanToggleInitialSkill(p, preset.Specials, i),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// patchSlot merges a partial character into one roster slot. An out-of-range
// slot leaves the preset unchanged.
func (h *handler) patchSlot(w http.ResponseWriter, r *http.Request) {
	kind, ok := rosterKind(w, r)
	if !ok {
		return
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, "invalid slot", http.StatusBadRequest)
		return
	}
	var patch preset.CharacterPatch
	if err := decodeBody(w, r, &patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, ok, err := h.presets.Edit(chi.URLParam(r, "id"), func(p preset.Preset) preset.Preset {
		return preset.UpdateCharacterSlot(p, kind, slot, patch)
	})
	h.editResult(w, p, ok, err)
}

func (h *handler) reorderRoster(w http.ResponseWriter, r *http.Request) {
	kind, ok := rosterKind(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, ok, err := h.presets.Edit(chi.URLParam(r, "id"), func(p preset.Preset) preset.Preset {
		return preset.ReorderRoster(p, kind, req.From, req.To)
	})
	h.editResult(w, p, ok, err)
}

// insertEvent adds an event for a named roster character. Index defaults to
// the end of the timeline and time to the character's exCost.
func (h *handler) insertEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterID string   `json:"characterId"`
		Index       *int     `json:"index"`
		Time        *float64 `json:"time"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.CharacterID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, ok, err := h.presets.TryEdit(chi.URLParam(r, "id"), func(p preset.Preset) (preset.Preset, bool) {
		c, _, _, found := p.FindCharacter(req.CharacterID)
		if !found || !c.Named() {
			return p, false
		}
		at := len(p.Timeline)
		if req.Index != nil {
			at = *req.Index
		}
		t := float64(c.ExCost)
		if req.Time != nil {
			t = *req.Time
		}
		p.Timeline = preset.InsertEvent(p.Timeline, at, c.ID, t)
		return p, true
	})
	h.editResult(w, p, ok, err)
}

func (h *handler) removeEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	p, ok, err := h.presets.TryEdit(chi.URLParam(r, "id"), func(p preset.Preset) (preset.Preset, bool) {
		if p.EventIndex(eventID) < 0 {
			return p, false
		}
		p.Timeline = preset.RemoveEvent(p.Timeline, eventID)
		return p, true
	})
	h.editResult(w, p, ok, err)
}

// reorderTimeline moves the event at From so it lands before the event that
// was at To; To may equal the timeline length to move to the end.
func (h *handler) reorderTimeline(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, ok, err := h.presets.Edit(chi.URLParam(r, "id"), func(p preset.Preset) preset.Preset {
		p.Timeline = preset.ReorderEvents(p.Timeline, req.From, req.To)
		return p
	})
	h.editResult(w, p, ok, err)
}

func (h *handler) setEventTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time *float64 `json:"time"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Time == nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	eventID := chi.URLParam(r, "eventId")
	p, ok, err := h.presets.TryEdit(chi.URLParam(r, "id"), func(p preset.Preset) (preset.Preset, bool) {
		if p.EventIndex(eventID) < 0 {
			return p, false
		}
		p.Timeline = preset.SetEventTime(p.Timeline, eventID, *req.Time)
		return p, true
	})
	h.editResult(w, p, ok, err)
}

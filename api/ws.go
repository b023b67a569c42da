package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"timeline-editor/preset"
	"timeline-editor/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client message types.
const (
	msgDragStart = "dragStart"
	msgDragMove  = "dragMove"
	msgDragOver  = "dragOver"
	msgDragEnd   = "dragEnd"
	msgCancel    = "cancel"
)

// Server message types.
const (
	msgPreview   = "preview"
	msgCommitted = "committed"
	msgCancelled = "cancelled"
	msgError     = "error"
)

type dragRequest struct {
	Type  string         `json:"type"`
	Item  *session.Item  `json:"item,omitempty"`
	Delta *session.Delta `json:"delta,omitempty"`
	Over  *preset.Hover  `json:"over,omitempty"`
}

type dragReply struct {
	Type    string           `json:"type"`
	Preview *session.Preview `json:"preview,omitempty"`
	Outcome session.Outcome  `json:"outcome,omitempty"`
	Preset  *preset.Preset   `json:"preset,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// handleDrag carries drag gestures over one preset. A socket runs at most one
// gesture at a time; closing it mid-gesture cancels the gesture.
func (h *handler) handleDrag(w http.ResponseWriter, r *http.Request) {
	presetID := chi.URLParam(r, "id")
	if _, ok := h.presets.Get(presetID); !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("drag upgrade failed", slog.Any("err", err))
		return
	}
	defer conn.Close()

	log := h.log.With(slog.String("preset", presetID))
	var cur *session.Session
	defer func() {
		if cur != nil {
			h.drags.Finish(cur)
		}
	}()

	reply := func(msg dragReply) bool {
		return conn.WriteJSON(msg) == nil
	}
	preview := func() bool {
		pv := cur.Preview()
		return reply(dragReply{Type: msgPreview, Preview: &pv})
	}
	fail := func(text string) bool {
		return reply(dragReply{Type: msgError, Error: text})
	}

	for {
		var msg dragRequest
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		ok := true
		switch msg.Type {
		case msgDragStart:
			if cur != nil && cur.Done() {
				h.drags.Finish(cur)
				cur = nil
			}
			if cur != nil {
				ok = fail("drag in progress")
				break
			}
			if msg.Item == nil {
				ok = fail("missing item")
				break
			}
			p, found := h.presets.Get(presetID)
			if !found {
				ok = fail("preset not found")
				break
			}
			s, err := h.drags.Begin(p, *msg.Item)
			switch {
			case errors.Is(err, session.ErrBusy):
				ok = fail("drag in progress")
			case err != nil:
				ok = fail(err.Error())
			default:
				cur = s
				log.Debug("drag started", slog.String("session", s.ID), slog.String("item", msg.Item.ID))
				ok = preview()
			}

		case msgDragMove:
			if cur == nil || msg.Delta == nil {
				ok = fail("no drag in progress")
				break
			}
			if err := cur.Move(*msg.Delta); err != nil {
				ok = fail(err.Error())
				break
			}
			ok = preview()

		case msgDragOver:
			if cur == nil {
				ok = fail("no drag in progress")
				break
			}
			p, _ := h.presets.Get(presetID)
			if err := cur.Over(msg.Over, p); err != nil {
				ok = fail(err.Error())
				break
			}
			ok = preview()

		case msgDragEnd:
			if cur == nil {
				ok = fail("no drag in progress")
				break
			}
			ok = h.endDrag(cur, presetID, msg.Over, reply, log)
			h.drags.Finish(cur)
			cur = nil

		case msgCancel:
			if cur != nil {
				h.drags.Finish(cur)
				cur = nil
			}
			ok = reply(dragReply{Type: msgCancelled})

		default:
			ok = fail("unknown message type")
		}
		if !ok {
			return
		}
	}
}

// endDrag commits s against the stored preset under the store's write lock.
func (h *handler) endDrag(s *session.Session, presetID string, over *preset.Hover, reply func(dragReply) bool, log *slog.Logger) bool {
	var outcome session.Outcome
	p, found, err := h.presets.TryEdit(presetID, func(p preset.Preset) (preset.Preset, bool) {
		next, o, endErr := s.End(over, p)
		outcome = o
		return next, endErr == nil && o != session.OutcomeNone
	})
	if err != nil {
		return reply(dragReply{Type: msgError, Error: "failed to save presets"})
	}
	if !found {
		s.Cancel()
		return reply(dragReply{Type: msgCancelled})
	}
	if outcome == "" || outcome == session.OutcomeNone {
		return reply(dragReply{Type: msgCancelled})
	}
	log.Debug("drag committed", slog.String("session", s.ID), slog.String("outcome", string(outcome)))
	return reply(dragReply{Type: msgCommitted, Outcome: outcome, Preset: &p})
}

// Package session models drag gestures over a preset: the Armed, Dragging,
// Previewing lifecycle, the ghost insertion preview, and the commit that turns
// a drop into a new preset value.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"timeline-editor/preset"
)

var (
	ErrUnknownItem = errors.New("drag item not found")
	ErrNotArmed    = errors.New("drag gesture not active")
)

// State is the lifecycle position of one gesture.
type State int

const (
	Idle State = iota
	Armed
	Dragging
	Previewing
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	case Previewing:
		return "previewing"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Source says where the dragged item came from.
type Source string

const (
	// SourceCharacter is a roster member dragged into the timeline.
	SourceCharacter Source = "character"
	// SourceTimeline is an existing event dragged within the timeline.
	SourceTimeline Source = "timeline"
	// SourceSlot is a roster slot dragged within its own roster.
	SourceSlot Source = "slot"
)

// Item identifies the dragged thing. For slot drags ID is either the
// character id or a "<roster>-<index>" placeholder for an empty slot.
type Item struct {
	ID     string            `json:"id"`
	Source Source            `json:"source"`
	Roster preset.RosterKind `json:"roster,omitempty"`
}

// Delta is the pointer travel since the gesture started.
type Delta struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outcome describes what a finished gesture did to the preset.
type Outcome string

const (
	OutcomeNone            Outcome = "none"
	OutcomeInserted        Outcome = "inserted"
	OutcomeReordered       Outcome = "reordered"
	OutcomeRosterReordered Outcome = "rosterReordered"
)

// Preview is a read-only view of the gesture for clients.
type Preview struct {
	SessionID string            `json:"sessionId"`
	State     State             `json:"state"`
	Item      Item              `json:"item"`
	Origin    int               `json:"originIndex"`
	Character *preset.Character `json:"character,omitempty"`
	Ghost     *int              `json:"ghostIndex"`
	Slot      *int              `json:"slotIndex,omitempty"`
}

// Session is one drag gesture. It is created Armed by Manager.Begin and ends
// Committed or Cancelled.
type Session struct {
	ID        string    `json:"id"`
	PresetID  string    `json:"presetId"`
	StartedAt time.Time `json:"startedAt"`

	mu        sync.Mutex
	state     State
	item      Item
	character preset.Character
	from      int
	farEnough bool
	ghost     int
	hasGhost  bool
	slot      int
	hasSlot   bool
}

// start resolves the item against p and arms the gesture.
func (s *Session) start(item Item, p preset.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return fmt.Errorf("start from %s: %w", s.state, ErrNotArmed)
	}

	switch item.Source {
	case SourceCharacter:
		c, _, _, ok := p.FindCharacter(item.ID)
		if !ok || !c.Named() {
			return fmt.Errorf("character %q: %w", item.ID, ErrUnknownItem)
		}
		s.character = c
		s.from = -1
	case SourceTimeline:
		idx := p.EventIndex(item.ID)
		if idx < 0 {
			return fmt.Errorf("event %q: %w", item.ID, ErrUnknownItem)
		}
		s.from = idx
	case SourceSlot:
		idx, ok := resolveSlot(p, item.Roster, item.ID)
		if !ok {
			return fmt.Errorf("slot %q: %w", item.ID, ErrUnknownItem)
		}
		s.from = idx
	default:
		return fmt.Errorf("source %q: %w", item.Source, ErrUnknownItem)
	}
	s.item = item
	s.state = Armed
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done reports whether the gesture has been committed or cancelled.
func (s *Session) Done() bool {
	st := s.State()
	return st == Committed || st == Cancelled
}

func (s *Session) active() bool {
	return s.state == Armed || s.state == Dragging || s.state == Previewing
}

// Move records pointer travel. Crossing the activation distance moves an
// Armed gesture to Dragging; falling back under it drops any preview.
func (s *Session) Move(d Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() {
		return ErrNotArmed
	}
	s.farEnough = preset.PastActivation(d.X, d.Y)
	switch {
	case s.farEnough && s.state == Armed:
		s.state = Dragging
	case !s.farEnough && s.state != Armed:
		s.state = Armed
		s.clearPreview()
	}
	return nil
}

// Over updates the candidate drop position for the hover target h, which may
// be nil when the pointer is over nothing.
func (s *Session) Over(h *preset.Hover, p preset.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() {
		return ErrNotArmed
	}

	if s.item.Source == SourceSlot {
		s.hasSlot = false
		if h != nil && h.Kind == preset.HoverSlot {
			s.slot, s.hasSlot = resolveSlot(p, s.item.Roster, h.ID)
		}
		if s.hasSlot {
			s.state = Previewing
		} else if s.state == Previewing {
			s.state = Dragging
		}
		return nil
	}

	if !s.farEnough {
		s.clearPreview()
		return nil
	}
	s.ghost, s.hasGhost = preset.GhostIndex(p.Timeline, h)
	if s.hasGhost {
		s.state = Previewing
	} else {
		s.state = Dragging
	}
	return nil
}

// End finishes the gesture against the current preset p and returns the
// resulting preset. A drag that never passed the activation distance or has
// no candidate index cancels the gesture and returns p unchanged, as does a
// drop anywhere off the timeline.
func (s *Session) End(h *preset.Hover, p preset.Preset) (preset.Preset, Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() {
		return p, OutcomeNone, ErrNotArmed
	}
	if h == nil {
		s.cancel()
		return p, OutcomeNone, nil
	}

	if s.item.Source == SourceSlot {
		to, ok := -1, false
		if h.Kind == preset.HoverSlot {
			to, ok = resolveSlot(p, s.item.Roster, h.ID)
		}
		from, fromOK := resolveSlot(p, s.item.Roster, s.item.ID)
		if !ok || !fromOK || from == to {
			s.cancel()
			return p, OutcomeNone, nil
		}
		s.state = Committed
		return preset.ReorderRoster(p, s.item.Roster, from, to), OutcomeRosterReordered, nil
	}

	if !s.farEnough || !s.hasGhost {
		s.cancel()
		return p, OutcomeNone, nil
	}
	// The previewed index only stands while the pointer is still on the
	// timeline: an event or the drop area.
	if _, ok := preset.GhostIndex(p.Timeline, h); !ok {
		s.cancel()
		return p, OutcomeNone, nil
	}

	switch s.item.Source {
	case SourceCharacter:
		c, _, _, ok := p.FindCharacter(s.character.ID)
		if !ok || !c.Named() {
			s.cancel()
			return p, OutcomeNone, nil
		}
		out := p.Clone()
		out.Timeline = preset.InsertEvent(p.Timeline, s.ghost, c.ID, float64(c.ExCost))
		s.state = Committed
		return out, OutcomeInserted, nil
	case SourceTimeline:
		from := p.EventIndex(s.item.ID)
		if from < 0 {
			s.cancel()
			return p, OutcomeNone, nil
		}
		out := p.Clone()
		out.Timeline = preset.ReorderEvents(p.Timeline, from, s.ghost)
		s.state = Committed
		return out, OutcomeReordered, nil
	}
	s.cancel()
	return p, OutcomeNone, nil
}

// Cancel discards the gesture without touching any preset.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active() {
		s.cancel()
	}
}

func (s *Session) cancel() {
	s.state = Cancelled
	s.clearPreview()
}

func (s *Session) clearPreview() {
	s.hasGhost = false
	s.hasSlot = false
}

// GhostIndex returns the previewed insertion index, if any.
func (s *Session) GhostIndex() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ghost, s.hasGhost
}

// Preview snapshots the gesture for clients.
func (s *Session) Preview() Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	pv := Preview{SessionID: s.ID, State: s.state, Item: s.item, Origin: s.from}
	if s.item.Source == SourceCharacter {
		c := s.character
		pv.Character = &c
	}
	if s.hasGhost {
		g := s.ghost
		pv.Ghost = &g
	}
	if s.hasSlot {
		sl := s.slot
		pv.Slot = &sl
	}
	return pv
}

// resolveSlot maps a character id or a "<roster>-<index>" placeholder to a
// slot index within the roster.
func resolveSlot(p preset.Preset, kind preset.RosterKind, id string) (int, bool) {
	if !kind.Valid() || id == "" {
		return -1, false
	}
	for i, c := range p.Roster(kind) {
		if c.ID == id {
			return i, true
		}
	}
	prefix := string(kind) + "-"
	if !strings.HasPrefix(id, prefix) {
		return -1, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil || idx < 0 || idx >= kind.Len() {
		return -1, false
	}
	return idx, true
}

package preset

import "math"

// ActivationDistance is the pointer travel a drag must exceed before an
// insertion point is previewed. Shorter drags are treated as clicks.
const ActivationDistance = 20.0

// HoverKind identifies what a dragged item is currently over.
type HoverKind string

const (
	HoverEvent    HoverKind = "timelineEvent"
	HoverDropArea HoverKind = "timelineDropArea"
	HoverSlot     HoverKind = "rosterSlot"
)

// Hover describes the drop target under the pointer. OffsetY is measured from
// the top of the target's bounding box.
type Hover struct {
	Kind    HoverKind `json:"kind"`
	ID      string    `json:"id"`
	OffsetY float64   `json:"offsetY"`
	Height  float64   `json:"height"`
}

// PastActivation reports whether a pointer delta is long enough to start
// previewing insertion points.
func PastActivation(dx, dy float64) bool {
	return math.Hypot(dx, dy) > ActivationDistance
}

// GhostIndex computes the candidate insertion index for a hover. Over an
// event, the lower half maps to the slot after it. The drop area appends.
func GhostIndex(timeline []TimelineEvent, h *Hover) (int, bool) {
	if h == nil {
		return 0, false
	}
	switch h.Kind {
	case HoverEvent:
		idx := indexOfEvent(timeline, h.ID)
		if idx < 0 {
			return 0, false
		}
		if h.OffsetY > h.Height/2 {
			return idx + 1, true
		}
		return idx, true
	case HoverDropArea:
		return len(timeline), true
	}
	return 0, false
}

// InsertEvent adds an event for characterID at index, clamped to
// [0, len(timeline)].
func InsertEvent(timeline []TimelineEvent, at int, characterID string, initialTime float64) []TimelineEvent {
	at = clamp(at, 0, len(timeline))
	out := make([]TimelineEvent, 0, len(timeline)+1)
	out = append(out, timeline[:at]...)
	out = append(out, TimelineEvent{ID: NewID(), CharacterID: characterID, Time: initialTime})
	out = append(out, timeline[at:]...)
	return out
}

// RemoveEvent drops the event with the given id, if present.
func RemoveEvent(timeline []TimelineEvent, eventID string) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(timeline))
	for _, e := range timeline {
		if e.ID != eventID {
			out = append(out, e)
		}
	}
	return out
}

// ReorderEvents moves the event at from so that it lands where insertion
// index to pointed before the removal. Moving downward past its own slot
// decrements the target, since removal shifted later events left.
func ReorderEvents(timeline []TimelineEvent, from, to int) []TimelineEvent {
	out := cloneTimeline(timeline)
	if from < 0 || from >= len(out) {
		return out
	}
	to = clamp(to, 0, len(out))
	if from < to {
		to--
	}
	if from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out, TimelineEvent{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

// SetEventTime replaces the time of the matching event. Range limits are a
// presentation concern and are not enforced here.
func SetEventTime(timeline []TimelineEvent, eventID string, t float64) []TimelineEvent {
	out := cloneTimeline(timeline)
	for i := range out {
		if out[i].ID == eventID {
			out[i].Time = t
		}
	}
	return out
}

// ValidCharacterIDs returns the ids of every named character in p.
func ValidCharacterIDs(p Preset) map[string]struct{} {
	ids := make(map[string]struct{}, StrikerSlots+SpecialSlots)
	for _, c := range p.Characters() {
		if c.Named() {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

// PruneInvalid removes events whose character is not in valid. It is
// idempotent.
func PruneInvalid(timeline []TimelineEvent, valid map[string]struct{}) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(timeline))
	for _, e := range timeline {
		if _, ok := valid[e.CharacterID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Pruned returns a copy of p with dangling timeline events removed.
func (p Preset) Pruned() Preset {
	out := p.Clone()
	out.Timeline = PruneInvalid(p.Timeline, ValidCharacterIDs(p))
	return out
}

// EventIndex returns the position of the event with the given id, or -1.
func (p Preset) EventIndex(eventID string) int {
	return indexOfEvent(p.Timeline, eventID)
}

func indexOfEvent(timeline []TimelineEvent, id string) int {
	for i, e := range timeline {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func cloneTimeline(timeline []TimelineEvent) []TimelineEvent {
	out := make([]TimelineEvent, len(timeline))
	copy(out, timeline)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

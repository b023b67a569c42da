package preset

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// CharacterPatch is a partial update of one roster slot. Nil fields are left
// untouched.
type CharacterPatch struct {
	Name           *string `json:"name,omitempty"`
	ExCost         *int    `json:"exCost,omitempty"`
	IsInitialSkill *bool   `json:"isInitialSkill,omitempty"`
}

// UnmarshalJSON accepts exCost as a number or a string. Input that does not
// start with an integer coerces to 0.
func (c *CharacterPatch) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name           *string         `json:"name"`
		ExCost         json.RawMessage `json:"exCost"`
		IsInitialSkill *bool           `json:"isInitialSkill"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Name = raw.Name
	c.IsInitialSkill = raw.IsInitialSkill
	c.ExCost = nil
	if len(raw.ExCost) > 0 && string(raw.ExCost) != "null" {
		v := coerceExCost(raw.ExCost)
		c.ExCost = &v
	}
	return nil
}

func coerceExCost(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		// Bound before converting so huge values cannot overflow int.
		return int(math.Max(math.Min(f, MaxExCost), MinExCost))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	return ParseExCost(s)
}

// ParseExCost reads the leading integer of s; anything else yields 0. An
// integer too large for int saturates at the exCost bound of its sign.
func ParseExCost(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' || (end == 0 && (ch == '-' || ch == '+')) {
			end++
			continue
		}
		break
	}
	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(s, "-") {
			return MinExCost
		}
		return MaxExCost
	}
	if err != nil {
		return 0
	}
	return n
}

// ClampExCost bounds v to [MinExCost, MaxExCost].
func ClampExCost(v int) int {
	if v < MinExCost {
		return MinExCost
	}
	if v > MaxExCost {
		return MaxExCost
	}
	return v
}

// InitialSkillCount counts isInitialSkill flags across both rosters.
func InitialSkillCount(p Preset) int {
	n := 0
	for _, c := range p.Strikers {
		if c.IsInitialSkill {
			n++
		}
	}
	for _, c := range p.Specials {
		if c.IsInitialSkill {
			n++
		}
	}
	return n
}

// CanToggleInitialSkill reports whether the flag of the given slot may be
// flipped right now.
func CanToggleInitialSkill(p Preset, kind RosterKind, slot int) bool {
	slots := p.roster(kind)
	if slot < 0 || slot >= len(slots) {
		return false
	}
	c := slots[slot]
	if c.IsInitialSkill {
		return true
	}
	return c.Named() && InitialSkillCount(p) < MaxInitialSkills
}

// UpdateCharacterSlot merges patch into the slot and returns the updated
// preset. An empty slot gets a new character with a fresh id. Clearing the
// name drops every timeline event that referenced the slot. Disallowed
// initial-skill toggles and out-of-range slots are ignored.
func UpdateCharacterSlot(p Preset, kind RosterKind, slot int, patch CharacterPatch) Preset {
	out := p.Clone()
	slots := out.roster(kind)
	if slot < 0 || slot >= len(slots) {
		return out
	}

	prev := slots[slot]
	next := prev
	if prev.Empty() {
		next = Character{ID: NewID(), ExCost: DefaultExCost}
	}
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.ExCost != nil {
		next.ExCost = ClampExCost(*patch.ExCost)
	}
	if patch.IsInitialSkill != nil {
		if !*patch.IsInitialSkill {
			next.IsInitialSkill = false
		} else if !next.IsInitialSkill && next.Named() && InitialSkillCount(out) < MaxInitialSkills {
			next.IsInitialSkill = true
		}
	}
	if !next.Named() {
		next.IsInitialSkill = false
	}
	slots[slot] = next

	if !next.Named() {
		out.Timeline = removeCharacterEvents(out.Timeline, next.ID)
	}
	return out
}

func removeCharacterEvents(timeline []TimelineEvent, characterID string) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(timeline))
	for _, e := range timeline {
		if e.CharacterID == characterID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ReorderRoster moves the slot at from to to with splice semantics. The
// timeline is untouched: events reference characters by id, not position.
func ReorderRoster(p Preset, kind RosterKind, from, to int) Preset {
	out := p.Clone()
	slots := out.roster(kind)
	if from == to || from < 0 || to < 0 || from >= len(slots) || to >= len(slots) {
		return out
	}
	moved := slots[from]
	if from < to {
		copy(slots[from:to], slots[from+1:to+1])
	} else {
		copy(slots[to+1:from+1], slots[to:from])
	}
	slots[to] = moved
	return out
}

package preset

import (
	"errors"

	"github.com/google/uuid"
)

const (
	StrikerSlots = 4
	SpecialSlots = 2

	// MaxInitialSkills caps the isInitialSkill flags across both rosters.
	MaxInitialSkills = 3

	DefaultExCost = 5
	MinExCost     = 0
	MaxExCost     = 10

	DefaultName = "New preset"
	CopySuffix  = " (copy)"
)

var ErrNotFound = errors.New("preset not found")

// Character occupies one roster slot. The zero value is an empty slot; a
// Character with an ID but an empty Name is an unassigned slot.
type Character struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	ExCost         int    `json:"exCost" yaml:"exCost"`
	IsInitialSkill bool   `json:"isInitialSkill" yaml:"isInitialSkill"`
}

// Empty reports whether no character was ever placed in the slot.
func (c Character) Empty() bool { return c.ID == "" }

// Named reports whether the slot holds an assigned character.
func (c Character) Named() bool { return c.Name != "" }

// TimelineEvent is a timed reference to a roster character. The reference is
// weak: events pointing at a missing or unnamed character are pruned on read.
type TimelineEvent struct {
	ID          string  `json:"id" yaml:"id"`
	CharacterID string  `json:"characterId" yaml:"characterId"`
	Time        float64 `json:"time" yaml:"time"` // seconds from start
}

// Preset is a team composition plus its event schedule. Slot position is
// meaningful and only changes through ReorderRoster.
type Preset struct {
	ID       string                  `json:"id" yaml:"id"`
	Name     string                  `json:"name" yaml:"name"`
	Strikers [StrikerSlots]Character `json:"strikers" yaml:"strikers"`
	Specials [SpecialSlots]Character `json:"specials" yaml:"specials"`
	Timeline []TimelineEvent         `json:"timeline" yaml:"timeline"`
}

// Collection is the full persistent state.
type Collection struct {
	Presets          []Preset `json:"presets" yaml:"presets"`
	SelectedPresetID *string  `json:"selectedPresetId" yaml:"selectedPresetId"`
}

// RosterKind names one of the two rosters of a preset.
type RosterKind string

const (
	Strikers RosterKind = "strikers"
	Specials RosterKind = "specials"
)

// Valid reports whether k names a roster.
func (k RosterKind) Valid() bool { return k == Strikers || k == Specials }

// Len returns the slot capacity of the roster.
func (k RosterKind) Len() int {
	switch k {
	case Strikers:
		return StrikerSlots
	case Specials:
		return SpecialSlots
	}
	return 0
}

// StrikerRole is the formation position encoded by a striker slot index.
type StrikerRole int

const (
	Left StrikerRole = iota
	MidLeft
	MidRight
	Right
)

func (r StrikerRole) String() string {
	switch r {
	case Left:
		return "L"
	case MidLeft:
		return "ML"
	case MidRight:
		return "MR"
	case Right:
		return "R"
	}
	return "?"
}

// Striker returns the character in the slot for role r.
func (p Preset) Striker(r StrikerRole) Character {
	if r < Left || r > Right {
		return Character{}
	}
	return p.Strikers[r]
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.New().String()
}

// NewPreset returns an empty preset with a fresh id.
func NewPreset(name string) Preset {
	if name == "" {
		name = DefaultName
	}
	return Preset{ID: NewID(), Name: name, Timeline: []TimelineEvent{}}
}

// Clone returns a deep copy of p.
func (p Preset) Clone() Preset {
	cp := p
	cp.Timeline = cloneTimeline(p.Timeline)
	return cp
}

// roster returns a slice aliasing the backing array of the roster kind.
func (p *Preset) roster(kind RosterKind) []Character {
	switch kind {
	case Strikers:
		return p.Strikers[:]
	case Specials:
		return p.Specials[:]
	}
	return nil
}

// Roster returns a copy of the slots of the given roster.
func (p Preset) Roster(kind RosterKind) []Character {
	src := p.roster(kind)
	out := make([]Character, len(src))
	copy(out, src)
	return out
}

// Characters returns every non-empty slot of both rosters, strikers first.
func (p Preset) Characters() []Character {
	var out []Character
	for _, c := range p.Strikers {
		if !c.Empty() {
			out = append(out, c)
		}
	}
	for _, c := range p.Specials {
		if !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

// FindCharacter looks a character up by id in both rosters.
func (p Preset) FindCharacter(id string) (Character, RosterKind, int, bool) {
	if id == "" {
		return Character{}, "", -1, false
	}
	for i, c := range p.Strikers {
		if c.ID == id {
			return c, Strikers, i, true
		}
	}
	for i, c := range p.Specials {
		if c.ID == id {
			return c, Specials, i, true
		}
	}
	return Character{}, "", -1, false
}

func copyCollection(c Collection) Collection {
	presets := make([]Preset, len(c.Presets))
	for i, p := range c.Presets {
		presets[i] = p.Clone()
	}
	var sel *string
	if c.SelectedPresetID != nil {
		id := *c.SelectedPresetID
		sel = &id
	}
	return Collection{Presets: presets, SelectedPresetID: sel}
}

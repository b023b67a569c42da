package preset_test

import (
	"encoding/json"
	"testing"

	"timeline-editor/preset"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }
func boolp(b bool) *bool    { return &b }

func TestUpdateEmptySlotSynthesizesCharacter(t *testing.T) {
	p := preset.NewPreset("p")
	got := preset.UpdateCharacterSlot(p, preset.Strikers, 1, preset.CharacterPatch{Name: strp("Aru")})

	c := got.Strikers[1]
	if c.ID == "" {
		t.Fatal("expected a fresh id")
	}
	if c.Name != "Aru" || c.ExCost != preset.DefaultExCost || c.IsInitialSkill {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if !p.Strikers[1].Empty() {
		t.Fatal("input preset was mutated")
	}
}

func TestUpdatePreservesID(t *testing.T) {
	p := preset.NewPreset("p")
	p.Specials[0] = preset.Character{ID: "s1", Name: "Hina", ExCost: 4}

	got := preset.UpdateCharacterSlot(p, preset.Specials, 0, preset.CharacterPatch{ExCost: intp(7)})
	if got.Specials[0].ID != "s1" || got.Specials[0].Name != "Hina" || got.Specials[0].ExCost != 7 {
		t.Fatalf("unexpected merge: %+v", got.Specials[0])
	}
}

func TestExCostClamped(t *testing.T) {
	p := preset.NewPreset("p")
	got := preset.UpdateCharacterSlot(p, preset.Strikers, 0, preset.CharacterPatch{ExCost: intp(42)})
	if got.Strikers[0].ExCost != preset.MaxExCost {
		t.Fatalf("expected clamp to %d, got %d", preset.MaxExCost, got.Strikers[0].ExCost)
	}
	got = preset.UpdateCharacterSlot(got, preset.Strikers, 0, preset.CharacterPatch{ExCost: intp(-3)})
	if got.Strikers[0].ExCost != preset.MinExCost {
		t.Fatalf("expected clamp to %d, got %d", preset.MinExCost, got.Strikers[0].ExCost)
	}
}

func TestPatchExCostCoercion(t *testing.T) {
	cases := map[string]int{
		`{"exCost": 4}`:      4,
		`{"exCost": 6.9}`:    6,
		`{"exCost": "8"}`:    8,
		`{"exCost": "3abc"}`: 3,
		`{"exCost": "abc"}`:  0,
		`{"exCost": true}`:   0,

		`{"exCost": 1e20}`:                    preset.MaxExCost,
		`{"exCost": -1e20}`:                   preset.MinExCost,
		`{"exCost": "99999999999999999999"}`:  preset.MaxExCost,
		`{"exCost": "-99999999999999999999"}`: preset.MinExCost,
	}
	for in, want := range cases {
		var patch preset.CharacterPatch
		if err := json.Unmarshal([]byte(in), &patch); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if patch.ExCost == nil || *patch.ExCost != want {
			t.Fatalf("%s: expected %d, got %v", in, want, patch.ExCost)
		}
	}

	var patch preset.CharacterPatch
	json.Unmarshal([]byte(`{"name":"Aru"}`), &patch)
	if patch.ExCost != nil {
		t.Fatal("absent exCost must stay nil")
	}
}

func TestHugeExCostSaturates(t *testing.T) {
	p := preset.NewPreset("p")
	for _, in := range []string{`{"name":"Aru","exCost":1e20}`, `{"name":"Aru","exCost":"99999999999999999999"}`} {
		var patch preset.CharacterPatch
		if err := json.Unmarshal([]byte(in), &patch); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		got := preset.UpdateCharacterSlot(p, preset.Strikers, 0, patch)
		if got.Strikers[0].ExCost != preset.MaxExCost {
			t.Fatalf("%s: expected exCost %d, got %d", in, preset.MaxExCost, got.Strikers[0].ExCost)
		}
	}
}

func TestInitialSkillRequiresName(t *testing.T) {
	p := preset.NewPreset("p")
	got := preset.UpdateCharacterSlot(p, preset.Strikers, 0, preset.CharacterPatch{IsInitialSkill: boolp(true)})
	if got.Strikers[0].IsInitialSkill {
		t.Fatal("unnamed slot must not take the initial skill flag")
	}
}

func TestInitialSkillCap(t *testing.T) {
	p := preset.NewPreset("p")
	names := []string{"A", "B", "C", "D"}
	for i, n := range names {
		p = preset.UpdateCharacterSlot(p, preset.Strikers, i, preset.CharacterPatch{Name: strp(n)})
	}
	for i := 0; i < 4; i++ {
		p = preset.UpdateCharacterSlot(p, preset.Strikers, i, preset.CharacterPatch{IsInitialSkill: boolp(true)})
	}
	if n := preset.InitialSkillCount(p); n != preset.MaxInitialSkills {
		t.Fatalf("expected %d flags, got %d", preset.MaxInitialSkills, n)
	}
	if p.Strikers[3].IsInitialSkill {
		t.Fatal("fourth toggle must be ignored")
	}
	if preset.CanToggleInitialSkill(p, preset.Strikers, 3) {
		t.Fatal("fourth slot must not be toggleable")
	}
	if !preset.CanToggleInitialSkill(p, preset.Strikers, 0) {
		t.Fatal("flagged slot must always be toggleable off")
	}

	p = preset.UpdateCharacterSlot(p, preset.Strikers, 0, preset.CharacterPatch{IsInitialSkill: boolp(false)})
	p = preset.UpdateCharacterSlot(p, preset.Strikers, 3, preset.CharacterPatch{IsInitialSkill: boolp(true)})
	if !p.Strikers[3].IsInitialSkill || preset.InitialSkillCount(p) != 3 {
		t.Fatalf("expected freed flag to move to slot 3: %+v", p.Strikers)
	}
}

func TestNamingSlotKeepsTimeline(t *testing.T) {
	p := preset.NewPreset("p")
	p.Strikers[0] = preset.Character{ID: "c1", Name: "Aru", ExCost: 3}
	p.Timeline = []preset.TimelineEvent{{ID: "e1", CharacterID: "c1", Time: 3}}

	got := preset.UpdateCharacterSlot(p, preset.Strikers, 0, preset.CharacterPatch{Name: strp("Aru (New Year)"), ExCost: intp(4)})
	if len(got.Timeline) != 1 || got.Timeline[0] != p.Timeline[0] {
		t.Fatalf("timeline changed: %v", got.Timeline)
	}
}

func TestClearingNameCascades(t *testing.T) {
	p := preset.NewPreset("p")
	p = preset.UpdateCharacterSlot(p, preset.Strikers, 0, preset.CharacterPatch{Name: strp("Aru"), ExCost: intp(3), IsInitialSkill: boolp(true)})
	p = preset.UpdateCharacterSlot(p, preset.Specials, 0, preset.CharacterPatch{Name: strp("Hina")})
	aru, hina := p.Strikers[0], p.Specials[0]

	p.Timeline = preset.InsertEvent(p.Timeline, 0, aru.ID, float64(aru.ExCost))
	if len(p.Timeline) != 1 || p.Timeline[0].CharacterID != aru.ID || p.Timeline[0].Time != 3 {
		t.Fatalf("unexpected timeline %v", p.Timeline)
	}
	p.Timeline = preset.InsertEvent(p.Timeline, 1, hina.ID, 5)
	p.Timeline = preset.InsertEvent(p.Timeline, 2, aru.ID, 8)

	p = preset.UpdateCharacterSlot(p, preset.Strikers, 0, preset.CharacterPatch{Name: strp("")})
	for _, e := range p.Timeline {
		if e.CharacterID == aru.ID {
			t.Fatalf("event %v still references cleared slot", e)
		}
	}
	if len(p.Timeline) != 1 || p.Timeline[0].CharacterID != hina.ID {
		t.Fatalf("expected only Hina's event, got %v", p.Timeline)
	}
	if p.Strikers[0].ID != aru.ID {
		t.Fatal("cleared slot must keep its id")
	}
	if p.Strikers[0].IsInitialSkill {
		t.Fatal("cleared slot must drop the initial skill flag")
	}
}

func TestUpdateOutOfRangeSlot(t *testing.T) {
	p := preset.NewPreset("p")
	got := preset.UpdateCharacterSlot(p, preset.Specials, 2, preset.CharacterPatch{Name: strp("x")})
	if len(got.Characters()) != 0 {
		t.Fatalf("expected no change, got %+v", got.Characters())
	}
	got = preset.UpdateCharacterSlot(p, preset.RosterKind("bench"), 0, preset.CharacterPatch{Name: strp("x")})
	if len(got.Characters()) != 0 {
		t.Fatal("unknown roster must be a no-op")
	}
}

func TestReorderRosterSplice(t *testing.T) {
	p := preset.NewPreset("p")
	for i, n := range []string{"A", "B", "C", "D"} {
		p.Strikers[i] = preset.Character{ID: n, Name: n}
	}
	p.Timeline = []preset.TimelineEvent{{ID: "e", CharacterID: "A"}}

	got := preset.ReorderRoster(p, preset.Strikers, 0, 2)
	if order := names(got.Strikers[:]); order != "BCAD" {
		t.Fatalf("expected BCAD, got %s", order)
	}
	got = preset.ReorderRoster(got, preset.Strikers, 3, 0)
	if order := names(got.Strikers[:]); order != "DBCA" {
		t.Fatalf("expected DBCA, got %s", order)
	}
	if len(got.Timeline) != 1 {
		t.Fatal("roster reorder must not touch the timeline")
	}
	if got.Striker(preset.Left).ID != "D" {
		t.Fatalf("expected D on the left, got %q", got.Striker(preset.Left).ID)
	}

	same := preset.ReorderRoster(p, preset.Strikers, 1, 1)
	if names(same.Strikers[:]) != "ABCD" {
		t.Fatal("from == to must be a no-op")
	}
	oob := preset.ReorderRoster(p, preset.Specials, 0, 5)
	if oob.Specials != p.Specials {
		t.Fatal("unresolved index must be a no-op")
	}
}

func TestReorderRosterKeepsEmptySlotPosition(t *testing.T) {
	p := preset.NewPreset("p")
	p.Specials[1] = preset.Character{ID: "s", Name: "S"}
	got := preset.ReorderRoster(p, preset.Specials, 1, 0)
	if got.Specials[0].ID != "s" || !got.Specials[1].Empty() {
		t.Fatalf("unexpected specials %+v", got.Specials)
	}
}

func TestStrikerRoleString(t *testing.T) {
	want := []string{"L", "ML", "MR", "R"}
	for i, w := range want {
		if got := preset.StrikerRole(i).String(); got != w {
			t.Fatalf("role %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestShortRosterDecodes(t *testing.T) {
	var p preset.Preset
	if err := json.Unmarshal([]byte(`{"id":"p","name":"n","strikers":[{"id":"a","name":"A","exCost":3}],"specials":[],"timeline":[]}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Strikers[0].ID != "a" || !p.Strikers[1].Empty() || !p.Specials[0].Empty() {
		t.Fatalf("unexpected slots %+v %+v", p.Strikers, p.Specials)
	}
}

func names(cs []preset.Character) string {
	s := ""
	for _, c := range cs {
		s += c.Name
	}
	return s
}

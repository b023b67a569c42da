// Package transfer reads and writes presets as files: schema-checked import of
// a single preset or a whole collection, and JSON or YAML export.
package transfer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"timeline-editor/preset"
)

// ErrMalformed marks an import payload that is not a structurally valid
// preset or collection.
var ErrMalformed = errors.New("malformed import payload")

//go:embed schema/*.json
var schemaFS embed.FS

type schemas struct {
	preset     *gojsonschema.Schema
	collection *gojsonschema.Schema
}

var loadSchemas = sync.OnceValues(func() (schemas, error) {
	var s schemas
	var err error
	if s.preset, err = compile("schema/preset.json"); err != nil {
		return s, err
	}
	if s.collection, err = compile("schema/collection.json"); err != nil {
		return s, err
	}
	return s, nil
})

func compile(name string) (*gojsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return s, nil
}

func validate(s *gojsonschema.Schema, data []byte) error {
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(msgs, "; "))
}

// DecodePreset validates and decodes a single exported preset. The result is
// normalized but keeps whatever id the payload carried.
func DecodePreset(data []byte) (preset.Preset, error) {
	s, err := loadSchemas()
	if err != nil {
		return preset.Preset{}, err
	}
	if err := validate(s.preset, data); err != nil {
		return preset.Preset{}, err
	}
	var p preset.Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return preset.Preset{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Normalize(p), nil
}

// DecodeCollection accepts either a bare array of presets or an object with a
// "presets" array. Every element must be a valid preset.
func DecodeCollection(data []byte) ([]preset.Preset, error) {
	s, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	if err := validate(s.collection, data); err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &raw)
	} else {
		var env struct {
			Presets []json.RawMessage `json:"presets"`
		}
		err = json.Unmarshal(data, &env)
		raw = env.Presets
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make([]preset.Preset, 0, len(raw))
	for i, r := range raw {
		p, err := DecodePreset(r)
		if err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Normalize repairs data that did not come through the editor: it gives named
// characters and events missing ids fresh ones, clamps exCost, keeps at most
// MaxInitialSkills flags on named characters and drops dangling events.
func Normalize(p preset.Preset) preset.Preset {
	p = p.Clone()
	skills := 0
	fix := func(c *preset.Character) {
		if c.Named() && c.ID == "" {
			c.ID = preset.NewID()
		}
		if !c.Empty() {
			c.ExCost = preset.ClampExCost(c.ExCost)
		}
		if c.IsInitialSkill && (!c.Named() || skills >= preset.MaxInitialSkills) {
			c.IsInitialSkill = false
		}
		if c.IsInitialSkill {
			skills++
		}
	}
	for i := range p.Strikers {
		fix(&p.Strikers[i])
	}
	for i := range p.Specials {
		fix(&p.Specials[i])
	}
	for i := range p.Timeline {
		if p.Timeline[i].ID == "" {
			p.Timeline[i].ID = preset.NewID()
		}
	}
	return p.Pruned()
}

// ReassignIDs returns a copy of p under a fresh id, for imports that add to
// the collection.
func ReassignIDs(p preset.Preset) preset.Preset {
	out := p.Clone()
	out.ID = preset.NewID()
	return out
}

// ImportInto replaces target's content with imported while keeping target's
// id, so the preset being edited stays selected.
func ImportInto(target, imported preset.Preset) preset.Preset {
	out := imported.Clone()
	out.ID = target.ID
	return out
}

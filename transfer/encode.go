package transfer

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the export encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat maps a query value to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == YAML {
		return "application/yaml"
	}
	return "application/json"
}

func (f Format) Ext() string {
	if f == YAML {
		return ".yaml"
	}
	return ".json"
}

// Encode serializes v, a preset or a slice of presets, in format f.
func Encode(v any, f Format) ([]byte, error) {
	switch f {
	case YAML:
		return yaml.Marshal(v)
	case JSON, "":
		return json.MarshalIndent(v, "", "  ")
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

var unsafeName = strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

// Filename names an exported preset after the preset itself.
func Filename(name string, f Format) string {
	name = strings.TrimSpace(unsafeName.Replace(name))
	if name == "" || name == "." || name == ".." {
		name = "preset"
	}
	return name + f.Ext()
}

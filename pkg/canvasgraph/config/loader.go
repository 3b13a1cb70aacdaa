package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// FromFile loads values from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Values{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Values{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Values.
func FromYAML(data []byte) (Values, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Values{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into Values.
func FromJSON(data []byte) (Values, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Values{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// Decode fills out, a pointer to a struct, from the values using the
// "mapstructure" tags. Fields absent from the map keep their current
// value; slices and pointers present in the map replace the current ones
// whole. Unknown keys are an error.
func (v Values) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v.data); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Generation decodes the values over canvasgraph.DefaultConfig.
// The result is not validated; Assemble does that.
func Generation(v Values) (canvasgraph.Config, error) {
	cfg := canvasgraph.DefaultConfig()
	if err := v.Decode(&cfg); err != nil {
		return canvasgraph.Config{}, err
	}
	return cfg, nil
}

// Load reads a generation configuration file.
func Load(path string) (canvasgraph.Config, error) {
	v, err := FromFile(path)
	if err != nil {
		return canvasgraph.Config{}, err
	}
	return Generation(v)
}

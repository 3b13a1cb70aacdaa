/*
Package config loads generation configurations from YAML or JSON.

# Overview

Values wraps a map[string]any and provides typed accessors that return a
default when a key is missing or has the wrong type. Decode fills a struct
from the map, and Generation turns it into a canvasgraph.Config on top of
canvasgraph.DefaultConfig.

# Basic Usage

	v, err := config.FromFile("outpaint.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	steps := v.Int("steps", 30)

	cfg, err := config.Generation(v)
	if err != nil {
	    log.Fatal(err)
	}

A minimal file:

	model:
	  model_name: sdxl-base
	  base_model: sdxl
	positive_prompt: a lighthouse at dusk
	init_image: canvas.png
	steps: 30
	strength: 0.7

# Type Coercion

Numeric accessors accept int, int64 and float64 so YAML and JSON numbers
read the same way. Decode is weakly typed: "30" decodes into an int field
and 1 into a bool field.

# Thread Safety

Values is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config

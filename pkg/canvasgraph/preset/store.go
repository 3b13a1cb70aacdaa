// Package preset stores named generation configurations so a canvas
// session can be reassembled later without re-entering its settings.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// Store persists presets by name.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a preset, overwriting any preset with the same name.
	Save(name string, data []byte) error

	// Load retrieves a preset.
	// Returns ErrNotFound if the preset doesn't exist.
	Load(name string) ([]byte, error)

	// List returns all presets ordered by name.
	// Returns an empty slice (not error) if there are none.
	List() ([]Info, error)

	// Delete removes a preset.
	// Returns nil if the preset doesn't exist.
	Delete(name string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the preset.
type Info struct {
	Name      string
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for preset operations.
var (
	// ErrNotFound indicates a preset doesn't exist.
	ErrNotFound = errors.New("preset not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("preset store closed")

	// ErrInvalidName indicates an empty or whitespace-padded preset name.
	ErrInvalidName = errors.New("invalid preset name")
)

func checkName(name string) error {
	if name == "" || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SaveConfig encodes cfg as JSON and saves it under name.
func SaveConfig(s Store, name string, cfg canvasgraph.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal preset %s: %w", name, err)
	}
	return s.Save(name, data)
}

// LoadConfig loads the preset saved under name over canvasgraph.DefaultConfig.
func LoadConfig(s Store, name string) (canvasgraph.Config, error) {
	data, err := s.Load(name)
	if err != nil {
		return canvasgraph.Config{}, err
	}
	cfg := canvasgraph.DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return canvasgraph.Config{}, fmt.Errorf("unmarshal preset %s: %w", name, err)
	}
	return cfg, nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// Settings is the decoded desktop settings document.
// Only builderOptions is interpreted, everything else is carried as is.
type Settings map[string]any

const (
	// BuilderOptionsKey is the settings field holding packaging engine options.
	BuilderOptionsKey = "builderOptions"

	// OptionAsar toggles archive packing of the application sources.
	OptionAsar = "asar"

	// OptionNpmRebuild toggles rebuilding native dependencies.
	OptionNpmRebuild = "npmRebuild"
)

var (
	// ErrNoBuilderOptions is returned when the settings lack builderOptions.
	ErrNoBuilderOptions = errors.New("no builderOptions in settings")
	// ErrInvalidBuilderOptions is returned when builderOptions is not an object.
	ErrInvalidBuilderOptions = errors.New("builderOptions must be an object")
)

// ParseSettings decodes a settings document. Comments and trailing commas are allowed.
func ParseSettings(data []byte) (Settings, error) {
	var settings Settings
	if err := json.Unmarshal(jsonc.ToJSON(data), &settings); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	if settings == nil {
		settings = Settings{}
	}

	return settings, nil
}

// LoadSettings reads and decodes the settings file at path.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings, err := ParseSettings(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return settings, nil
}

// BuilderOptions returns the builderOptions object. Its content is not validated.
func (s Settings) BuilderOptions() (map[string]any, error) {
	raw, ok := s[BuilderOptionsKey]
	if !ok || raw == nil {
		return nil, ErrNoBuilderOptions
	}

	options, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w, got %T", ErrInvalidBuilderOptions, raw)
	}

	return options, nil
}

// MergeBuilderOptions returns a copy of options with archive packing disabled
// and dependency rebuild forced. The input map is left untouched.
func MergeBuilderOptions(options map[string]any) map[string]any {
	merged := make(map[string]any, len(options)+2)
	maps.Copy(merged, options)

	merged[OptionAsar] = false
	merged[OptionNpmRebuild] = true

	return merged
}

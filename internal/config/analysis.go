// Package config loads the JSON analysis configuration: display geometry,
// the pupil baseline window, and the validity bounds applied by the metric
// rollups. Fields are pointers so a partial file only overrides what it sets;
// the Get* accessors supply defaults for the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical analysis defaults file,
// relative to the repository root.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig is the root analysis configuration. The schema matches the
// /api/config endpoint so the same JSON round-trips between file and API.
type AnalysisConfig struct {
	// Display geometry. Both are required: normalized gaze coordinates are
	// meaningless without a screen to project onto.
	ScreenWidthPX  *float64 `json:"screen_width_px,omitempty"`
	ScreenHeightPX *float64 `json:"screen_height_px,omitempty"`

	// Physical setup, used only to express distances in degrees of visual
	// angle. Optional; without both, degree output is unavailable and the
	// API reports pixel distances only.
	ScreenWidthMM     *float64 `json:"screen_width_mm,omitempty"`
	ViewingDistanceMM *float64 `json:"viewing_distance_mm,omitempty"`

	// Pupil baseline window, measured from each trial's first sample.
	BaselineWindowMS *float64 `json:"baseline_window_ms,omitempty"`

	// Validity bounds for metric means. Events outside a bound still exist;
	// they just do not contribute to the mean the bound guards.
	FixationDurationMinMS *float64 `json:"fixation_duration_min_ms,omitempty"`
	FixationDurationMaxMS *float64 `json:"fixation_duration_max_ms,omitempty"`
	SaccadeAmplitudeMaxPX *float64 `json:"saccade_amplitude_max_px,omitempty"`
	PupilChangeRateMaxAbs *float64 `json:"pupil_change_rate_max_abs,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset. Use
// LoadAnalysisConfig to load actual values from a file.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. The file must
// have a .json extension and stay under the size cap. Fields omitted from the
// file fall back to defaults through the Get* accessors, so partial configs
// are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical analysis defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable. Required fields
// must be present; optional fields are only checked when set.
func (c *AnalysisConfig) Validate() error {
	if c.ScreenWidthPX == nil {
		return fmt.Errorf("screen_width_px is required")
	}
	if *c.ScreenWidthPX <= 0 {
		return fmt.Errorf("screen_width_px must be positive, got %f", *c.ScreenWidthPX)
	}
	if c.ScreenHeightPX == nil {
		return fmt.Errorf("screen_height_px is required")
	}
	if *c.ScreenHeightPX <= 0 {
		return fmt.Errorf("screen_height_px must be positive, got %f", *c.ScreenHeightPX)
	}
	if c.ScreenWidthMM != nil && *c.ScreenWidthMM <= 0 {
		return fmt.Errorf("screen_width_mm must be positive, got %f", *c.ScreenWidthMM)
	}
	if c.ViewingDistanceMM != nil && *c.ViewingDistanceMM <= 0 {
		return fmt.Errorf("viewing_distance_mm must be positive, got %f", *c.ViewingDistanceMM)
	}
	if c.BaselineWindowMS != nil && *c.BaselineWindowMS <= 0 {
		return fmt.Errorf("baseline_window_ms must be positive, got %f", *c.BaselineWindowMS)
	}
	if c.FixationDurationMinMS != nil && *c.FixationDurationMinMS < 0 {
		return fmt.Errorf("fixation_duration_min_ms must be non-negative, got %f", *c.FixationDurationMinMS)
	}
	if c.FixationDurationMinMS != nil && c.FixationDurationMaxMS != nil &&
		*c.FixationDurationMinMS > *c.FixationDurationMaxMS {
		return fmt.Errorf("fixation_duration_min_ms %f exceeds fixation_duration_max_ms %f",
			*c.FixationDurationMinMS, *c.FixationDurationMaxMS)
	}
	if c.SaccadeAmplitudeMaxPX != nil && *c.SaccadeAmplitudeMaxPX <= 0 {
		return fmt.Errorf("saccade_amplitude_max_px must be positive, got %f", *c.SaccadeAmplitudeMaxPX)
	}
	if c.PupilChangeRateMaxAbs != nil && *c.PupilChangeRateMaxAbs <= 0 {
		return fmt.Errorf("pupil_change_rate_max_abs must be positive, got %f", *c.PupilChangeRateMaxAbs)
	}
	return nil
}

// GetScreenWidthPX returns the screen width or zero when unset. There is no
// default width; Validate rejects configs that omit it.
func (c *AnalysisConfig) GetScreenWidthPX() float64 {
	if c.ScreenWidthPX == nil {
		return 0
	}
	return *c.ScreenWidthPX
}

// GetScreenHeightPX returns the screen height or zero when unset.
func (c *AnalysisConfig) GetScreenHeightPX() float64 {
	if c.ScreenHeightPX == nil {
		return 0
	}
	return *c.ScreenHeightPX
}

// GetScreenWidthMM returns the physical screen width or zero when unset.
func (c *AnalysisConfig) GetScreenWidthMM() float64 {
	if c.ScreenWidthMM == nil {
		return 0
	}
	return *c.ScreenWidthMM
}

// GetViewingDistanceMM returns the viewing distance or zero when unset.
func (c *AnalysisConfig) GetViewingDistanceMM() float64 {
	if c.ViewingDistanceMM == nil {
		return 0
	}
	return *c.ViewingDistanceMM
}

// GetBaselineWindowMS returns the baseline_window_ms value or the default.
func (c *AnalysisConfig) GetBaselineWindowMS() float64 {
	if c.BaselineWindowMS == nil {
		return 500 // default
	}
	return *c.BaselineWindowMS
}

// GetFixationDurationMinMS returns the fixation_duration_min_ms value or the default.
func (c *AnalysisConfig) GetFixationDurationMinMS() float64 {
	if c.FixationDurationMinMS == nil {
		return 50
	}
	return *c.FixationDurationMinMS
}

// GetFixationDurationMaxMS returns the fixation_duration_max_ms value or the default.
func (c *AnalysisConfig) GetFixationDurationMaxMS() float64 {
	if c.FixationDurationMaxMS == nil {
		return 2000
	}
	return *c.FixationDurationMaxMS
}

// GetSaccadeAmplitudeMaxPX returns the saccade_amplitude_max_px value or the default.
func (c *AnalysisConfig) GetSaccadeAmplitudeMaxPX() float64 {
	if c.SaccadeAmplitudeMaxPX == nil {
		return 500
	}
	return *c.SaccadeAmplitudeMaxPX
}

// GetPupilChangeRateMaxAbs returns the pupil_change_rate_max_abs value or the default.
func (c *AnalysisConfig) GetPupilChangeRateMaxAbs() float64 {
	if c.PupilChangeRateMaxAbs == nil {
		return 0.2
	}
	return *c.PupilChangeRateMaxAbs
}

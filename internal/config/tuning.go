package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for occlusion mask tuning.
// The schema matches the /api/params endpoint so the same JSON can be used
// for both startup configuration and runtime updates.
type TuningConfig struct {
	// Edge mask params
	ThresholdFloor   *int     `json:"threshold_floor,omitempty"`
	ThresholdCeiling *int     `json:"threshold_ceiling,omitempty"`
	SealDilateRadius *int     `json:"seal_dilate_radius,omitempty"`
	EdgeDilateRadius *int     `json:"edge_dilate_radius,omitempty"`
	EdgeBlurRadius   *int     `json:"edge_blur_radius,omitempty"`
	EdgeBlurSigma    *float64 `json:"edge_blur_sigma,omitempty"`

	// Color mask params
	ColorDistance        *float64 `json:"color_distance,omitempty"`
	UseLabColor          *bool    `json:"use_lab_color,omitempty"`
	ColorDilateRadius    *int     `json:"color_dilate_radius,omitempty"`
	ColorBlurRadius      *int     `json:"color_blur_radius,omitempty"`
	ColorBlurSigma       *float64 `json:"color_blur_sigma,omitempty"`
	BorderBandFraction   *float64 `json:"border_band_fraction,omitempty"`
	BorderSamplesPerEdge *int     `json:"border_samples_per_edge,omitempty"`

	// Fusion params
	GateDilateRadius *int     `json:"gate_dilate_radius,omitempty"`
	GateBlurRadius   *int     `json:"gate_blur_radius,omitempty"`
	GateBlurSigma    *float64 `json:"gate_blur_sigma,omitempty"`
	Gamma            *float64 `json:"gamma,omitempty"`

	// Corpus and serving params
	MaxLoadDimension *int `json:"max_load_dimension,omitempty"`
	CacheCapacity    *int `json:"cache_capacity,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/occlusion/sweep/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ThresholdFloor != nil {
		if *c.ThresholdFloor < 0 || *c.ThresholdFloor > 255 {
			return fmt.Errorf("threshold_floor must be between 0 and 255, got %d", *c.ThresholdFloor)
		}
	}
	if c.ThresholdCeiling != nil {
		if *c.ThresholdCeiling < 0 || *c.ThresholdCeiling > 255 {
			return fmt.Errorf("threshold_ceiling must be between 0 and 255, got %d", *c.ThresholdCeiling)
		}
	}
	if c.ThresholdFloor != nil && c.ThresholdCeiling != nil && *c.ThresholdFloor > *c.ThresholdCeiling {
		return fmt.Errorf("threshold_floor %d exceeds threshold_ceiling %d", *c.ThresholdFloor, *c.ThresholdCeiling)
	}

	if c.SealDilateRadius != nil && *c.SealDilateRadius < 0 {
		return fmt.Errorf("seal_dilate_radius must be non-negative, got %d", *c.SealDilateRadius)
	}
	if c.EdgeDilateRadius != nil && *c.EdgeDilateRadius < 0 {
		return fmt.Errorf("edge_dilate_radius must be non-negative, got %d", *c.EdgeDilateRadius)
	}
	if c.EdgeBlurRadius != nil && *c.EdgeBlurRadius < 0 {
		return fmt.Errorf("edge_blur_radius must be non-negative, got %d", *c.EdgeBlurRadius)
	}
	if c.EdgeBlurSigma != nil && *c.EdgeBlurSigma <= 0 {
		return fmt.Errorf("edge_blur_sigma must be positive, got %f", *c.EdgeBlurSigma)
	}
	if c.ColorDilateRadius != nil && *c.ColorDilateRadius < 0 {
		return fmt.Errorf("color_dilate_radius must be non-negative, got %d", *c.ColorDilateRadius)
	}
	if c.ColorBlurRadius != nil && *c.ColorBlurRadius < 0 {
		return fmt.Errorf("color_blur_radius must be non-negative, got %d", *c.ColorBlurRadius)
	}
	if c.ColorBlurSigma != nil && *c.ColorBlurSigma <= 0 {
		return fmt.Errorf("color_blur_sigma must be positive, got %f", *c.ColorBlurSigma)
	}
	if c.GateDilateRadius != nil && *c.GateDilateRadius < 0 {
		return fmt.Errorf("gate_dilate_radius must be non-negative, got %d", *c.GateDilateRadius)
	}
	if c.GateBlurRadius != nil && *c.GateBlurRadius < 0 {
		return fmt.Errorf("gate_blur_radius must be non-negative, got %d", *c.GateBlurRadius)
	}
	if c.GateBlurSigma != nil && *c.GateBlurSigma <= 0 {
		return fmt.Errorf("gate_blur_sigma must be positive, got %f", *c.GateBlurSigma)
	}

	if c.ColorDistance != nil && *c.ColorDistance < 0 {
		return fmt.Errorf("color_distance must be non-negative, got %f", *c.ColorDistance)
	}
	if c.Gamma != nil && *c.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %f", *c.Gamma)
	}

	if c.BorderBandFraction != nil {
		if *c.BorderBandFraction <= 0 || *c.BorderBandFraction > 0.5 {
			return fmt.Errorf("border_band_fraction must be in (0, 0.5], got %f", *c.BorderBandFraction)
		}
	}
	if c.BorderSamplesPerEdge != nil && *c.BorderSamplesPerEdge < 1 {
		return fmt.Errorf("border_samples_per_edge must be at least 1, got %d", *c.BorderSamplesPerEdge)
	}

	if c.MaxLoadDimension != nil && *c.MaxLoadDimension < 16 {
		return fmt.Errorf("max_load_dimension must be at least 16, got %d", *c.MaxLoadDimension)
	}
	if c.CacheCapacity != nil && *c.CacheCapacity < 0 {
		return fmt.Errorf("cache_capacity must be non-negative, got %d", *c.CacheCapacity)
	}

	return nil
}

// GetThresholdFloor returns the threshold_floor value or the default.
func (c *TuningConfig) GetThresholdFloor() int {
	if c.ThresholdFloor == nil {
		return 35 // default
	}
	return *c.ThresholdFloor
}

// GetThresholdCeiling returns the threshold_ceiling value or the default.
func (c *TuningConfig) GetThresholdCeiling() int {
	if c.ThresholdCeiling == nil {
		return 180 // default
	}
	return *c.ThresholdCeiling
}

// GetSealDilateRadius returns the seal_dilate_radius value or the default.
func (c *TuningConfig) GetSealDilateRadius() int {
	if c.SealDilateRadius == nil {
		return 2 // default
	}
	return *c.SealDilateRadius
}

// GetEdgeDilateRadius returns the edge_dilate_radius value or the default.
func (c *TuningConfig) GetEdgeDilateRadius() int {
	if c.EdgeDilateRadius == nil {
		return 2 // default
	}
	return *c.EdgeDilateRadius
}

// GetEdgeBlurRadius returns the edge_blur_radius value or the default.
func (c *TuningConfig) GetEdgeBlurRadius() int {
	if c.EdgeBlurRadius == nil {
		return 3 // default
	}
	return *c.EdgeBlurRadius
}

// GetEdgeBlurSigma returns the edge_blur_sigma value or the default.
func (c *TuningConfig) GetEdgeBlurSigma() float64 {
	if c.EdgeBlurSigma == nil {
		return 1.5 // default
	}
	return *c.EdgeBlurSigma
}

// GetColorDistance returns the color_distance value or the default.
func (c *TuningConfig) GetColorDistance() float64 {
	if c.ColorDistance == nil {
		return 58.0 // default
	}
	return *c.ColorDistance
}

// GetUseLabColor returns the use_lab_color value or the default.
func (c *TuningConfig) GetUseLabColor() bool {
	if c.UseLabColor == nil {
		return false // default: plain RGB distance
	}
	return *c.UseLabColor
}

// GetColorDilateRadius returns the color_dilate_radius value or the default.
func (c *TuningConfig) GetColorDilateRadius() int {
	if c.ColorDilateRadius == nil {
		return 2 // default
	}
	return *c.ColorDilateRadius
}

// GetColorBlurRadius returns the color_blur_radius value or the default.
func (c *TuningConfig) GetColorBlurRadius() int {
	if c.ColorBlurRadius == nil {
		return 3 // default
	}
	return *c.ColorBlurRadius
}

// GetColorBlurSigma returns the color_blur_sigma value or the default.
func (c *TuningConfig) GetColorBlurSigma() float64 {
	if c.ColorBlurSigma == nil {
		return 1.5 // default
	}
	return *c.ColorBlurSigma
}

// GetBorderBandFraction returns the border_band_fraction value or the default.
func (c *TuningConfig) GetBorderBandFraction() float64 {
	if c.BorderBandFraction == nil {
		return 0.08 // default
	}
	return *c.BorderBandFraction
}

// GetBorderSamplesPerEdge returns the border_samples_per_edge value or the default.
func (c *TuningConfig) GetBorderSamplesPerEdge() int {
	if c.BorderSamplesPerEdge == nil {
		return 64 // default
	}
	return *c.BorderSamplesPerEdge
}

// GetGateDilateRadius returns the gate_dilate_radius value or the default.
func (c *TuningConfig) GetGateDilateRadius() int {
	if c.GateDilateRadius == nil {
		return 10 // default
	}
	return *c.GateDilateRadius
}

// GetGateBlurRadius returns the gate_blur_radius value or the default.
func (c *TuningConfig) GetGateBlurRadius() int {
	if c.GateBlurRadius == nil {
		return 8 // default
	}
	return *c.GateBlurRadius
}

// GetGateBlurSigma returns the gate_blur_sigma value or the default.
func (c *TuningConfig) GetGateBlurSigma() float64 {
	if c.GateBlurSigma == nil {
		return 4.0 // default
	}
	return *c.GateBlurSigma
}

// GetGamma returns the gamma value or the default.
func (c *TuningConfig) GetGamma() float64 {
	if c.Gamma == nil {
		return 0.7 // default
	}
	return *c.Gamma
}

// GetMaxLoadDimension returns the max_load_dimension value or the default.
func (c *TuningConfig) GetMaxLoadDimension() int {
	if c.MaxLoadDimension == nil {
		return 1024 // default
	}
	return *c.MaxLoadDimension
}

// GetCacheCapacity returns the cache_capacity value or the default.
func (c *TuningConfig) GetCacheCapacity() int {
	if c.CacheCapacity == nil {
		return 64 // default
	}
	return *c.CacheCapacity
}

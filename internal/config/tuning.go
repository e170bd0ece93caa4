// Package config loads the tracker tuning file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/ptz-tracker/internal/actuator"
	"github.com/banshee-data/ptz-tracker/internal/serialmux"
	"github.com/banshee-data/ptz-tracker/internal/servo"
	"github.com/banshee-data/ptz-tracker/internal/tracking"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig is the root of the tuning file. Every field is optional; the
// Get* methods supply defaults for anything left out.
type TuningConfig struct {
	// Tracker params
	PanPID          *tracking.PIDGains `json:"pan_pid,omitempty"`
	TiltPID         *tracking.PIDGains `json:"tilt_pid,omitempty"`
	MaxShift        *float64           `json:"max_shift,omitempty"`
	SmoothingWindow *int               `json:"smoothing_window,omitempty"`

	// Zoom params
	ZoomMin         *float64 `json:"zoom_min,omitempty"`
	ZoomMax         *float64 `json:"zoom_max,omitempty"`
	TargetFillRatio *float64 `json:"target_fill_ratio,omitempty"`
	CenterThreshold *float64 `json:"center_threshold,omitempty"`

	// Mode switching
	Persist      *int    `json:"persist,omitempty"`
	ZoomOutAfter *string `json:"zoom_out_after,omitempty"` // duration string like "5s"
	SearchAfter  *string `json:"search_after,omitempty"`

	// Loop
	DetectTimeout               *string `json:"detect_timeout,omitempty"`
	MaxConsecutiveWriteFailures *int    `json:"max_consecutive_write_failures,omitempty"`

	// Mount
	Home        *actuator.Pose         `json:"home,omitempty"`
	Serial      *serialmux.PortOptions `json:"serial,omitempty"`
	SettleDelay *string                `json:"settle_delay,omitempty"`

	// Detector
	ClassIDs      *[]int   `json:"class_ids,omitempty"` // empty list keeps every class
	MinConfidence *float64 `json:"min_confidence,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with every field unset, which
// yields the built-in defaults.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have a
// .json extension and be at most 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the working directory or
// one of its parents. It panics if the file cannot be loaded and is intended
// for tests.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *TuningConfig) Validate() error {
	for name, g := range map[string]*tracking.PIDGains{"pan_pid": c.PanPID, "tilt_pid": c.TiltPID} {
		if g != nil && (g.Kp < 0 || g.Ki < 0 || g.Kd < 0) {
			return fmt.Errorf("%s gains must be non-negative, got %+v", name, *g)
		}
	}
	if c.MaxShift != nil && *c.MaxShift <= 0 {
		return fmt.Errorf("max_shift must be positive, got %f", *c.MaxShift)
	}
	if c.SmoothingWindow != nil && *c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be at least 1, got %d", *c.SmoothingWindow)
	}
	if c.GetZoomMin() < 1 {
		return fmt.Errorf("zoom_min must be at least 1, got %f", c.GetZoomMin())
	}
	if c.GetZoomMax() < c.GetZoomMin() {
		return fmt.Errorf("zoom_max %f is below zoom_min %f", c.GetZoomMax(), c.GetZoomMin())
	}
	if c.TargetFillRatio != nil && (*c.TargetFillRatio <= 0 || *c.TargetFillRatio > 1) {
		return fmt.Errorf("target_fill_ratio must be in (0, 1], got %f", *c.TargetFillRatio)
	}
	if c.CenterThreshold != nil && (*c.CenterThreshold < 0 || *c.CenterThreshold > 1) {
		return fmt.Errorf("center_threshold must be between 0 and 1, got %f", *c.CenterThreshold)
	}
	if c.Persist != nil && *c.Persist < 0 {
		return fmt.Errorf("persist must be non-negative, got %d", *c.Persist)
	}
	if c.MaxConsecutiveWriteFailures != nil && *c.MaxConsecutiveWriteFailures < 0 {
		return fmt.Errorf("max_consecutive_write_failures must be non-negative, got %d", *c.MaxConsecutiveWriteFailures)
	}
	if c.MinConfidence != nil && (*c.MinConfidence < 0 || *c.MinConfidence > 1) {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %f", *c.MinConfidence)
	}

	durations := []struct {
		name string
		v    *string
	}{
		{"zoom_out_after", c.ZoomOutAfter},
		{"search_after", c.SearchAfter},
		{"detect_timeout", c.DetectTimeout},
		{"settle_delay", c.SettleDelay},
	}
	for _, d := range durations {
		if d.v == nil || *d.v == "" {
			continue
		}
		parsed, err := time.ParseDuration(*d.v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", d.name, *d.v, err)
		}
		if parsed < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", d.name, *d.v)
		}
	}
	if c.GetSearchAfter() < c.GetZoomOutAfter() {
		return fmt.Errorf("search_after %s is shorter than zoom_out_after %s", c.GetSearchAfter(), c.GetZoomOutAfter())
	}

	if c.Serial != nil {
		if _, err := c.Serial.Normalize(); err != nil {
			return fmt.Errorf("invalid serial options: %w", err)
		}
	}
	return nil
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

func (c *TuningConfig) GetPanPID() tracking.PIDGains {
	if c.PanPID == nil {
		return tracking.DefaultConfig().Pan
	}
	return *c.PanPID
}

func (c *TuningConfig) GetTiltPID() tracking.PIDGains {
	if c.TiltPID == nil {
		return tracking.DefaultConfig().Tilt
	}
	return *c.TiltPID
}

func (c *TuningConfig) GetMaxShift() float64 {
	if c.MaxShift == nil {
		return tracking.DefaultMaxShift
	}
	return *c.MaxShift
}

func (c *TuningConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return tracking.DefaultSmoothingWindow
	}
	return *c.SmoothingWindow
}

func (c *TuningConfig) GetZoomMin() float64 {
	if c.ZoomMin == nil {
		return tracking.DefaultZoomConfig().Min
	}
	return *c.ZoomMin
}

func (c *TuningConfig) GetZoomMax() float64 {
	if c.ZoomMax == nil {
		return tracking.DefaultZoomConfig().Max
	}
	return *c.ZoomMax
}

func (c *TuningConfig) GetTargetFillRatio() float64 {
	if c.TargetFillRatio == nil {
		return tracking.DefaultZoomConfig().TargetFillRatio
	}
	return *c.TargetFillRatio
}

func (c *TuningConfig) GetCenterThreshold() float64 {
	if c.CenterThreshold == nil {
		return tracking.DefaultZoomConfig().CenterThreshold
	}
	return *c.CenterThreshold
}

func (c *TuningConfig) GetPersist() int {
	if c.Persist == nil {
		return 0
	}
	return *c.Persist
}

// GetZoomOutAfter returns how long a target may be lost before zooming out.
func (c *TuningConfig) GetZoomOutAfter() time.Duration {
	return parseDurationOr(c.ZoomOutAfter, 5*time.Second)
}

// GetSearchAfter returns how long a target may be lost before searching.
func (c *TuningConfig) GetSearchAfter() time.Duration {
	return parseDurationOr(c.SearchAfter, 10*time.Second)
}

// GetDetectTimeout returns the per-frame detector deadline. Zero disables it.
func (c *TuningConfig) GetDetectTimeout() time.Duration {
	return parseDurationOr(c.DetectTimeout, 0)
}

func (c *TuningConfig) GetSettleDelay() time.Duration {
	return parseDurationOr(c.SettleDelay, actuator.DefaultSettleDelay)
}

func (c *TuningConfig) GetMaxConsecutiveWriteFailures() int {
	if c.MaxConsecutiveWriteFailures == nil {
		return 0
	}
	return *c.MaxConsecutiveWriteFailures
}

func (c *TuningConfig) GetHome() actuator.Pose {
	if c.Home == nil {
		return actuator.Home
	}
	return *c.Home
}

func (c *TuningConfig) GetSerial() serialmux.PortOptions {
	if c.Serial == nil {
		return serialmux.PortOptions{BaudRate: serialmux.DefaultBaudRate}
	}
	return *c.Serial
}

// GetClassIDs returns the detector classes to keep. Unset keeps class 0; an
// explicit empty list keeps every class.
func (c *TuningConfig) GetClassIDs() []int {
	if c.ClassIDs == nil {
		return []int{0}
	}
	return append([]int{}, (*c.ClassIDs)...)
}

func (c *TuningConfig) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return 0.3
	}
	return *c.MinConfidence
}

// ServoConfig assembles the controller configuration.
func (c *TuningConfig) ServoConfig() servo.Config {
	home := c.GetHome()
	return servo.Config{
		Tracker: tracking.Config{
			Pan:             c.GetPanPID(),
			Tilt:            c.GetTiltPID(),
			MaxShift:        c.GetMaxShift(),
			SmoothingWindow: c.GetSmoothingWindow(),
			Zoom: tracking.ZoomConfig{
				Min:             c.GetZoomMin(),
				Max:             c.GetZoomMax(),
				TargetFillRatio: c.GetTargetFillRatio(),
				CenterThreshold: c.GetCenterThreshold(),
			},
			Home: tracking.PanTilt{Pan: float64(home.Pan), Tilt: float64(home.Tilt)},
		},
		Persist:      c.GetPersist(),
		ZoomOutAfter: c.GetZoomOutAfter(),
		SearchAfter:  c.GetSearchAfter(),
	}
}

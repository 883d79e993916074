// Package config loads the optional JSON tuning file of the daemon.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tuning defaults. Flags and the tuning file override them.
const (
	DefaultMinConfidence  = 0.3
	DefaultHighThresh     = 0.5
	DefaultLowThresh      = 0.1
	DefaultMinScore       = 0.3
	DefaultMaxDisappeared = 5
	DefaultMaxTrackPoints = 30
	DefaultFPS            = 25.0
)

const maxTuningSize = 1 << 20

// Tuning is the on-disk tuning file. Pointer fields distinguish absent
// from zero; the Get accessors fall back to defaults and tolerate a nil
// receiver, so a missing file behaves like an empty one.
type Tuning struct {
	MinConfidence  *float64 `json:"min_confidence,omitempty"`
	HighThresh     *float64 `json:"high_thresh,omitempty"`
	LowThresh      *float64 `json:"low_thresh,omitempty"`
	MinScore       *float64 `json:"min_score,omitempty"`
	MaxDisappeared *int     `json:"max_disappeared,omitempty"`
	MaxTrackPoints *int     `json:"max_track_points,omitempty"`
	FPS            *float64 `json:"fps,omitempty"`
	Classes        []string `json:"classes,omitempty"`
}

// GetMinConfidence returns the detector confidence floor.
func (t *Tuning) GetMinConfidence() float64 {
	if t == nil || t.MinConfidence == nil {
		return DefaultMinConfidence
	}
	return *t.MinConfidence
}

// GetHighThresh returns the first-stage matching confidence floor.
func (t *Tuning) GetHighThresh() float64 {
	if t == nil || t.HighThresh == nil {
		return DefaultHighThresh
	}
	return *t.HighThresh
}

// GetLowThresh returns the second-stage matching confidence floor.
func (t *Tuning) GetLowThresh() float64 {
	if t == nil || t.LowThresh == nil {
		return DefaultLowThresh
	}
	return *t.LowThresh
}

// GetMinScore returns the minimum accepted match score.
func (t *Tuning) GetMinScore() float64 {
	if t == nil || t.MinScore == nil {
		return DefaultMinScore
	}
	return *t.MinScore
}

// GetMaxDisappeared returns how many unmatched frames a track survives.
func (t *Tuning) GetMaxDisappeared() int {
	if t == nil || t.MaxDisappeared == nil {
		return DefaultMaxDisappeared
	}
	return *t.MaxDisappeared
}

// GetMaxTrackPoints returns the per-identity trajectory bound.
func (t *Tuning) GetMaxTrackPoints() int {
	if t == nil || t.MaxTrackPoints == nil {
		return DefaultMaxTrackPoints
	}
	return *t.MaxTrackPoints
}

// GetFPS returns the assumed source frame rate.
func (t *Tuning) GetFPS() float64 {
	if t == nil || t.FPS == nil {
		return DefaultFPS
	}
	return *t.FPS
}

// GetClasses returns the configured class vocabulary, nil when unset.
func (t *Tuning) GetClasses() []string {
	if t == nil {
		return nil
	}
	return t.Classes
}

// Validate rejects values outside their working ranges.
func (t *Tuning) Validate() error {
	if t == nil {
		return nil
	}
	if t.MinConfidence != nil && (*t.MinConfidence < 0 || *t.MinConfidence > 1) {
		return fmt.Errorf("min_confidence must be within [0, 1], got %f", *t.MinConfidence)
	}
	if t.HighThresh != nil && (*t.HighThresh < 0 || *t.HighThresh > 1) {
		return fmt.Errorf("high_thresh must be within [0, 1], got %f", *t.HighThresh)
	}
	if t.LowThresh != nil && (*t.LowThresh < 0 || *t.LowThresh > 1) {
		return fmt.Errorf("low_thresh must be within [0, 1], got %f", *t.LowThresh)
	}
	if t.GetLowThresh() > t.GetHighThresh() {
		return fmt.Errorf("low_thresh %f must not exceed high_thresh %f", t.GetLowThresh(), t.GetHighThresh())
	}
	if t.MinScore != nil && (*t.MinScore < 0 || *t.MinScore > 1) {
		return fmt.Errorf("min_score must be within [0, 1], got %f", *t.MinScore)
	}
	if t.MaxDisappeared != nil && *t.MaxDisappeared < 1 {
		return fmt.Errorf("max_disappeared must be positive, got %d", *t.MaxDisappeared)
	}
	if t.MaxTrackPoints != nil && *t.MaxTrackPoints < 1 {
		return fmt.Errorf("max_track_points must be positive, got %d", *t.MaxTrackPoints)
	}
	if t.FPS != nil && *t.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", *t.FPS)
	}
	return nil
}

// LoadTuning reads and validates the tuning file at path. An empty path
// yields nil, which every accessor treats as all defaults.
func LoadTuning(path string) (*Tuning, error) {
	if path == "" {
		return nil, nil
	}
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return nil, fmt.Errorf("tuning file must be a .json file, got %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxTuningSize {
		return nil, fmt.Errorf("tuning file %s exceeds %d bytes", path, maxTuningSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tuning Tuning
	if err := json.Unmarshal(data, &tuning); err != nil {
		return nil, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return &tuning, nil
}

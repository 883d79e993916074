package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTuning(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTuning(t *testing.T) {
	path := writeTuning(t, "tuning.json", `{
		"min_confidence": 0.5,
		"max_disappeared": 10,
		"fps": 30,
		"classes": ["car", "bus"]
	}`)
	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := tuning.GetMinConfidence(); got != 0.5 {
		t.Errorf("min_confidence should be 0.5, but got %f", got)
	}
	if got := tuning.GetMaxDisappeared(); got != 10 {
		t.Errorf("max_disappeared should be 10, but got %d", got)
	}
	if got := tuning.GetFPS(); got != 30 {
		t.Errorf("fps should be 30, but got %f", got)
	}
	if got := tuning.GetClasses(); len(got) != 2 || got[0] != "car" {
		t.Errorf("classes should be [car bus], but got %v", got)
	}
	// Absent fields fall back to defaults.
	if got := tuning.GetHighThresh(); got != DefaultHighThresh {
		t.Errorf("high_thresh should default to %f, but got %f", DefaultHighThresh, got)
	}
	if got := tuning.GetMaxTrackPoints(); got != DefaultMaxTrackPoints {
		t.Errorf("max_track_points should default to %d, but got %d", DefaultMaxTrackPoints, got)
	}
}

func TestLoadTuningEmptyPath(t *testing.T) {
	tuning, err := LoadTuning("")
	if err != nil {
		t.Fatal(err)
	}
	if tuning != nil {
		t.Fatal("Empty path should yield a nil tuning")
	}
	// Nil receivers still answer with defaults.
	if got := tuning.GetMinConfidence(); got != DefaultMinConfidence {
		t.Errorf("Nil tuning should default min_confidence, but got %f", got)
	}
	if got := tuning.GetClasses(); got != nil {
		t.Errorf("Nil tuning should have no classes, but got %v", got)
	}
	if err := tuning.Validate(); err != nil {
		t.Errorf("Nil tuning should validate: %v", err)
	}
}

func TestLoadTuningRejectsBadExtension(t *testing.T) {
	path := writeTuning(t, "tuning.yaml", `{}`)
	if _, err := LoadTuning(path); err == nil {
		t.Error("Non-JSON extension should be rejected")
	}
}

func TestLoadTuningRejectsGarbage(t *testing.T) {
	path := writeTuning(t, "tuning.json", `{not json`)
	if _, err := LoadTuning(path); err == nil {
		t.Error("Malformed JSON should be rejected")
	}
}

func TestValidateRanges(t *testing.T) {
	bad := []string{
		`{"min_confidence": 1.5}`,
		`{"min_confidence": -0.1}`,
		`{"low_thresh": 0.9, "high_thresh": 0.4}`,
		`{"max_disappeared": 0}`,
		`{"max_track_points": -5}`,
		`{"fps": 0}`,
	}
	for _, body := range bad {
		path := writeTuning(t, "tuning.json", body)
		if _, err := LoadTuning(path); err == nil {
			t.Errorf("Tuning %s should fail validation", body)
		}
	}
}

func TestLoadTuningMissingFile(t *testing.T) {
	if _, err := LoadTuning(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Missing tuning file should be reported")
	}
}

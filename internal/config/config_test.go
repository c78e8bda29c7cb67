package config

import (
	"math/rand"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Size != DefaultSize {
		t.Errorf("expected size %d, got %d", DefaultSize, cfg.Size)
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if cfg.Substrate.Decay <= 0 || cfg.Substrate.Decay > 1 {
		t.Error("substrate decay outside (0, 1]")
	}
	if cfg.Feedback.Amplitude <= 0 {
		t.Error("feedback amplitude should be positive")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("listening")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Substrate.CoupleThreshold != 0.65 {
		t.Errorf("listening preset threshold = %v, want 0.65", cfg.Substrate.CoupleThreshold)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}

	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["ambient"] || !seen["listening"] {
		t.Error("the two substrate variants must exist as presets")
	}
}

func TestPresetsAreIndependent(t *testing.T) {
	a := GetPreset("ambient")
	a.Pulse.Probability = 0.99

	b := GetPreset("ambient")
	if b.Pulse.Probability == 0.99 {
		t.Error("presets must not share mutable state across calls")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Size = 64
	cfg.Seed = 1234
	cfg.Substrate.Decay = 0.95
	cfg.Pulse.Margin = 12

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Size != 64 || loaded.Seed != 1234 {
		t.Errorf("round trip lost top-level values: %+v", loaded)
	}
	if loaded.Substrate.Decay != 0.95 {
		t.Errorf("substrate decay = %v, want 0.95", loaded.Substrate.Decay)
	}
	if loaded.Pulse.Margin != 12 {
		t.Errorf("pulse margin = %v, want 12", loaded.Pulse.Margin)
	}
}

func TestBuild(t *testing.T) {
	cfg := GetPreset("ambient")
	cfg.Size = 96 // keep the test fast; still larger than 2*margin

	s, err := cfg.Build(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if s.Substrate().Grid().N != 96 {
		t.Errorf("substrate size = %d, want top-level override 96", s.Substrate().Grid().N)
	}
}

func TestBuild_InvalidSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Size = 0

	if _, err := cfg.Build(rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for non-positive size")
	}
}

func TestBuild_SizeConflictsWithMargin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Size = 50 // smaller than twice the default pulse margin

	if _, err := cfg.Build(rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected pulse margin validation to fail")
	}
}

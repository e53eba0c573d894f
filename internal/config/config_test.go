package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/clothsim/internal/compute"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Params.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Steps() != 1000 {
		t.Errorf("expected 1000 steps, got %d", cfg.Steps())
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloth.yaml")

	cfg := DefaultConfig()
	cfg.Cloth.Subdivisions = 8
	cfg.Cloth.PinCorners = []string{"top_left"}
	cfg.Params.SpringConstant = 500
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Cloth.Subdivisions != 8 {
		t.Errorf("expected 8 subdivisions, got %d", loaded.Cloth.Subdivisions)
	}
	if loaded.Params.SpringConstant != 500 {
		t.Errorf("expected spring constant 500, got %g", loaded.Params.SpringConstant)
	}
	if len(loaded.Cloth.PinCorners) != 1 || loaded.Cloth.PinCorners[0] != "top_left" {
		t.Errorf("pin corners not preserved: %v", loaded.Cloth.PinCorners)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("cloth:\n  subdivisions: 4\nparams:\n  gravity: 3.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Cloth.Subdivisions != 4 || cfg.Params.Gravity != 3.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Cloth.Length != DefaultLength || cfg.Params.Dt != DefaultDt {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("cloth:\n  subdivisions: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for zero subdivisions")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero length", func(c *Config) { c.Cloth.Length = 0 }},
		{"zero mass", func(c *Config) { c.Cloth.Mass = 0 }},
		{"bad axis", func(c *Config) { c.Cloth.UpAxis = "w" }},
		{"bad corner", func(c *Config) { c.Cloth.PinCorners = []string{"middle"} }},
		{"negative radius", func(c *Config) { c.Sphere.Radius = -1 }},
		{"friction above one", func(c *Config) { c.Sphere.Friction = 1.5 }},
		{"zero dt", func(c *Config) { c.Params.Dt = 0 }},
		{"zero duration", func(c *Config) { c.Run.Duration = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPinnedIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cloth.Subdivisions = 3
	cfg.Cloth.Pinned = []uint32{5}
	cfg.Cloth.PinCorners = []string{"top_right", "bottom_left", "bottom_right"}

	got := cfg.PinnedIDs()
	want := []uint32{5, 3, 12, 15}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}

	cfg.Cloth.Pinned = nil
	cfg.Cloth.PinCorners = []string{"top_edge"}
	if ids := cfg.PinnedIDs(); len(ids) != 4 || ids[3] != 3 {
		t.Errorf("top edge: got %v", ids)
	}
}

func TestNewCloth(t *testing.T) {
	cfg := GetPreset("hang")
	c, err := cfg.NewCloth(compute.NewSerialBackend())
	if err != nil {
		t.Fatalf("NewCloth failed: %v", err)
	}
	if c.VertexCount() != 17*17 {
		t.Errorf("expected %d vertices, got %d", 17*17, c.VertexCount())
	}
	if !c.IsPinned(0) || !c.IsPinned(16) {
		t.Errorf("expected top corners pinned, got %v", c.Pinned())
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("single_cell")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Cloth.Subdivisions != 1 {
		t.Errorf("expected 1 subdivision, got %d", cfg.Cloth.Subdivisions)
	}

	cfg.Cloth.PinCorners[0] = "bottom_right"
	if Presets["single_cell"].Cloth.PinCorners[0] != "top_left" {
		t.Error("GetPreset returned a shared preset")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetParam("spring_constant", 250); err != nil {
		t.Fatalf("SetParam failed: %v", err)
	}
	if cfg.ComputeParams().SpringConstant != 250 {
		t.Errorf("spring constant not applied")
	}
	if cfg.GetParams()["spring_constant"] != 250 {
		t.Errorf("GetParams out of sync")
	}
	if err := cfg.SetParam("nope", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

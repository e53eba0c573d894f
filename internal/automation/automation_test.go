package automation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/clothsim/internal/storage"
)

const scenarioYAML = `
name: hang-then-stiff
description: single cell at two stiffnesses
steps:
  - preset: single_cell
    duration: 0.2
  - preset: single_cell
    duration: 0.2
    params:
      spring_constant: 500
      damping: 0.5
    save_as: stiff
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "hang-then-stiff" || len(sc.Steps) != 2 {
		t.Fatalf("got %q with %d steps", sc.Name, len(sc.Steps))
	}

	cfg, err := sc.Steps[1].Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params.SpringConstant != 500 || cfg.Params.Damping != 0.5 {
		t.Errorf("overrides not applied: %+v", cfg.Params)
	}
	if cfg.Run.Duration != 0.2 {
		t.Errorf("duration = %v", cfg.Run.Duration)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: nothing\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(empty); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestStepConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		step ScenarioStep
	}{
		{"unknown preset", ScenarioStep{Preset: "nope"}},
		{"unknown param", ScenarioStep{Preset: "drape", Params: map[string]float64{"bogus": 1}}},
		{"invalid friction", ScenarioStep{Preset: "drape", Params: map[string]float64{"friction": 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.step.Config(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}

	st := storage.New(t.TempDir())
	results, err := NewRunner(nil).WithStore(st).RunScenario(context.Background(), sc)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].RunID != "" {
		t.Error("first step should not be saved")
	}
	if results[1].RunID == "" {
		t.Fatal("second step should be saved")
	}
	for _, r := range results {
		if r.Result.StepsTaken != 20 {
			t.Errorf("expected 20 steps, got %d", r.Result.StepsTaken)
		}
		if _, ok := r.Result.Metrics["sag"]; !ok {
			t.Error("sag metric missing")
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Preset != "stiff" {
		t.Errorf("stored runs = %+v", runs)
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Preset:    "single_cell",
		ParamName: "damping",
		ParamMin:  0.1,
		ParamMax:  0.5,
		NumSteps:  3,
		Duration:  0.2,
		Parallel:  2,
	}

	results, err := NewRunner(nil).RunSweep(context.Background(), sweep)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	want := []float64{0.1, 0.3, 0.5}
	for i, r := range results {
		if math.Abs(r.ParamValue-want[i]) > 1e-9 {
			t.Errorf("point %d: param %v, want %v", i, r.ParamValue, want[i])
		}
		if r.Diverged {
			t.Errorf("point %d diverged", i)
		}
		if r.Sag <= 0 {
			t.Errorf("point %d: cloth should sag, got %v", i, r.Sag)
		}
	}
}

func TestRunSweepErrors(t *testing.T) {
	tests := []struct {
		name  string
		sweep ParameterSweep
	}{
		{"unknown preset", ParameterSweep{Preset: "nope", ParamName: "damping", NumSteps: 2}},
		{"unknown param", ParameterSweep{Preset: "single_cell", ParamName: "bogus", NumSteps: 2}},
		{"no steps", ParameterSweep{Preset: "single_cell", ParamName: "damping"}},
		{"invalid value", ParameterSweep{Preset: "single_cell", ParamName: "friction", ParamMin: 2, ParamMax: 3, NumSteps: 2, Duration: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRunner(nil).RunSweep(context.Background(), &tt.sweep); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{
		Preset:       "single_cell",
		Perturbation: 0.2,
		NumTrials:    3,
		Duration:     0.1,
		Seed:         7,
	}

	results, err := NewRunner(nil).RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(results))
	}

	stable, unstable := MonteCarloStats(results)
	if stable != 3 || unstable != 0 {
		t.Errorf("stable %d, unstable %d", stable, unstable)
	}

	again, err := NewRunner(nil).RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range results {
		if results[i].Params["spring_constant"] != again[i].Params["spring_constant"] {
			t.Error("same seed should give the same perturbations")
		}
	}
}

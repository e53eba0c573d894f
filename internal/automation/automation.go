package automation

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/compute"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/sim"
	"github.com/san-kum/clothsim/internal/storage"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run: a preset with overrides
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Duration float64            `yaml:"duration"`
	Dt       float32            `yaml:"dt"`
	Backend  string             `yaml:"backend"`
	Workers  int                `yaml:"workers"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step against its preset.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.GetPreset(s.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", s.Preset)
	}
	if s.Duration > 0 {
		cfg.Run.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Params.Dt = s.Dt
	}
	if s.Backend != "" {
		cfg.Run.Backend = s.Backend
	}
	if s.Workers > 0 {
		cfg.Run.Workers = s.Workers
	}

	names := make([]string, 0, len(s.Params))
	for k := range s.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := cfg.SetParam(k, s.Params[k]); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

type Runner struct {
	logger *log.Logger
	store  *storage.Store
}

func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{logger: logger}
}

// WithStore saves scenario steps that name a save_as label.
func (r *Runner) WithStore(st *storage.Store) *Runner {
	r.store = st
	return r
}

// Run builds the cloth described by cfg and simulates it.
func (r *Runner) Run(ctx context.Context, cfg *config.Config, ms ...sim.Metric) (*sim.Result, *cloth.Clothe, error) {
	backend, err := compute.New(cfg.Run.Backend, cfg.Run.Workers)
	if err != nil {
		return nil, nil, err
	}
	defer backend.Cleanup()

	c, err := cfg.NewCloth(backend)
	if err != nil {
		return nil, nil, err
	}

	s := sim.New(c, sim.WithLogger(r.logger))
	for _, m := range ms {
		s.AddMetric(m)
	}

	result, err := s.Run(ctx, cfg.SimConfig())
	if err != nil {
		return nil, nil, err
	}
	return result, c, nil
}

type StepResult struct {
	Preset string
	RunID  string
	Result *sim.Result
}

// RunScenario executes all steps in order
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		r.logger.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "preset", step.Preset)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		result, c, err := r.Run(ctx, cfg, metrics.NewPeakKinetic(), metrics.NewStretch(), metrics.NewSag())
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Preset: step.Preset, Result: result}
		if step.SaveAs != "" && r.store != nil {
			sr.RunID, err = r.store.Save(step.SaveAs, cfg, result, c.Indices())
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs one preset across a range of values of one parameter
type ParameterSweep struct {
	Preset    string
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Duration  float64
	// Parallel bounds how many sweep points run at once; 0 means one.
	Parallel int
}

// SweepResult holds the outcome of one sweep point
type SweepResult struct {
	ParamValue  float64
	FinalHeight float64
	MaxStretch  float64
	PeakKinetic float64
	Sag         float64
	Diverged    bool
}

// RunSweep executes a parameter sweep. Results are in parameter order.
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	base := config.GetPreset(sweep.Preset)
	if base == nil {
		return nil, fmt.Errorf("unknown preset: %s", sweep.Preset)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if _, ok := base.GetParams()[sweep.ParamName]; !ok {
		return nil, fmt.Errorf("unknown parameter: %s", sweep.ParamName)
	}
	if sweep.Duration > 0 {
		base.Run.Duration = sweep.Duration
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, sweep.NumSteps)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(sweep.Parallel, 1))
	for i := 0; i < sweep.NumSteps; i++ {
		i := i // per-iteration copy (go1.21 loop semantics)
		paramVal := sweep.ParamMin + float64(i)*paramStep
		cfg := base.Clone()
		if err := cfg.SetParam(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		g.Go(func() error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s=%.4f: %w", sweep.ParamName, paramVal, err)
			}

			peak, stretch := metrics.NewPeakKinetic(), metrics.NewStretch()
			sag := metrics.NewSag()
			result, _, err := r.Run(ctx, cfg, peak, stretch, sag)
			if err != nil {
				return fmt.Errorf("%s=%.4f: %w", sweep.ParamName, paramVal, err)
			}

			sr := SweepResult{
				ParamValue:  paramVal,
				MaxStretch:  stretch.Value(),
				PeakKinetic: peak.Value(),
				Sag:         sag.Value(),
				Diverged:    len(result.Errors) > 0,
			}
			if n := len(result.Frames); n > 0 {
				sr.FinalHeight = result.Frames[n-1].MeanHeight
			}
			results[i] = sr

			r.logger.Info("sweep point", "n", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig perturbs the physics constants of a preset at random
type MonteCarloConfig struct {
	Preset string
	// Perturbation is the relative spread applied to each constant.
	Perturbation float64
	NumTrials    int
	Duration     float64
	Seed         int64
}

// MonteCarloResult holds the outcome of one trial
type MonteCarloResult struct {
	TrialID    int
	Params     map[string]float64
	MaxStretch float64
	Stable     bool
}

// RunMonteCarlo executes trials with randomly perturbed constants
func (r *Runner) RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	base := config.GetPreset(mc.Preset)
	if base == nil {
		return nil, fmt.Errorf("unknown preset: %s", mc.Preset)
	}
	if mc.Duration > 0 {
		base.Run.Duration = mc.Duration
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	names := []string{"spring_constant", "damping", "friction"}
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := base.Clone()
		params := cfg.GetParams()
		perturbed := make(map[string]float64, len(names))
		for _, name := range names {
			v := params[name] * (1 + (rng.Float64()-0.5)*2*mc.Perturbation)
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
			perturbed[name] = v
		}

		stretch := metrics.NewStretch()
		stable := true
		result, _, err := r.Run(ctx, cfg, stretch)
		switch {
		case err != nil && ctx.Err() != nil:
			return results, err
		case err != nil:
			stable = false
		case len(result.Errors) > 0:
			stable = false
		}

		results = append(results, MonteCarloResult{
			TrialID:    trial,
			Params:     perturbed,
			MaxStretch: stretch.Value(),
			Stable:     stable,
		})

		if (trial+1)%10 == 0 {
			r.logger.Info("monte carlo", "done", trial+1, "of", mc.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats counts stable and unstable trials
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

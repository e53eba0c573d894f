package sim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/metrics"
)

type Simulator struct {
	cloth         *cloth.Clothe
	metrics       []Metric
	observers     []Observer
	logger        *log.Logger
	keepSnapshots bool
}

type Option func(*Simulator)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSnapshots keeps a full copy of the vertices at every sampled frame.
func WithSnapshots() Option {
	return func(s *Simulator) { s.keepSnapshots = true }
}

func New(c *cloth.Clothe, opts ...Option) *Simulator {
	s := &Simulator{
		cloth:     c,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Cloth() *cloth.Clothe    { return s.cloth }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := stepCount(cfg)
	every := cfg.SampleEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		Frames:  make([]Frame, 0, steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run start", "vertices", s.cloth.VertexCount(), "steps", steps, "dt", cfg.Dt)

	t := 0.0
	s.sample(result, cfg.Sphere, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := s.cloth.Step(cfg.Dt, cfg.Sphere, cfg.Params); err != nil {
			return result, fmt.Errorf("step %d: %w", i, err)
		}
		t += float64(cfg.Dt)
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(s.cloth, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.cloth, t)
		}

		if !metrics.Finite(s.cloth) {
			err := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)", Wrapped: ErrDiverged}
			result.Errors = append(result.Errors, err)
			s.logger.Warn("cloth diverged", "step", i, "t", t)
			break
		}

		if (i+1)%every == 0 || i == steps-1 {
			s.sample(result, cfg.Sphere, t)
		}
	}

	result.Final = s.cloth.Snapshot()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run done", "steps", result.StepsTaken, "frames", len(result.Frames))
	return result, nil
}

func (s *Simulator) sample(result *Result, sphere cloth.Sphere, t float64) {
	lo, hi := metrics.HeightRange(s.cloth)
	result.Frames = append(result.Frames, Frame{
		Time:       t,
		MeanHeight: metrics.MeanHeight(s.cloth),
		MinHeight:  lo,
		MaxHeight:  hi,
		Kinetic:    metrics.KineticEnergy(s.cloth),
		MaxStretch: metrics.MaxStretch(s.cloth),
		Clearance:  metrics.MinClearance(s.cloth, sphere),
	})
	if s.keepSnapshots {
		result.Snapshots = append(result.Snapshots, Snapshot{Time: t, Vertices: s.cloth.Snapshot()})
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(float64(cfg.Dt), 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d", cfg.SampleEvery)
	}
	return nil
}

func stepCount(cfg Config) int {
	return int(math.Round(cfg.Duration / float64(cfg.Dt)))
}

// RunWithCallback steps until the duration elapses or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(c *cloth.Clothe, t float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	steps := stepCount(cfg)
	t := 0.0

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s.cloth, t) {
			return nil
		}

		if err := s.cloth.Step(cfg.Dt, cfg.Sphere, cfg.Params); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		t += float64(cfg.Dt)

		for _, obs := range s.observers {
			obs.OnStep(s.cloth, t)
		}

		if !metrics.Finite(s.cloth) {
			return SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)", Wrapped: ErrDiverged}
		}
	}

	return nil
}

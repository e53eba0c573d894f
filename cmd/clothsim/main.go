package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/clothsim/internal/analysis"
	"github.com/san-kum/clothsim/internal/automation"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/compute"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/export"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/sim"
	"github.com/san-kum/clothsim/internal/storage"
	"github.com/san-kum/clothsim/internal/stream"
	"github.com/san-kum/clothsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	duration   float64
	dt         float64
	backend    string
	workers    int
	overrides  []string
	noSave     bool
	jsonOut    bool
	// serve
	addr   string
	every  int
	binary bool
	// sweep
	paramName string
	paramMin  float64
	paramMax  float64
	numSteps  int
	parallel  int
	// montecarlo
	trials int
	spread float64
	seed   int64
	// export
	outPath string
	// bench
	verify bool
	// analyze
	tolerance float64

	logger = log.New(os.Stderr)
)

// main registers the commands and runs the preset picker when no subcommand
// is given. It exits with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "clothsim",
		Short:         "mass-spring cloth simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Level: lvl})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := compute.New("auto", 0)
			if err != nil {
				return err
			}
			defer b.Cleanup()
			return viz.RunMenu(b)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".clothsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "stream a running cloth over websockets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serve,
	}
	addRunFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&every, "every", 2, "broadcast every n-th tick")
	serveCmd.Flags().BoolVar(&binary, "binary", false, "broadcast raw vertex buffers")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "oscillation and settling analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&tolerance, "tol", 0.001, "settling band")

	exportOBJCmd := &cobra.Command{
		Use:   "export-obj [run_id]",
		Short: "write the final mesh of a run as OBJ",
		Args:  cobra.ExactArgs(1),
		RunE:  exportOBJ,
	}
	exportOBJCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLENGTH\tSUBDIV\tPINNED\tDURATION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%.1fs\n",
					name, cfg.Cloth.Length, cfg.Cloth.Subdivisions, len(cfg.PinnedIDs()), cfg.Run.Duration)
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "time every compute backend on a preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bench,
	}
	addRunFlags(benchCmd)
	benchCmd.Flags().BoolVar(&verify, "verify", false, "also run all backends concurrently and compare")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep one parameter over a range",
		Args:  cobra.ExactArgs(1),
		RunE:  sweep,
	}
	sweepCmd.Flags().StringVar(&paramName, "param", "spring_constant", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 200, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 2000, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "concurrent runs")
	sweepCmd.Flags().Float64Var(&duration, "time", 0, "duration override")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "run trials with perturbed physics constants",
		Args:  cobra.ExactArgs(1),
		RunE:  monteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&spread, "spread", 0.2, "relative perturbation")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().Float64Var(&duration, "time", 0, "duration override")

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, listCmd, plotCmd, analyzeCmd, exportOBJCmd, exportJSONCmd, presetsCmd, benchCmd, sweepCmd, monteCarloCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	cmd.Flags().StringVar(&backend, "backend", "", "compute backend ("+strings.Join(compute.Names(), ", ")+", auto)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count for the cpu backend")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "parameter override name=value")
}

// loadConfig resolves the preset or config file, then applies flag overrides.
func loadConfig(args []string) (*config.Config, string, error) {
	var cfg *config.Config
	name := "drape"
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg, name = c, strings.TrimSuffix(strings.TrimSuffix(baseName(configFile), ".yaml"), ".yml")
	default:
		if len(args) > 0 {
			name = args[0]
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if duration > 0 {
		cfg.Run.Duration = duration
	}
	if dt > 0 {
		cfg.Params.Dt = float32(dt)
	}
	if backend != "" {
		cfg.Run.Backend = backend
	}
	if workers > 0 {
		cfg.Run.Workers = workers
	}
	for _, o := range overrides {
		k, v, ok := strings.Cut(o, "=")
		if !ok {
			return nil, "", fmt.Errorf("bad override %q, want name=value", o)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, "", fmt.Errorf("override %s: %w", k, err)
		}
		if err := cfg.SetParam(k, f); err != nil {
			return nil, "", err
		}
	}

	return cfg, name, cfg.Validate()
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	energy := metrics.NewEnergy(float64(cfg.Params.SpringConstant))
	peak, stretch := metrics.NewPeakKinetic(), metrics.NewStretch()
	clearance, sag := metrics.NewClearance(cfg.Obstacle()), metrics.NewSag()
	stability := metrics.NewStability(2)

	logger.Info("running", "preset", name, "subdivisions", cfg.Cloth.Subdivisions, "steps", cfg.Steps(), "backend", cfg.Run.Backend)
	start := time.Now()

	result, c, err := automation.NewRunner(logger).Run(ctx, cfg, energy, peak, stretch, clearance, sag, stability)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, e := range result.Errors {
		logger.Warn("run stopped early", "err", e)
	}

	if jsonOut {
		return export.WriteJSON(os.Stdout, export.NewRunData(name, cfg.SimConfig(), result))
	}

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(name, cfg, result, c.Indices())
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	for _, m := range []sim.Metric{energy, peak, stretch, clearance, sag, stability} {
		fmt.Printf("  %-14s %.6f\n", m.Name(), result.Metrics[m.Name()])
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(args)
	if err != nil {
		return err
	}
	b, err := compute.New(cfg.Run.Backend, cfg.Run.Workers)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	return viz.RunLive(cfg, name, b)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(args)
	if err != nil {
		return err
	}
	b, err := compute.New(cfg.Run.Backend, cfg.Run.Workers)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	opts := []stream.Option{stream.WithLogger(logger), stream.WithEvery(every)}
	if binary {
		opts = append(opts, stream.WithBinary())
	}
	hub := stream.NewHub(opts...)

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: hub.Handler()}
	go func() {
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		srv.Shutdown(shutdown)
	}()

	go func() {
		logger.Info("serving", "preset", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			cancel()
		}
	}()

	// one simulation per reset request, paced to wall-clock time
	frame := time.Duration(float64(cfg.Params.Dt) * float64(time.Second))
	for ctx.Err() == nil {
		c, err := cfg.NewCloth(b)
		if err != nil {
			return err
		}
		hub.Publish(c, 0)

		s := sim.New(c, sim.WithLogger(logger))
		s.AddObserver(hub)

		ticker := time.NewTicker(frame)
		loop := cfg.SimConfig()
		loop.Duration = float64(cfg.Params.Dt) * (1 << 40)
		err = s.RunWithCallback(ctx, loop, func(*cloth.Clothe, float64) bool {
			for {
				select {
				case <-ctx.Done():
					return false
				case <-ticker.C:
				}
				if hub.TakeReset() {
					return false
				}
				if !hub.Paused() {
					return true
				}
			}
		})
		ticker.Stop()

		switch {
		case errors.Is(err, sim.ErrDiverged):
			logger.Warn("cloth diverged, restarting")
		case err != nil && ctx.Err() == nil:
			return err
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tVERTICES\tDURATION\tDT\tBACKEND")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%.4fs\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Vertices,
			run.Duration,
			run.Dt,
			run.Backend,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(frames))

	series := []struct {
		caption string
		value   func(sim.Frame) float64
	}{
		{"mean height", func(f sim.Frame) float64 { return f.MeanHeight }},
		{"lowest vertex", func(f sim.Frame) float64 { return f.MinHeight }},
		{"kinetic energy", func(f sim.Frame) float64 { return f.Kinetic }},
		{"max stretch", func(f sim.Frame) float64 { return f.MaxStretch }},
		{"sphere clearance", func(f sim.Frame) float64 { return f.Clearance }},
	}

	for _, s := range series {
		data := make([]float64, len(frames))
		for i, f := range frames {
			data[i] = s.value(f)
		}
		fmt.Println(viz.PlotSeries(data, s.caption+" vs time", 70, 10))
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	times := make([]float64, len(frames))
	heights := make([]float64, len(frames))
	for i, f := range frames {
		times[i], heights[i] = f.Time, f.MeanHeight
	}

	s, err := analysis.Summarize(times, heights, tolerance)
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s\n\n", meta.Preset)
	fmt.Printf("samples: %d\n", s.Samples)
	fmt.Printf("final mean height: %.4f\n", s.Final)
	fmt.Printf("late amplitude: %.4f\n", s.Amplitude)
	if s.Frequency > 0 {
		fmt.Printf("dominant frequency: %.3f hz\n", s.Frequency)
		fmt.Printf("period: %.3f s\n", 1.0/s.Frequency)
	} else {
		fmt.Println("dominant frequency: none")
	}
	fmt.Printf("settles within %.4g after %.3f s\n", tolerance, s.SettleTime)
	return nil
}

func output() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outPath)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportOBJ(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := os.ReadFile(st.MeshPath(args[0]))
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = w.Write(data)
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	result := &sim.Result{Frames: frames, Metrics: meta.Metrics, StepsTaken: meta.Steps}
	cfg := sim.Config{Dt: meta.Dt, Duration: meta.Duration}

	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	return export.WriteJSON(w, export.NewRunData(meta.Preset, cfg, result))
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var backends []compute.Backend
	backends = append(backends, compute.NewSerialBackend())
	for _, n := range []int{2, 4, runtime.NumCPU()} {
		backends = append(backends, compute.NewCPUBackend(n))
	}
	defer func() {
		for _, b := range backends {
			b.Cleanup()
		}
	}()

	fmt.Printf("benchmarking %s (%d vertices, %d steps)\n\n", name, (cfg.Cloth.Subdivisions+1)*(cfg.Cloth.Subdivisions+1), cfg.Steps())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC")

	results := make([]*sim.Result, 0, len(backends))
	for _, b := range backends {
		c, err := cfg.NewCloth(b)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := sim.New(c, sim.WithLogger(logger)).Run(ctx, cfg.SimConfig())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		results = append(results, result)

		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\n",
			b.Name(), b.Workers(), result.StepsTaken, elapsed.Round(time.Microsecond), float64(result.StepsTaken)/elapsed.Seconds())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbackends agree: %v\n", sim.Agree(results))

	if verify {
		ens := sim.NewEnsemble(cfg.NewCloth, backends, sim.WithLogger(logger))
		concurrent, err := ens.Run(ctx, cfg.SimConfig())
		if err != nil {
			return err
		}
		fmt.Printf("concurrent runs agree: %v\n", sim.Agree(append(concurrent, results[0])))
	}
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	sw := &automation.ParameterSweep{
		Preset:    args[0],
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
		Duration:  duration,
		Parallel:  parallel,
	}

	results, err := automation.NewRunner(logger).RunSweep(ctx, sw)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_HEIGHT\tSAG\tMAX_STRETCH\tPEAK_KE\tDIVERGED\n", strings.ToUpper(paramName))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4f\t%.4f\t%.4f\t%.3f\t%v\n",
			r.ParamValue, r.FinalHeight, r.Sag, r.MaxStretch, r.PeakKinetic, r.Diverged)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	logger.Info("scenario", "name", sc.Name, "steps", len(sc.Steps))
	results, err := automation.NewRunner(logger).WithStore(st).RunScenario(ctx, sc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPRESET\tSTEPS\tSAG\tMAX_STRETCH\tRUN_ID")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.4f\t%.4f\t%s\n",
			i+1, r.Preset, r.Result.StepsTaken, r.Result.Metrics["sag"], r.Result.Metrics["max_stretch"], r.RunID)
	}
	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.NewRunner(logger).RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Preset:       args[0],
		Perturbation: spread,
		NumTrials:    trials,
		Duration:     duration,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSPRING_K\tDAMPING\tFRICTION\tMAX_STRETCH\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.1f\t%.4f\t%.3f\t%.4f\t%v\n",
			r.TrialID, r.Params["spring_constant"], r.Params["damping"], r.Params["friction"], r.MaxStretch, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbiter/internal/analysis"
	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/config"
	"github.com/san-kum/orbiter/internal/experiment"
	"github.com/san-kum/orbiter/internal/export"
	"github.com/san-kum/orbiter/internal/logging"
	"github.com/san-kum/orbiter/internal/sim"
	"github.com/san-kum/orbiter/internal/storage"
	"github.com/san-kum/orbiter/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string

	ticks     int
	seed      int64
	substeps  int
	threshold int
	gravity   float64
	workers   int
	strict    bool

	snapshot string
	leaves   bool

	frameRate int
	theme     string
	logFile   string

	numRuns int

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	columns []string
	svgOut  string
	outFile string

	logger *slog.Logger
)

// main registers the commands and runs the live view when no subcommand is
// given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "orbiter",
		Short: "quadtree collision and gravity sandbox",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.FromEnv(os.Stderr)
		},
		RunE: runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbiter", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scene config file (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset scene")
	addSceneFlags(rootCmd)
	addLiveFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scene headless and save its telemetry",
		Args:  cobra.NoArgs,
		RunE:  runScene,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringVar(&snapshot, "snapshot", "", "write the final state as svg")
	runCmd.Flags().BoolVar(&leaves, "leaves", false, "outline quadtree leaves in the snapshot")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scene with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	addLiveFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time concurrent runs of a scene",
		Args:  cobra.NoArgs,
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&numRuns, "runs", 4, "number of concurrent runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one solver parameter",
		Args:  cobra.NoArgs,
		RunE:  sweepScene,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "threshold", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 8, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 8, "number of values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario and save every step",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "column", []string{"collision_checks", "kinetic_energy"}, "telemetry columns")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the first column as svg")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary and frequency analysis of a telemetry column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringSliceVar(&columns, "column", []string{"kinetic_energy"}, "telemetry columns")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and telemetry to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutput(func(w io.Writer) error {
				return storage.New(dataDir).ExportJSON(w, args[0])
			})
		},
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run telemetry to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutput(func(w io.Writer) error {
				return storage.New(dataDir).ExportCSV(w, args[0])
			})
		},
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenes",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the current scene config to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, sweepCmd, scenarioCmd, listCmd, plotCmd, analyzeCmd,
		exportJSONCmd, exportCSVCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "frames to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for spawn layouts")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "solver substeps per frame")
	cmd.Flags().IntVar(&threshold, "threshold", 3, "quadtree leaf capacity")
	cmd.Flags().Float64Var(&gravity, "gravity", 0, "gravity scale (0 disables)")
	cmd.Flags().IntVar(&workers, "workers", 1, "goroutines for the gravity pass")
	cmd.Flags().BoolVar(&strict, "strict", false, "validate the quadtree after every rebuild")
}

func addLiveFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	cmd.Flags().StringVar(&theme, "theme", viz.ThemeMinimal.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to a file while the view owns the terminal")
}

// loadScene resolves the scene from the preset, then the config file, then
// any flags set explicitly.
func loadScene(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("substeps") {
		cfg.Solver.Substeps = substeps
	}
	if flags.Changed("threshold") {
		cfg.Solver.Threshold = threshold
	}
	if flags.Changed("gravity") {
		cfg.Solver.Gravity = gravity
	}
	if flags.Changed("workers") {
		cfg.Solver.Workers = workers
	}
	if flags.Changed("strict") {
		cfg.Solver.StrictChecks = strict
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}
	return cfg, cfg.Validate()
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("running %s: %d bodies, %d ticks\n", cfg.Name, exp.Simulator().Solver().Len(), cfg.Ticks)
	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted, saving partial telemetry", "ticks", result.Ticks, "error", err)
	}

	runID, err := save(st, cfg, exp.Simulator(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.Ticks)
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}
	printMetrics(result.Metrics)

	if snapshot != "" {
		f, err := os.Create(snapshot)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := export.DefaultSVGOptions()
		opts.Leaves = leaves
		if err := export.SceneToSVG(f, exp.Simulator().Solver(), opts); err != nil {
			return err
		}
		fmt.Printf("snapshot: %s\n", snapshot)
	}
	return nil
}

func save(st *storage.Store, cfg *config.Config, s *sim.Simulator, result *sim.Result) (string, error) {
	return st.Save(storage.RunMetadata{
		Scene:    cfg.Name,
		Seed:     cfg.Seed,
		Dt:       cfg.Dt(),
		Substeps: cfg.Solver.Substeps,
		Bodies:   s.Solver().Len(),
	}, result)
}

func finalBodies(r *sim.Result) int {
	if n := len(r.Telemetry); n > 0 {
		return r.Telemetry[n-1].Bodies
	}
	return 0
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}

	// the view owns the terminal, so logs go to a file or nowhere
	liveLogger := logging.Discard()
	if logFile != "" {
		f, err := logging.OpenFile(logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		liveLogger = logging.New(f, logging.ParseLevel(os.Getenv(logging.EnvLevel)), os.Getenv(logging.EnvFormat))
	}

	exp := experiment.New(cfg, liveLogger)
	if err := exp.Setup(); err != nil {
		return err
	}

	opts := viz.DefaultOptions()
	opts.Title = cfg.Name
	opts.FPS = cfg.FPS
	opts.Theme = theme
	opts.Logger = liveLogger
	m := viz.NewModel(exp.Simulator().Solver(), opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	factory := func(seed int64) (*sim.Simulator, error) {
		c := cfg.Clone()
		c.Seed = seed
		exp := experiment.New(c, nil)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp.Simulator(), nil
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("benchmarking %s: %d runs of %d ticks\n\n", cfg.Name, numRuns, cfg.Ticks)
	start := time.Now()
	results, err := sim.NewEnsemble(factory, numRuns, cfg.Seed).Run(ctx, sim.Config{Dt: cfg.Dt(), Ticks: cfg.Ticks})
	if err != nil {
		return err
	}
	wall := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tTICKS\tBODIES\tTIME\tTICKS/SEC\tCHECKS/TICK\tMAX DEPTH")
	for i, r := range results {
		depth := 0
		for _, s := range r.Telemetry {
			depth = max(depth, s.MaxDepth)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.1f\t%.1f\t%d\n",
			cfg.Seed+int64(i), r.Ticks, finalBodies(r), r.Elapsed.Round(time.Millisecond),
			float64(r.Ticks)/r.Elapsed.Seconds(), r.Metrics["collision_load"], depth)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nwall time: %v\n", wall.Round(time.Millisecond))
	return nil
}

func sweepScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	sweep := &automation.Sweep{
		Base:   cfg,
		Param:  sweepParam,
		Values: automation.Linspace(sweepMin, sweepMax, sweepSteps),
	}
	results, err := automation.RunSweep(ctx, sweep, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTIME\tCHECKS/TICK\tMAX OVERLAP\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%v\t%.1f\t%.3f\n", r.Value, r.Elapsed.Round(time.Millisecond), r.CollisionLoad, r.MaxOverlap)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := automation.Best(results, 1); ok {
		fmt.Printf("\nfastest with overlap under 1: %s=%g (%v)\n", sweepParam, best.Value, best.Elapsed.Round(time.Millisecond))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, logger)
	for _, r := range results {
		runID, serr := st.Save(storage.RunMetadata{
			Scene:    r.Config.Name,
			Seed:     r.Config.Seed,
			Dt:       r.Config.Dt(),
			Substeps: r.Config.Solver.Substeps,
			Bodies:   finalBodies(r.Result),
		}, r.Result)
		if serr != nil {
			return serr
		}
		fmt.Printf("  step %d: %s (%d ticks in %v)\n", r.Step, runID, r.Result.Ticks, r.Result.Elapsed.Round(time.Millisecond))
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tTICKS\tSUBSTEPS\tBODIES\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Substeps,
			run.Bodies,
			run.Elapsed.Round(time.Millisecond),
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []sim.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadTelemetry(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(samples))

	for i, name := range columns {
		data, err := storage.Column(samples, name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs tick"),
		)
		fmt.Println(graph)
		fmt.Println()

		if i == 0 && svgOut != "" {
			svg := export.SeriesToSVG(data, 800, 300, "#00ff88")
			if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("svg: %s\n\n", svgOut)
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	rate := 1 / meta.Dt
	for _, name := range columns {
		data, err := storage.Column(samples, name)
		if err != nil {
			return err
		}

		s := analysis.Summarize(data)
		fmt.Printf("%s\n", name)
		fmt.Printf("  min %.6g  max %.6g  mean %.6g  stddev %.6g\n", s.Min, s.Max, s.Mean, s.StdDev)
		fmt.Printf("  drift %.3f%%\n", 100*s.Drift())

		ps := analysis.PowerSpectrum(data)
		if len(ps) > 1 {
			graph := asciigraph.Plot(ps[1:],
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("power spectrum ("+name+")"),
			)
			fmt.Println(graph)
		}

		freq := analysis.DominantFrequency(data, rate)
		fmt.Printf("  dominant frequency: %.3f hz\n", freq)
		if freq > 0 {
			fmt.Printf("  period: %.3f s\n", 1.0/freq)
		}
		fmt.Println()
	}
	return nil
}

func withOutput(fn func(io.Writer) error) error {
	if outFile == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tTICKS\tSUBSTEPS\tGRAVITY\tPATTERNS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		bodies := 0
		patterns := make([]string, 0, len(cfg.Spawn))
		for _, sp := range cfg.Spawn {
			bodies += sp.Count
			patterns = append(patterns, sp.Pattern)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%g\t%s\n",
			name, bodies, cfg.Ticks, cfg.Solver.Substeps, cfg.Solver.Gravity, strings.Join(patterns, ","))
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

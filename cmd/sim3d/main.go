package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/automation"
	"github.com/mellw0101/3d-sim/internal/collision"
	"github.com/mellw0101/3d-sim/internal/compute"
	"github.com/mellw0101/3d-sim/internal/config"
	"github.com/mellw0101/3d-sim/internal/export"
	"github.com/mellw0101/3d-sim/internal/integrators"
	"github.com/mellw0101/3d-sim/internal/logging"
	"github.com/mellw0101/3d-sim/internal/metrics"
	"github.com/mellw0101/3d-sim/internal/sim"
	"github.com/mellw0101/3d-sim/internal/storage"
	"github.com/mellw0101/3d-sim/internal/viz"
	"github.com/spf13/cobra"
)

const (
	exitOK = iota
	exitError
	exitConfig
	exitBackend
	exitKernel
)

const settleThreshold = 1e-3

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	frames     int
	fps        int
	gravity    float32
	mode       string
	backend    string
	workers    int
	record     bool
	benchN     int
	compareN   int
	compareFPS int
	bodyName   string
	axis       string
	dropHeight float32
	scriptFile string
	outFile    string
	plane      string
	sweepParam string
	sweepMin   float32
	sweepMax   float32
	sweepSteps int
	trials     int
	perturb    float32
	seed       int64

	logger *slog.Logger
)

// main registers the commands and exits with a code derived from the error
// class: 2 for invalid configuration, 3 for a missing compute backend, 4 for
// a kernel that failed to build.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrInvalid):
		return exitConfig
	case errors.Is(err, compute.ErrBackendUnavailable):
		return exitBackend
	case errors.Is(err, compute.ErrKernelBuild):
		return exitKernel
	default:
		return exitError
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sim3d",
		Short:         "rigid box physics with host and device stepping",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logging.Options{Level: logLevel, Format: logging.Format(logFormat)})
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".sim3d", "data directory")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to $"+logging.EnvLevel)
	pf.StringVar(&logFormat, "log-format", string(logging.FormatText), "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [preset...]",
		Short: "run one or more scenes headless",
		RunE:  runScenes,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().BoolVar(&record, "record", true, "save the run to the data directory")
	runCmd.Flags().StringVar(&scriptFile, "script", "", "camera input script (yaml), single scene only")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scene with the terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body track of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&bodyName, "body", "", "body to plot (default: first body)")
	plotCmd.Flags().StringVar(&axis, "axis", "y", "position component (x, y, z)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the body tracks of a recorded run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane (two of x, y, z)")
	exportSVGCmd.Flags().StringVar(&outFile, "out", "", "output file (default: stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [preset]",
		Short: "render the scene from the camera as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshotScene,
	}
	addSceneFlags(snapshotCmd)
	snapshotCmd.Flags().StringVar(&outFile, "out", "", "output file (default: stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a preset across a range of one parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepScene,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", automation.ParamHeight, "parameter (gravity, height, fps)")
	sweepCmd.Flags().Float32Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float32Var(&sweepMax, "max", 4, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "run a preset with randomly perturbed start positions",
		Args:  cobra.ExactArgs(1),
		RunE:  monteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float32Var(&perturb, "perturb", 0.25, "maximum offset per axis")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "compare host and device stepping throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	benchCmd.Flags().IntVar(&benchN, "frames", 1200, "frames per measurement")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "device worker count (0 = GOMAXPROCS)")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators against analytic free fall",
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().IntVar(&compareN, "frames", 240, "frames to integrate")
	compareCmd.Flags().IntVar(&compareFPS, "fps", config.DefaultFPS, "frames per second")
	compareCmd.Flags().Float32Var(&dropHeight, "height", 100, "drop height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBODIES\tFRAMES")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\n", name, len(cfg.Bodies), cfg.Frames)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage scene files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a scene file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("preset")
			cfg := config.GetPreset(name)
			if cfg == nil {
				return unknownPreset(name)
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	configInitCmd.Flags().String("preset", "drop", "preset to start from")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, snapshotCmd,
		sweepCmd, monteCarloCmd, benchCmd, compareCmd, presetsCmd, configCmd)
	return rootCmd
}

func addSceneFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "scene file (yaml)")
	f.IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	f.IntVar(&fps, "fps", config.DefaultFPS, "frames per second")
	f.Float32Var(&gravity, "gravity", config.DefaultGravity, "gravity magnitude")
	f.StringVar(&mode, "mode", config.ModeHost, "stepping mode (host, device)")
	f.StringVar(&backend, "backend", "auto", "device backend (auto, cpu, gl)")
	f.IntVar(&workers, "workers", 0, "device worker count (0 = GOMAXPROCS)")
}

func unknownPreset(name string) error {
	return fmt.Errorf("%w: unknown preset %q (available: %s)", config.ErrInvalid, name, strings.Join(config.ListPresets(), ", "))
}

// loadScene resolves a scene from the config file or a preset name, then
// applies the flags the user set explicitly.
func loadScene(cmd *cobra.Command, name string) (string, *config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return "", nil, err
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	} else {
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, unknownPreset(name)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	return name, cfg, cfg.Validate()
}

func defaultMetrics(g float32) func() []sim.Metric {
	return func() []sim.Metric {
		return []sim.Metric{
			metrics.NewEnergy(g),
			metrics.NewEnergyLoss(g),
			metrics.NewPenetration(),
			metrics.NewSettle(settleThreshold),
		}
	}
}

// checkSceneArgs rejects preset names given alongside --config, which would
// otherwise be ignored.
func checkSceneArgs(args []string) error {
	if configFile != "" && len(args) > 0 {
		return fmt.Errorf("%w: presets %v given with --config %s", config.ErrInvalid, args, configFile)
	}
	return nil
}

func runScenes(cmd *cobra.Command, args []string) error {
	if err := checkSceneArgs(args); err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = []string{"drop"}
	}

	scenes := make([]string, len(names))
	configs := make([]*config.Config, len(names))
	for i, n := range names {
		scene, cfg, err := loadScene(cmd, n)
		if err != nil {
			return err
		}
		scenes[i], configs[i] = scene, cfg
	}

	var script *automation.Script
	if scriptFile != "" {
		if len(configs) > 1 {
			return fmt.Errorf("%w: --script needs a single scene", config.ErrInvalid)
		}
		loaded, err := automation.LoadScript(scriptFile)
		if err != nil {
			return err
		}
		script = loaded
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %s...\n", strings.Join(scenes, ", "))
	start := time.Now()

	var results []*sim.Result
	if len(configs) == 1 {
		res, err := runOne(cmd.Context(), configs[0], script)
		if err != nil {
			return err
		}
		results = []*sim.Result{res}
	} else {
		var err error
		results, err = sim.NewEnsemble(configs, defaultMetrics(configs[0].Gravity), logger).Run(cmd.Context())
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "completed in %v\n", time.Since(start))

	var st *storage.Store
	if record {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}
	for i, res := range results {
		printResult(cmd, scenes[i], res)
		if st == nil {
			continue
		}
		meta := storage.NewMetadata(scenes[i], configs[i].FPS, configs[i].Gravity, res)
		id, err := st.Save(meta, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  run id: %s\n", id)
	}
	return nil
}

func runOne(ctx context.Context, cfg *config.Config, script *automation.Script) (*sim.Result, error) {
	w, err := sim.NewWorld(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	for _, m := range defaultMetrics(cfg.Gravity)() {
		w.AddMetric(m)
	}
	if script != nil {
		automation.Attach(w, script)
	}
	return w.Run(ctx, cfg.Frames)
}

func printResult(cmd *cobra.Command, scene string, res *sim.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s (%s/%s): %d steps in %v\n", scene, res.Mode, res.Backend, res.StepsTaken, res.Elapsed)
	final := res.Final()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  BODY\tPOSITION\tVELOCITY\tSTATIC")
	for _, b := range final.Bodies {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%v\n", b.Name, formatVec(b.Position), formatVec(b.Velocity), b.Static)
	}
	w.Flush()
	fmt.Fprintln(out, "  metrics:")
	for _, name := range slices.Sorted(maps.Keys(res.Metrics)) {
		fmt.Fprintf(out, "    %s: %.6f\n", name, res.Metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	build := func(name string) (*sim.World, error) {
		_, cfg, err := loadScene(cmd, name)
		if err != nil {
			return nil, err
		}
		return sim.NewWorld(cfg, logger)
	}

	if err := checkSceneArgs(args); err != nil {
		return err
	}
	if len(args) == 0 && configFile == "" {
		return viz.RunPicker(cmd.Context(), config.ListPresets(), build)
	}

	name := "drop"
	if len(args) > 0 {
		name = args[0]
	}
	scene, cfg, err := loadScene(cmd, name)
	if err != nil {
		return err
	}
	w, err := sim.NewWorld(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Close()
	return viz.Run(cmd.Context(), w, scene)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tMODE\tBACKEND\tFRAMES\tFPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Backend,
			run.Frames,
			run.FPS,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	component := strings.Index("xyz", axis)
	if len(axis) != 1 || component < 0 {
		return fmt.Errorf("unknown axis %q", axis)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	name := bodyName
	if name == "" {
		if len(meta.Bodies) == 0 {
			return fmt.Errorf("run %s has no bodies", meta.ID)
		}
		name = meta.Bodies[0]
	}
	res := &sim.Result{Frames: frames}
	chart, err := viz.PlotTrack(name, res.Track(name), component)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n%s\n", meta.ID, meta.Scene, chart)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(cmd.OutOrStdout(), *meta, frames)
}

// writeOutput writes to --out when set, otherwise to the command output.
func writeOutput(cmd *cobra.Command, data string) error {
	if outFile == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), data)
		return err
	}
	if err := os.WriteFile(outFile, []byte(data), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	if len(plane) != 2 {
		return fmt.Errorf("unknown plane %q", plane)
	}
	h, v := strings.IndexByte("xyz", plane[0]), strings.IndexByte("xyz", plane[1])
	if h < 0 || v < 0 {
		return fmt.Errorf("unknown plane %q", plane)
	}
	frames, err := storage.New(dataDir).LoadFrames(args[0])
	if err != nil {
		return err
	}
	svg, err := export.TracksToSVG(export.TracksFromFrames(frames), h, v, 800, 600)
	if err != nil {
		return err
	}
	return writeOutput(cmd, svg)
}

func snapshotScene(cmd *cobra.Command, args []string) error {
	if err := checkSceneArgs(args); err != nil {
		return err
	}
	name := "drop"
	if len(args) > 0 {
		name = args[0]
	}
	_, cfg, err := loadScene(cmd, name)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("frames") {
		cfg.Frames = 0
	}
	w, err := sim.NewWorld(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Close()
	if _, err := w.Run(cmd.Context(), cfg.Frames); err != nil {
		return err
	}

	canvas := viz.NewCanvas(100, 40)
	p := viz.NewProjector(w.Camera.View(), canvas)
	for _, b := range w.Bodies {
		p.DrawBox(canvas, collision.BoxOf(b))
	}
	return writeOutput(cmd, export.CanvasToSVG(canvas, 4))
}

func sweepScene(cmd *cobra.Command, args []string) error {
	sweep := &automation.ParameterSweep{Preset: args[0], Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	results, err := automation.RunSweep(cmd.Context(), sweep, logger)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSETTLE_FRAME\tENERGY_LOSS\tPENETRATION\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.3f\t%d\t%.4f\t%.2e\n", r.Value, r.SettleFrame, r.EnergyLoss, r.Penetration)
	}
	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	mc := &automation.MonteCarloConfig{Preset: args[0], Perturbation: perturb, Trials: trials, Seed: seed}
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, logger)
	if err != nil {
		return err
	}
	settled, unsettled := automation.MonteCarloStats(results)
	worst := 0.0
	for _, r := range results {
		worst = max(worst, r.Penetration)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d trials: %d settled, %d still moving, worst penetration %.2e\n",
		len(results), settled, unsettled, worst)
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	name := "stack"
	if len(args) > 0 {
		name = args[0]
	}
	if config.GetPreset(name) == nil {
		return unknownPreset(name)
	}

	type target struct{ mode, backend string }
	targets := []target{{config.ModeHost, ""}, {config.ModeDevice, "cpu"}, {config.ModeDevice, "gl"}}

	fmt.Fprintf(cmd.OutOrStdout(), "benchmarking %s (%d frames)\n\n", name, benchN)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tBACKEND\tSTEPS\tTIME\tSTEPS/SEC")
	for _, t := range targets {
		cfg := config.GetPreset(name)
		cfg.Mode, cfg.Backend, cfg.Workers = t.mode, t.backend, workers
		world, err := sim.NewWorld(cfg, logger)
		if errors.Is(err, compute.ErrBackendUnavailable) {
			fmt.Fprintf(w, "%s\t%s\t-\t-\tunavailable\n", t.mode, t.backend)
			continue
		}
		if err != nil {
			return err
		}
		res, err := world.Run(cmd.Context(), benchN)
		world.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%.0f\n",
			res.Mode, res.Backend, res.StepsTaken, res.Elapsed, float64(res.StepsTaken)/res.Elapsed.Seconds())
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}
	if compareFPS <= 0 || compareN <= 0 {
		return fmt.Errorf("%w: fps and frames must be positive", config.ErrInvalid)
	}

	dt := 1 / float32(compareFPS)
	accel := mgl32.Vec3{0, -config.DefaultGravity, 0}
	t := float64(compareN) / float64(compareFPS)
	want := float64(dropHeight) - 0.5*config.DefaultGravity*t*t

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "free fall from %.1f for %.2fs (dt=%.4f)\n\n", dropHeight, t, dt)
	fmt.Fprintf(out, "%-10s  %-12s  %-12s  %-12s\n", "integrator", "final_y", "error", "time_us")
	fmt.Fprintln(out, strings.Repeat("-", 52))
	for _, n := range names {
		stepper, err := integrators.New(n)
		if err != nil {
			fmt.Fprintf(out, "%-10s  error: %v\n", n, err)
			continue
		}
		pos, vel := mgl32.Vec3{0, dropHeight, 0}, mgl32.Vec3{}
		start := time.Now()
		for i := 0; i < compareN; i++ {
			stepper.Step(&pos, &vel, dt, accel)
		}
		elapsed := time.Since(start)
		got := float64(pos.Y())
		fmt.Fprintf(out, "%-10s  %12.6f  %12.2e  %12d\n", n, got, got-want, elapsed.Microseconds())
	}
	return nil
}

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X(), v.Y(), v.Z())
}

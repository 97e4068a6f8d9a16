package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/experiment"
	"github.com/san-kum/verletsim/internal/export"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/optim"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/storage"
	"github.com/san-kum/verletsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	frames     int
	seed       int64
	subSteps   int
	iterations int
	threshold  int
	edge       string
	quiet      bool
	noSave     bool
	outFile    string
	numRuns    int
	parallel   int
	benchSizes []int
	benchReps  int
	svgSize    int
	tuneIters  []float64
	tuneResp   []float64
	tuneMetric string
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("verletsim: ")

	rootCmd := &cobra.Command{
		Use:          "verletsim",
		Short:        "verlet particle solver",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default "+config.DefaultDataDir+")")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a headless simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSolverFlags(runCmd)
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot frame statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [preset]",
		Short: "run a preset and dump the final particles as json",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	addSolverFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	snapshotCmd.Flags().IntVar(&svgSize, "svg", 0, "write an svg image of this size instead of json")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare brute-force and grid collision passes",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{100, 200, 500, 1000, 2000, 5000}, "particle counts")
	benchCmd.Flags().IntVar(&benchReps, "reps", 20, "passes per measurement")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a preset with live terminal visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSolverFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run a preset under several seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addSolverFlags(ensembleCmd)
	ensembleCmd.Flags().IntVarP(&numRuns, "runs", "n", 4, "number of runs")
	ensembleCmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent runs (0 = unlimited)")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "sweep iterations and response for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tune,
	}
	addSolverFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&tuneIters, "sweep-iterations", []float64{1, 2, 4, 8}, "iteration counts to try")
	tuneCmd.Flags().Float64SliceVar(&tuneResp, "sweep-response", []float64{0.5, 0.75, 1}, "response coefficients to try")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_overlap", "metric to minimize")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, snapshotCmd, benchCmd, liveCmd, presetsCmd, ensembleCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "spawner seed")
	cmd.Flags().IntVar(&subSteps, "substeps", 8, "sub-steps per frame")
	cmd.Flags().IntVar(&iterations, "iterations", physics.DefaultIterations, "collision passes per sub-step")
	cmd.Flags().IntVar(&threshold, "threshold", physics.DefaultThreshold, "particle count from which the grid is used")
	cmd.Flags().StringVar(&edge, "edge", physics.EdgeClamp.String(), "grid edge handling (clamp, ring-patch)")
}

// loadConfig layers preset, file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	name := "fountain"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (see 'verletsim presets')", name)
	}

	if configFile != "" {
		loaded, err := config.Load(configFile, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Run.Frames = frames
	}
	if flags.Changed("seed") {
		cfg.Spawner.Seed = seed
	}
	if flags.Changed("substeps") {
		cfg.Solver.SubSteps = subSteps
	}
	if flags.Changed("iterations") {
		cfg.Solver.Iterations = iterations
	}
	if flags.Changed("threshold") {
		cfg.Solver.Threshold = threshold
	}
	if flags.Changed("edge") {
		cfg.Solver.Edge = edge
	}
	if dataDir != "" {
		cfg.Run.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mode, _ := physics.ParseEdgeMode(cfg.Solver.Edge); mode == physics.EdgeRingPatch {
		log.Printf("edge mode %s skips contacts between border cells and their neighbors", mode)
	}
	return cfg, nil
}

func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if configFile != "" {
		if cfg, err := config.Load(configFile, nil); err == nil && cfg.Run.DataDir != "" {
			return cfg.Run.DataDir
		}
	}
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		log.Printf("ignoring environment: %v", err)
	}
	return cfg.Run.DataDir
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("running %s: %d frames, %d sub-steps, seed %d\n", cfg.Name, cfg.Run.Frames, cfg.Solver.SubSteps, cfg.Spawner.Seed)
		every := max(cfg.Run.Frames/10, 1)
		exp.OnFrame = func(fs experiment.FrameStats) {
			if (fs.Frame+1)%every == 0 {
				fmt.Printf("  frame %5d  t=%6.2fs  particles=%5d  %-11s contacts=%s\n",
					fs.Frame+1, fs.Time, fs.Count, fs.Strategy, humanize.Comma(int64(fs.Contacts)))
			}
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nsimulated %d frames in %v\n", len(result.Frames), result.Elapsed.Round(time.Millisecond))
	printMetrics(result.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(cfg.Run.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved: %s\n", runID)
	return nil
}

func printMetrics(metrics map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range []string{"kinetic_energy", "max_overlap", "containment"} {
		if v, ok := metrics[name]; ok {
			fmt.Fprintf(w, "  %s\t%s\n", name, humanize.FormatFloat("#,###.####", v))
		}
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(resolveDataDir())
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tWHEN\tFRAMES\tPARTICLES\tSEED\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%v\n",
			run.ID,
			run.Preset,
			humanize.Time(run.Timestamp),
			humanize.Comma(int64(run.Frames)),
			humanize.Comma(int64(run.Particles)),
			run.Seed,
			run.Elapsed.Round(time.Millisecond),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resolveDataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(frames))

	series := []struct {
		caption string
		value   func(experiment.FrameStats) float64
	}{
		{"particles", func(f experiment.FrameStats) float64 { return float64(f.Count) }},
		{"kinetic energy", func(f experiment.FrameStats) float64 { return f.Kinetic }},
		{"contacts per frame", func(f experiment.FrameStats) float64 { return float64(f.Contacts) }},
		{"max overlap", func(f experiment.FrameStats) float64 { return f.MaxOverlap }},
	}

	for _, s := range series {
		data := make([]float64, len(frames))
		for i, f := range frames {
			data[i] = s.value(f)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func openOut() (*os.File, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	out, closeOut, err := openOut()
	if err != nil {
		return err
	}
	if err := storage.New(resolveDataDir()).Export(out, args[0]); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if _, err := exp.Run(ctx); err != nil {
		return err
	}

	out, closeOut, err := openOut()
	if err != nil {
		return err
	}
	solver := exp.Solver()
	if svgSize > 0 {
		center, radius := solver.Boundary()
		err = export.SnapshotSVG(out, solver.Particles(), center, radius, svgSize)
	} else {
		err = storage.ExportSnapshot(out, solver.Particles(), solver.Time(), solver.SubDt())
	}
	if err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

// bench times single collision passes over a random population packed
// into the default arena.
func bench(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	center, radius := cfg.Solver.Center, cfg.Solver.Radius
	resolver := physics.NewResolver()
	g, err := grid.New(cfg.Solver.GridWidth, cfg.Solver.GridHeight, cfg.Solver.CellSize)
	if err != nil {
		return err
	}

	fmt.Printf("collision pass timing, %d reps\n\n", benchReps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tPAIRS\tBRUTE\tGRID\tSPEEDUP")

	rng := rand.New(rand.NewSource(42))
	for _, n := range benchSizes {
		if n <= 0 {
			continue
		}
		pr := math.Min(8, 0.7*radius/math.Sqrt(float64(n)))
		base := make([]particle.Particle, n)
		for i := range base {
			r := radius * math.Sqrt(rng.Float64()) * 0.95
			a := rng.Float64() * 2 * math.Pi
			pos := center.Add(dynamo.V(r*math.Cos(a), r*math.Sin(a)))
			base[i] = particle.New(pos, pr)
		}

		brute := timePasses(base, benchReps, func(ps []particle.Particle) { resolver.BruteForce(ps) })
		viaGrid := timePasses(base, benchReps, func(ps []particle.Particle) { resolver.Grid(ps, g) })

		fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%.1fx\n",
			humanize.Comma(int64(n)),
			humanize.Comma(int64(n)*int64(n-1)/2),
			brute.Round(time.Microsecond),
			viaGrid.Round(time.Microsecond),
			float64(brute)/float64(max(viaGrid, 1)),
		)
	}
	return w.Flush()
}

func timePasses(base []particle.Particle, reps int, pass func([]particle.Particle)) time.Duration {
	ps := make([]particle.Particle, len(base))
	var total time.Duration
	for i := 0; i < reps; i++ {
		copy(ps, base)
		start := time.Now()
		pass(ps)
		total += time.Since(start)
	}
	return total / time.Duration(max(reps, 1))
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	return viz.RunLive(cfg)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPARTICLES\tRADIUS\tITERATIONS\tEDGE\tFRAMES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%g-%g\t%d\t%s\t%d\n",
			name,
			humanize.Comma(int64(p.Spawner.MaxCount)),
			p.Spawner.MinRadius,
			p.Spawner.MaxRadius,
			p.Solver.Iterations,
			p.Solver.Edge,
			p.Run.Frames,
		)
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if numRuns <= 0 {
		return fmt.Errorf("%w: runs must be positive, got %d", dynamo.ErrInvalidConfig, numRuns)
	}

	ens := experiment.NewEnsemble(cfg, numRuns, cfg.Spawner.Seed)
	ens.Limit = parallel

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %d x %s (seeds %d-%d)\n\n", numRuns, cfg.Name, cfg.Spawner.Seed, cfg.Spawner.Seed+int64(numRuns)-1)
	start := time.Now()
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tMIN\tMAX")
	for _, name := range []string{"kinetic_energy", "max_overlap", "containment"} {
		s := experiment.Summarize(results, name)
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\n", s.Name, s.Mean, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nwall time %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func tune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	gs, err := optim.NewGridSearch([]string{"iterations", "response"}, [][]float64{tuneIters, tuneResp})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %d settings on %s, minimizing %s\n\n", len(tuneIters)*len(tuneResp), cfg.Name, tuneMetric)
	build := optim.SolverParams(func() (*experiment.Experiment, error) {
		return experiment.New(cfg.Clone())
	})
	best, value, trials, err := gs.Search(ctx, build, tuneMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITERATIONS\tRESPONSE\tVALUE")
	for _, tr := range trials {
		cell := fmt.Sprintf("%.4f", tr.Value)
		if tr.Err != nil {
			cell = "error: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%g\t%g\t%s\n", tr.Params["iterations"], tr.Params["response"], cell)
	}
	w.Flush()

	if err != nil {
		return err
	}
	fmt.Printf("\nbest: iterations=%g response=%g (%s=%.4f)\n", best["iterations"], best["response"], tuneMetric, value)
	return nil
}

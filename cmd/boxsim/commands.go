package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/boxsim/internal/analysis"
	"github.com/san-kum/boxsim/internal/config"
	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/export"
	"github.com/san-kum/boxsim/internal/metrics"
	"github.com/san-kum/boxsim/internal/scene"
	"github.com/san-kum/boxsim/internal/sim"
	"github.com/san-kum/boxsim/internal/storage"
	"github.com/san-kum/boxsim/internal/tui"
	"github.com/san-kum/boxsim/internal/vec"
)

var (
	header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	faint  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

const watchDebounce = 200 * time.Millisecond

// resolveConfig layers the preset, the config file and explicitly set flags,
// in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scene = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scene, preset)
		if p == nil {
			return nil, fmt.Errorf("preset %q not found for scene %s (available: %s)",
				preset, cfg.Scene, strings.Join(config.ListPresets(cfg.Scene), ", "))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Scene = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if noWarm {
		cfg.WarmStarting = false
	}
	if noCorrection {
		cfg.PositionCorrection = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func simulate(ctx context.Context, cfg *config.Config) (*sim.Result, error) {
	s, err := registry.Build(cfg.Scene, cfg.ToParams(dynamics.WithLogger(log.WithName("world"))))
	if err != nil {
		return nil, err
	}

	r := sim.New(s)
	for _, m := range metrics.Default() {
		r.AddMetric(m)
	}
	return r.Run(ctx, cfg.ToRunConfig())
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := simulate(ctx, cfg)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run stopped early: %v\n", err)
	}

	id, saveErr := openStore().Save(storageMeta(cfg), result)
	if saveErr != nil {
		return fmt.Errorf("save run: %w", saveErr)
	}

	printSummary(os.Stdout, result, time.Since(start))
	fmt.Printf("\nsaved %s\n", id)

	if plot {
		name := defaultChannel(result.Columns())
		data, err := result.Channel(name)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		))
	}
	return err
}

func storageMeta(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Preset:      preset,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Iterations:  cfg.Iterations,
		RecordEvery: cfg.RecordEvery,
	}
}

func printSummary(out io.Writer, result *sim.Result, elapsed time.Duration) {
	last := result.Samples[len(result.Samples)-1]
	fmt.Fprintf(out, "%s  %s\n", header.Render(result.Scene),
		faint.Render(fmt.Sprintf("t=%.2fs  %d steps  %s", last.Time, result.Stats.Steps, elapsed.Round(time.Millisecond))))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	st := result.Stats
	fmt.Fprintf(w, "bodies\t%d (%d asleep)\n", st.FinalBodies, st.FinalSleeping)
	fmt.Fprintf(w, "max contacts\t%d\n", st.MaxContacts)
	fmt.Fprintf(w, "max islands\t%d\n", st.MaxIslands)
	fmt.Fprintf(w, "toi events\t%d\n", st.TOIEvents)
	fmt.Fprintf(w, "max position iterations\t%d\n", st.MaxPositionIterations)
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6g\n", name, result.Metrics[name])
	}
	w.Flush()
}

// defaultChannel picks the height of the first tracked body.
func defaultChannel(columns []string) string {
	for _, c := range columns {
		if strings.HasSuffix(c, ".y") {
			return c
		}
	}
	return columns[len(columns)-1]
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := openStore().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tPRESET\tSTEPS\tDURATION\tTIME")
	for _, run := range runs {
		p := run.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%s\n",
			run.ID, run.Scene, p, run.Stats.Steps, run.Duration,
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func loadChannel(runID string) (string, []float64, float64, error) {
	trace, err := openStore().LoadStates(runID)
	if err != nil {
		return "", nil, 0, err
	}
	name := channel
	if name == "" {
		name = defaultChannel(trace.Columns)
	}
	data, err := trace.Channel(name)
	if err != nil {
		return "", nil, 0, fmt.Errorf("%w (available: %s)", err, strings.Join(trace.Columns[1:], ", "))
	}
	return name, data, trace.Dt(), nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	name, data, _, err := loadChannel(args[0])
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("run %s has no samples", args[0])
	}

	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s  %s", args[0], name)),
	))
	return nil
}

// openOutput returns stdout unless --out names a file.
func openOutput() (io.Writer, func() error, error) {
	if output == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	store := openStore()
	switch format {
	case "json":
		return store.ExportJSON(out, args[0])
	case "csv":
		return store.ExportCSV(out, args[0])
	case "svg":
		return exportPath(out, store, args[0])
	default:
		return fmt.Errorf("unknown format %q (json, csv or svg)", format)
	}
}

func exportPath(out io.Writer, store *storage.Store, runID string) error {
	meta, err := store.Load(runID)
	if err != nil {
		return err
	}
	trace, err := store.LoadStates(runID)
	if err != nil {
		return err
	}

	name := body
	if name == "" {
		if len(meta.Bodies) == 0 {
			return fmt.Errorf("run %s tracks no bodies", runID)
		}
		name = meta.Bodies[0]
	}
	xs, err := trace.Channel(name + ".x")
	if err != nil {
		return err
	}
	ys, err := trace.Channel(name + ".y")
	if err != nil {
		return err
	}

	points := make([]vec.Vec2, len(xs))
	for i := range xs {
		points[i] = vec.V(xs[i], ys[i])
	}
	svg := export.TrajectoryToSVG(points, width, height, export.DefaultStyle().Dynamic)
	if svg == "" {
		return fmt.Errorf("run %s has too few samples for a path", runID)
	}
	_, err = io.WriteString(out, svg)
	return err
}

func snapshotScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("time") && !cmd.Flags().Changed("config") && preset == "" {
		cfg.Duration = 0
	}

	s, err := registry.Build(cfg.Scene, cfg.ToParams(dynamics.WithLogger(log.WithName("world"))))
	if err != nil {
		return err
	}
	for i := 0; i < cfg.ToRunConfig().Steps(); i++ {
		s.Step(cfg.Dt, cfg.Iterations)
	}
	if err := s.World.Validate(); err != nil {
		return err
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()
	_, err = io.WriteString(out, export.WorldToSVG(s.World, width, height, export.DefaultStyle()))
	return err
}

func deleteRun(cmd *cobra.Command, args []string) error {
	if err := openStore().Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	scenes := registry.List()
	if len(args) > 0 {
		if registry.Description(args[0]) == "" {
			return fmt.Errorf("%w: %s", scene.ErrUnknownScene, args[0])
		}
		scenes = args
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tPRESET\tDURATION\tITERATIONS")
	for _, name := range scenes {
		for _, p := range config.ListPresets(name) {
			cfg := config.GetPreset(name, p)
			fmt.Fprintf(w, "%s\t%s\t%.0fs\t%d\n", name, p, cfg.Duration, cfg.Iterations)
		}
	}
	return w.Flush()
}

func listScenes(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range registry.List() {
		fmt.Fprintf(w, "%s\t%s\n", name, registry.Description(name))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	m, err := tui.New(func() (*scene.Scene, error) {
		return registry.Build(cfg.Scene, cfg.ToParams())
	}, cfg.Dt, cfg.Iterations)
	if err != nil {
		return err
	}
	return tui.Run(m)
}

func watchConfig(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	rerun(ctx, path)
	fmt.Println(faint.Render(fmt.Sprintf("watching %s (ctrl+c to stop)", args[0])))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != path {
				continue
			}
			pending = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "watcher")
		case <-pending:
			pending = nil
			rerun(ctx, path)
		}
	}
}

func rerun(ctx context.Context, path string) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Error(err, "config rejected", "path", path)
		return
	}

	start := time.Now()
	result, err := simulate(ctx, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error(err, "run failed", "scene", cfg.Scene)
		if result == nil {
			return
		}
	}

	fmt.Println()
	printSummary(os.Stdout, result, time.Since(start))
	if save {
		id, err := openStore().Save(storageMeta(cfg), result)
		if err != nil {
			log.Error(err, "save failed")
			return
		}
		fmt.Printf("saved %s\n", id)
	}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	name, data, step, err := loadChannel(args[0])
	if err != nil {
		return err
	}

	bins, err := analysis.Spectrum(data, step)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", name, err)
	}
	freq, err := analysis.DominantFrequency(data, step)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", name, err)
	}

	mags := make([]float64, 0, len(bins))
	for _, b := range bins[1:] {
		mags = append(mags, b.Magnitude)
	}
	if len(mags) > 80 {
		mags = mags[:80]
	}
	if len(mags) > 0 {
		fmt.Println(asciigraph.Plot(mags,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("spectrum (%s)", name)),
		))
	}

	fmt.Printf("\nsamples:            %d (dt=%.4fs)\n", len(data), step)
	fmt.Printf("resolution:         %.4f Hz\n", bins[1].Frequency)
	fmt.Printf("dominant frequency: %.4f Hz\n", freq)
	if freq > 0 {
		fmt.Printf("period:             %.4f s\n", 1/freq)
	}
	return nil
}

// stepTimer measures the wall time between the first and last observed step.
type stepTimer struct {
	first, last time.Time
	steps       int
}

func (t *stepTimer) OnStep(w *dynamics.World, now float64) {
	ts := time.Now()
	if t.steps == 0 {
		t.first = ts
	}
	t.last = ts
	t.steps++
}

func (t *stepTimer) rate() float64 {
	d := t.last.Sub(t.first).Seconds()
	if t.steps < 2 || d <= 0 {
		return 0
	}
	return float64(t.steps-1) / d
}

func benchScenes(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = registry.List()
	}
	if benchSteps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", benchSteps)
	}

	const step = 1.0 / 60.0
	jobs := make([]sim.Job, 0, len(names))
	timers := make([]*stepTimer, 0, len(names))
	for _, name := range names {
		s, err := registry.Build(name, scene.DefaultParams())
		if err != nil {
			return err
		}
		r := sim.New(s)
		t := &stepTimer{}
		r.AddObserver(t)
		timers = append(timers, t)
		jobs = append(jobs, sim.Job{
			Name:   name,
			Runner: r,
			Config: sim.RunConfig{
				Dt:          step,
				Duration:    float64(benchSteps) * step,
				Iterations:  iterations,
				RecordEvery: benchSteps,
			},
		})
	}

	fmt.Printf("benchmarking %d scenes, %d steps each, %d workers\n\n", len(jobs), benchSteps, workers)
	start := time.Now()
	results, err := sim.Batch(cmd.Context(), jobs, workers)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tBODIES\tMAX CONTACTS\tTOI\tSTEPS/SEC")
	total := 0
	for i, res := range results {
		total += res.Stats.Steps
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.0f\n",
			res.Scene, res.Stats.FinalBodies, res.Stats.MaxContacts, res.Stats.TOIEvents, timers[i].rate())
	}
	w.Flush()

	fmt.Printf("\ntotal: %d steps in %s (%.0f steps/sec)\n",
		total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
	return nil
}

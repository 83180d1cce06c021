package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/san-kum/boxsim/internal/scene"
	"github.com/san-kum/boxsim/internal/storage"
)

var (
	dataDir   string
	verbosity int

	dt           float64
	duration     float64
	iterations   int
	recordEvery  int
	noWarm       bool
	noCorrection bool
	configFile   string
	preset       string
	plot         bool
	save         bool

	channel string
	format  string
	output  string
	body    string
	width   int
	height  int

	benchSteps int
	workers    int

	log      logr.Logger
	registry = scene.NewRegistry()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "boxsim",
		Short:         "2D rigid body simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = newLogger(verbosity)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".boxsim", "data directory")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity (repeat for more)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and save the trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the first tracked body's height")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a channel of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&channel, "channel", "", "channel to plot, e.g. ball.y (default: first body's y)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "output format: json, csv or svg")
	exportCmd.Flags().StringVarP(&output, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&body, "body", "", "body whose path the svg format draws (default: first)")
	addSizeFlags(exportCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "draw a scene as SVG after running it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshotScene,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&output, "out", "o", "", "output file (default stdout)")
	addSizeFlags(snapshotCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list scenes",
		RunE:  listScenes,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "step a scene in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	watchCmd := &cobra.Command{
		Use:   "watch [config.yaml]",
		Short: "re-run a config file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE:  watchConfig,
	}
	watchCmd.Flags().BoolVar(&save, "save", false, "save every run")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved channel",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&channel, "channel", "", "channel to analyze (default: first body's y)")

	benchCmd := &cobra.Command{
		Use:   "bench [scene...]",
		Short: "measure stepping throughput",
		RunE:  benchScenes,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 1000, "steps per scene")
	benchCmd.Flags().IntVar(&iterations, "iterations", 10, "solver iterations")
	benchCmd.Flags().IntVar(&workers, "workers", 1, "scenes run in parallel")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, snapshotCmd, deleteCmd, presetsCmd,
		scenesCmd, liveCmd, watchCmd, analyzeCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "preset name (see presets)")
	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file")
	cmd.Flags().Float64Var(&dt, "dt", 1.0/60.0, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 10, "duration in seconds")
	cmd.Flags().IntVar(&iterations, "iterations", 10, "solver iterations")
	cmd.Flags().IntVar(&recordEvery, "record-every", 1, "record a sample every n steps")
	cmd.Flags().BoolVar(&noWarm, "no-warm", false, "disable warm starting")
	cmd.Flags().BoolVar(&noCorrection, "no-correction", false, "disable position correction")
}

func addSizeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&width, "width", 800, "svg width")
	cmd.Flags().IntVar(&height, "height", 600, "svg height")
}

func newLogger(v int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: v})
}

func openStore() *storage.Store {
	return storage.New(dataDir, log.WithName("storage"))
}

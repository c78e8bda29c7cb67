package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fieldsim/internal/analysis"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/scenario"
	"github.com/san-kum/fieldsim/internal/sim"
	"github.com/san-kum/fieldsim/internal/storage"
	"github.com/san-kum/fieldsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       int64
	steps      int
	size       int
	report     int
	series     string
	noSave     bool
)

// main registers commands and flags and executes the root command. It
// exits the process with status 1 if command execution returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "fieldsim",
		Short: "layered field ecosystem simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fieldsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an ecosystem simulation",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&report, "report", 0, "steps between progress reports (0 = config default)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip persisting the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run history",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a recorded series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&series, "series", "substrate", "series to analyze")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run history to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSONStdout(args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresetConfigs,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a multi-phase scenario from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, presetsCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "ambient", "preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().IntVar(&steps, "steps", 0, "steps to run (0 = config default)")
	cmd.Flags().IntVar(&size, "size", 0, "grid size (0 = config default)")
}

// loadConfig resolves preset, config file, and flag overrides. Flags win
// over the config file, which wins over the preset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("size") {
		cfg.Size = size
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportInterval = report
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	s, err := cfg.Build(rng)
	if err != nil {
		return err
	}
	for _, m := range metrics.Defaults() {
		s.AddMetric(m)
	}
	if cfg.ReportInterval > 0 {
		s.AddObserver(reporter(cfg.ReportInterval))
	}

	fmt.Printf("running %s ecosystem (size=%d, steps=%d, seed=%d)...\n", preset, cfg.Size, cfg.Steps, cfg.Seed)
	start := time.Now()

	result, err := s.Run(context.Background(), cfg.Steps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("\ncompleted in %v\n", elapsed)
	fmt.Printf("manifestations: %d\n", len(result.Manifestations))
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(preset, cfg.Size, cfg.Seed, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

// reporter prints a progress line every interval steps and announces
// manifestation events as they happen.
func reporter(interval int) sim.Observer {
	return sim.ObserverFunc(func(s sim.Snapshot) {
		for _, m := range s.Emitted {
			fmt.Printf("  manifestation #%d at (%d,%d) strength %.4f\n", m.Seq, m.Row, m.Col, m.Strength)
		}
		if (s.Step+1)%interval == 0 {
			fmt.Printf("step %d: substrate %+.4f, response %.4f, field max %.4f, listening %.1f%%, manifestations %d\n",
				s.Step+1, s.SubstrateMean, s.ResponseMean, s.FieldMax, 100*s.Listening, s.ManifestCount)
		}
	})
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	build := func() (*sim.Simulator, error) {
		return cfg.Build(rand.New(rand.NewSource(cfg.Seed)))
	}
	s, err := build()
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(s, preset, build))
	_, err = p.Run()
	return err
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSIZE\tSTEPS\tMANIFESTATIONS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.Steps,
			run.Manifestations,
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
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("steps: %d\n\n", meta.Steps)

	for _, name := range sim.SeriesNames() {
		data := history[name]
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" mean"),
		)
		fmt.Println(graph)
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
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	data, ok := history[series]
	if !ok || len(data) == 0 {
		return fmt.Errorf("no data for series %q (available: %v)", series, sim.SeriesNames())
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("series: %s\n\n", series)

	period, spectrum := analysis.DominantPeriod(data)
	if len(spectrum) > 1 {
		plotData := spectrum
		if len(plotData) > 4 {
			plotData = plotData[:len(plotData)/4+1]
		}
		graph := asciigraph.Plot(plotData,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if period > 0 {
		fmt.Printf("dominant period: %.1f steps\n", period)
	} else {
		fmt.Println("no dominant period found")
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	history, err := storage.New(dataDir).LoadHistory(runID)
	if err != nil {
		return err
	}

	names := sim.SeriesNames()
	n := 0
	for _, name := range names {
		if len(history[name]) > n {
			n = len(history[name])
		}
	}
	if n == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(append([]string{"step"}, names...)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		row := []string{strconv.Itoa(i)}
		for _, name := range names {
			val := 0.0
			if s := history[name]; i < len(s) {
				val = s[i]
			}
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func listPresetConfigs(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tSTEPS\tPULSE PROB\tCOUPLE THRESHOLD")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.2f\n",
			name, cfg.Size, cfg.Steps, cfg.Pulse.Probability, cfg.Substrate.CoupleThreshold)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	progress := func(i int, step scenario.Step) {
		fmt.Printf("phase %d/%d: preset=%s steps=%d seed=%d\n", i+1, len(sc.Steps), step.Preset, step.Steps, step.Seed)
	}
	results, err := scenario.Run(context.Background(), sc, progress)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tPRESET\tSTEPS\tMANIFESTATIONS\tACTIVITY\tEMISSION RATE")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.4f\t%.4f\n",
			i+1,
			r.Step.Preset,
			r.Result.Steps,
			len(r.Result.Manifestations),
			r.Result.Metrics["activity"],
			r.Result.Metrics["emission_rate"],
		)
	}
	return w.Flush()
}

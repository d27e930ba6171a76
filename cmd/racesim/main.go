package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/racesim/internal/config"
	"github.com/san-kum/racesim/internal/driver"
	"github.com/san-kum/racesim/internal/metrics"
	"github.com/san-kum/racesim/internal/mission"
	"github.com/san-kum/racesim/internal/storage"
	"github.com/san-kum/racesim/internal/vehicle"
	"github.com/san-kum/racesim/internal/viz"
)

var (
	dataDir    string
	configFile string
	paramFile  string
	modelName  string
	missionArg string
	dt         float64
	duration   float64
	seed       int64
	noise      bool
	acc        float64
	delta      float64
	frameRate  int
	plotField  string
	plotHeight int
	outFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "racesim",
		Short: "autonomous race car simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".racesim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal view",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a telemetry channel",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "v_x", "channel: x|y|yaw|v_x|v_y|r|a_x|a_y|speed")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "graph height")

	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "validate configuration files",
		RunE:  validateConfig,
	}
	validateCmd.Flags().StringVar(&configFile, "config", "", "run config file (yaml)")
	validateCmd.Flags().StringVar(&paramFile, "param", "", "vehicle parameter file (yaml)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run config file (yaml)")
	cmd.Flags().StringVar(&paramFile, "param", "", "vehicle parameter file (yaml)")
	cmd.Flags().StringVar(&modelName, "model", config.DefaultModel, "vehicle model")
	cmd.Flags().StringVar(&missionArg, "mission", config.DefaultMission, "mission name")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "noise seed")
	cmd.Flags().BoolVar(&noise, "noise", false, "enable sensor/actuator noise")
	cmd.Flags().Float64Var(&acc, "acc", 5.0, "commanded acceleration")
	cmd.Flags().Float64Var(&delta, "delta", 0.0, "commanded steering angle")
}

// buildConfig resolves precedence: flags beat the config file, which beats
// the defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if paramFile != "" {
		p, err := vehicle.LoadParam(paramFile)
		if err != nil {
			return nil, fmt.Errorf("load param: %w", err)
		}
		cfg.Param = *p
	}

	if cmd.Flags().Changed("model") {
		cfg.Model = modelName
	}
	if cmd.Flags().Changed("mission") {
		cfg.Mission = missionArg
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("acc") {
		cfg.Command.Acc = acc
	}
	if cmd.Flags().Changed("delta") {
		cfg.Command.Delta = delta
	}
	if cmd.Flags().Changed("noise") {
		cfg.Param.Noise.Enabled = noise
	}
	cfg.Param.Noise.Seed = cfg.Seed

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDriver(cfg *config.Config) (*driver.Driver, []driver.Event, error) {
	model, err := vehicle.New(cfg.Model, &cfg.Param)
	if err != nil {
		return nil, nil, err
	}
	machine := mission.NewMachine(mission.Limits{
		MaxDrivingTime: cfg.Param.Limits.MaxDrivingTime,
		MaxSpeed:       cfg.Param.Limits.MaxSpeed,
	})

	var noiseSrc *vehicle.Noise
	if cfg.Param.Noise.Enabled {
		noiseSrc = vehicle.NewNoise(cfg.Param.Noise)
	}

	drv := driver.New(model, machine, noiseSrc)
	drv.SetState(cfg.Init)
	drv.Command(cfg.Command)

	events, err := cfg.DriverEvents()
	if err != nil {
		return nil, nil, err
	}
	return drv, events, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	drv, events, err := buildDriver(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s / %s...\n", cfg.Model, cfg.Mission)
	start := time.Now()

	result, runErr := drv.Run(ctx, driver.Config{
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Events:   events,
	}, metrics.Default())
	if runErr != nil && result == nil {
		return runErr
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Model, cfg.Mission, cfg.Dt, cfg.Duration, cfg.Seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final mission state: %s\n", result.Final().Mission)
	if v := drv.Machine().Violation(); v != "" {
		fmt.Printf("violation: %s\n", v)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if len(result.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for name, val := range result.Metrics {
			fmt.Printf("  %s: %.4f\n", name, val)
		}
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	drv, events, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	return viz.Run(drv, driver.Config{Dt: cfg.Dt, Duration: cfg.Duration}, events, frameRate)
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
	fmt.Fprintln(w, "ID\tMODEL\tMISSION\tTIME\tDURATION\tDT\tFINAL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%s\n",
			run.ID,
			run.Model,
			run.Mission,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.FinalMission,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}

	series := make([]float64, len(rows))
	for i, row := range rows {
		switch plotField {
		case "x":
			series[i] = row.State.X
		case "y":
			series[i] = row.State.Y
		case "yaw":
			series[i] = row.State.Yaw
		case "v_x":
			series[i] = row.State.Vx
		case "v_y":
			series[i] = row.State.Vy
		case "r":
			series[i] = row.State.R
		case "a_x":
			series[i] = row.State.Ax
		case "a_y":
			series[i] = row.State.Ay
		case "speed":
			series[i] = row.State.Speed()
		default:
			return fmt.Errorf("unknown field: %s", plotField)
		}
	}

	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(plotHeight),
		asciigraph.Caption(fmt.Sprintf("%s — %s", args[0], plotField)),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return st.ExportJSON(f, args[0])
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" && paramFile == "" {
		return fmt.Errorf("nothing to validate: pass --config and/or --param")
	}
	if configFile != "" {
		if _, err := config.Load(configFile); err != nil {
			return fmt.Errorf("config %s: %w", configFile, err)
		}
		fmt.Printf("config %s: ok\n", configFile)
	}
	if paramFile != "" {
		if _, err := vehicle.LoadParam(paramFile); err != nil {
			return fmt.Errorf("param %s: %w", paramFile, err)
		}
		fmt.Printf("param %s: ok\n", paramFile)
	}
	return nil
}

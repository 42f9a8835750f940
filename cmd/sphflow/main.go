package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/avrelian/sphflow/internal/config"
	"github.com/avrelian/sphflow/internal/fluid"
	"github.com/avrelian/sphflow/internal/metrics"
	"github.com/avrelian/sphflow/internal/store"
	"github.com/avrelian/sphflow/internal/viz"
)

var (
	dt         float64
	steps      int
	particles  int
	seed       int64
	gravity    float64
	radius     float64
	viscosity  float64
	configFile string
	preset     string
	jsonOut    string
	csvOut     string
	frameRate  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sphflow",
		Short: "concurrent SPH fluid simulator",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&jsonOut, "json", "", "export run series to JSON file")
	runCmd.Flags().StringVar(&csvOut, "csv", "", "export final particle snapshot to CSV file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput",
		RunE:  benchSimulation,
	}
	addRunFlags(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().IntVar(&particles, "particles", config.DefaultParticles, "particle count")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "spawn seed")
	cmd.Flags().Float64Var(&gravity, "gravity", 0, "gravity override (negative pulls down)")
	cmd.Flags().Float64Var(&radius, "radius", 0, "smoothing radius override")
	cmd.Flags().Float64Var(&viscosity, "viscosity", -1, "viscosity strength override (0 disables)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// buildConfig layers preset, config file, and explicit flags over defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		*cfg = *p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("particles") {
		cfg.Particles = particles
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("gravity") {
		cfg.Fluid.Gravity = gravity
	}
	if cmd.Flags().Changed("radius") {
		cfg.Fluid.SmoothingRadius = radius
	}
	if cmd.Flags().Changed("viscosity") {
		cfg.Fluid.ViscosityStrength = viscosity
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	engine := fluid.New()
	if err := engine.Init(cfg.Fluid, cfg.SpawnParticles()); err != nil {
		return err
	}
	defer engine.Close()

	ms := []metrics.Metric{
		metrics.NewKineticEnergy(),
		metrics.NewDensityError(cfg.Fluid.TargetDensity),
		metrics.NewMaxSpeed(),
	}
	recorder := store.NewRecorder(cfg.Steps)

	start := time.Now()
	for i := 0; i < cfg.Steps; i++ {
		engine.Step(cfg.Dt)
		t := float64(i+1) * cfg.Dt
		for _, m := range ms {
			m.Observe(engine.Particles(), t)
		}
		recorder.Observe(engine.Particles(), t)
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "particles\t%d\n", cfg.Particles)
	fmt.Fprintf(w, "steps\t%d\n", cfg.Steps)
	fmt.Fprintf(w, "workers\t%d\n", engine.Workers())
	fmt.Fprintf(w, "wall time\t%s\n", elapsed.Round(time.Millisecond))
	for _, m := range ms {
		fmt.Fprintf(w, "%s\t%.6g\n", m.Name(), m.Value())
	}
	w.Flush()

	if jsonOut != "" {
		values := make(map[string]float64, len(ms))
		for _, m := range ms {
			values[m.Name()] = m.Value()
		}
		data := store.ExportData{
			Preset:    preset,
			Dt:        cfg.Dt,
			Steps:     cfg.Steps,
			Particles: cfg.Particles,
			Config:    cfg.Fluid,
			Metrics:   values,
			Series:    recorder.Samples(),
		}
		if err := store.ExportJSON(jsonOut, data); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonOut)
	}
	if csvOut != "" {
		if err := store.WriteParticleCSV(csvOut, engine.Particles()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvOut)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	engine := fluid.New()
	if err := engine.Init(cfg.Fluid, cfg.SpawnParticles()); err != nil {
		return err
	}
	defer engine.Close()

	return viz.Run(engine, cfg, frameRate)
}

func benchSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	engine := fluid.New()
	if err := engine.Init(cfg.Fluid, cfg.SpawnParticles()); err != nil {
		return err
	}
	defer engine.Close()

	// Warm up the pool and the spatial index before timing.
	for i := 0; i < 10; i++ {
		engine.Step(cfg.Dt)
	}

	start := time.Now()
	for i := 0; i < cfg.Steps; i++ {
		engine.Step(cfg.Dt)
	}
	elapsed := time.Since(start)

	perStep := elapsed / time.Duration(cfg.Steps)
	fmt.Printf("%d particles, %d workers: %d steps in %s (%s/step, %.1f steps/s)\n",
		cfg.Particles, engine.Workers(), cfg.Steps,
		elapsed.Round(time.Millisecond), perStep.Round(time.Microsecond),
		float64(time.Second)/float64(perStep))
	return nil
}

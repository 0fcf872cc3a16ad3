// Command slither runs headless evolutionary simulation experiments:
// one or more world instances stepped to a tick limit, with CSV telemetry
// and optional SQLite result persistence.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/pthm-cable/slither/config"
	"github.com/pthm-cable/slither/sim"
	"github.com/pthm-cable/slither/store"
	"github.com/pthm-cable/slither/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	name := flag.String("name", "run", "Run name used in output and the result store")
	instances := flag.Int("instances", 1, "Number of independent world instances")
	workers := flag.Int("workers", 0, "Instances to run concurrently (0 = all)")
	seed := flag.Int64("seed", 0, "Base RNG seed, instance i runs with seed+i (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite database for run results (empty = disabled)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *name, *instances, *workers, *seed, *maxTicks, *outputDir, *dbPath); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, name string, instances, workers int, seed, maxTicks int64, outputDir, dbPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if instances < 1 {
		return fmt.Errorf("instances must be at least 1, got %d", instances)
	}
	if workers <= 0 {
		workers = instances
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	output, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	var db *store.Store
	runID := ""
	if dbPath != "" {
		db = store.New(dbPath)
		if err := db.Init(ctx); err != nil {
			return err
		}
		defer db.Close()
		if runID, err = db.CreateRun(ctx, name, cfg); err != nil {
			return err
		}
		slog.Info("registered run", "run_id", runID, "db", dbPath)
	}

	var observers sync.WaitGroup
	batch := make([]sim.Instance, instances)
	for i := range batch {
		instName := fmt.Sprintf("%s-%03d", name, i)
		batch[i] = sim.Instance{
			Name:     instName,
			Config:   cfg,
			Seed:     seed + int64(i),
			MaxTicks: maxTicks,
			Observer: newTelemetryObserver(cfg, outputDir, &observers),
		}
	}

	slog.Info("starting batch",
		"instances", instances,
		"workers", workers,
		"seed", seed,
		"max_ticks", maxTicks,
	)

	results := sim.RunBatch(ctx, batch, workers, slog.Default())
	observers.Wait()

	for _, r := range results {
		if err := output.WriteResult(telemetry.RunResult{
			Instance:      r.Name,
			Seed:          r.Seed,
			Ticks:         r.Steps,
			DurationMS:    r.Duration.Milliseconds(),
			Reason:        r.Reason,
			Snakes:        r.Final.Snakes,
			Segments:      r.Final.Segments,
			Species:       r.Final.SpeciesCount,
			MaxGeneration: r.Final.MaxGeneration,
			MaxMutations:  r.Final.MaxMutations,
		}); err != nil {
			return err
		}
		if db != nil {
			if err := db.SaveResult(ctx, runID, r); err != nil {
				return err
			}
		}
		slog.Info("instance finished",
			"instance", r.Name,
			"reason", r.Reason,
			"ticks", r.Steps,
			"snakes", r.Final.Snakes,
			"species", r.Final.SpeciesCount,
			"max_generation", r.Final.MaxGeneration,
			"conservation_error", r.Final.ConservationError,
		)
	}

	return nil
}

// newTelemetryObserver wires one instance's event stream into a windowed
// CSV writer under outputDir/<instance>/. Returns nil when output is
// disabled.
func newTelemetryObserver(cfg *config.Config, outputDir string, wg *sync.WaitGroup) func(*sim.Simulation) {
	if outputDir == "" {
		return nil
	}

	return func(s *sim.Simulation) {
		instName := s.Name()
		out, err := telemetry.NewOutputManager(filepath.Join(outputDir, instName))
		if err != nil {
			slog.Error("telemetry output disabled", "instance", instName, "error", err)
			return
		}
		collector := telemetry.NewCollector(int64(cfg.Telemetry.StatsWindow))

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer out.Close()

			for ev := range s.Events() {
				switch e := ev.(type) {
				case sim.StatsUpdate:
					if collector.ShouldFlush(e.Stats.Tick) {
						if err := out.WriteTelemetry(collector.Flush(e.Stats, e.Energies)); err != nil {
							slog.Error("writing telemetry", "instance", instName, "error", err)
						}
					}
				case sim.SimulationFinished:
					if err := out.WriteTelemetry(collector.Flush(e.Final, nil)); err != nil {
						slog.Error("writing telemetry", "instance", instName, "error", err)
					}
					return
				}
			}
		}()
	}
}

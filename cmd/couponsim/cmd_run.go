package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kydenul/couponsim"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [<simulations> <max-runs> <p1> [p2 ...]]",
		Short: "Run a batch of collect-them-all trials",
		Long: banner + `

Each probability is the chance that a single run drops that item. Probabilities must sum
to at most 1; the remainder is the chance that a run drops nothing.

Without positional arguments the batch is taken from the simulation section of the config file.`,
		Example: `  couponsim run 10000 1000 0.1 0.2 0.3
  couponsim run 100000 500 0.25 0.25 0.25 0.25 --seed 42 --summary
  couponsim run --config batch.yaml --store`,
		RunE: runSimulation,
	}

	cmd.Flags().Uint64("seed", 0, "Seed for reproducible batches (0 picks a random seed)")
	cmd.Flags().Int("workers", 0, "Number of worker goroutines (0 uses every CPU)")
	cmd.Flags().String("out-dir", couponsim.DefaultOutputDir, "Directory for the results file")
	cmd.Flags().Bool("summary", false, "Also write a YAML summary next to the results file")
	cmd.Flags().Bool("store", false, "Persist the report to Redis")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sim := cfg.Simulation
	trials, maxRuns, p := sim.Trials, sim.MaxRuns, couponsim.ProbabilityVector(sim.Probabilities)
	if len(args) > 0 {
		if trials, maxRuns, p, err = ParseArgs(args); err != nil {
			return err
		}
	} else if err := couponsim.ValidateRunParameters(p, trials, maxRuns); err != nil {
		return fmt.Errorf("no batch on the command line or in the config file: %w", err)
	}

	out := cmd.OutOrStdout()
	logger := couponsim.NewSlogLogger(cfg.Log.Level, cmd.ErrOrStderr())

	fmt.Fprintln(out, banner)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Number of Simulations: %d\n", trials)
	fmt.Fprintf(out, "Maximum Runs per Simulation: %d\n", maxRuns)
	fmt.Fprintf(out, "Item Probabilities: %s\n", formatProbabilities(p))
	fmt.Fprintf(out, "Chance of No Drop: %.6g\n", p.MissProbability())

	monitor := couponsim.NewPerformanceMonitor()
	simulator := couponsim.NewSimulatorFromConfig(sim, logger,
		couponsim.WithMonitor(monitor),
		couponsim.WithProgress(func(_, _, percent int) {
			fmt.Fprintf(out, "Progress: %d%%\n", percent)
		}),
	)
	if seed, ok := simulator.Seed(); ok {
		fmt.Fprintf(out, "Seed: %d\n", seed)
	}

	startedAt := time.Now()
	hist, err := simulator.Run(cmd.Context(), p, trials, maxRuns)
	if err != nil {
		return err
	}

	path, err := couponsim.WriteResultFile(cfg.Output, hist, startedAt)
	if err != nil {
		return err
	}

	report := couponsim.NewSimulationReport(p, hist, simulator, startedAt)
	if cfg.Output.Summary {
		summaryPath := strings.TrimSuffix(path, ".txt") + ".yaml"
		if err := writeSummaryFile(summaryPath, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "Summary written to %s\n", summaryPath)
	}

	if cfg.Redis.Enabled {
		store, closeStore := openStore(cfg, logger, monitor)
		defer closeStore()

		if err := store.Save(cmd.Context(), report); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report saved as %s\n", report.ID)
	}

	metrics := monitor.GetMetrics()
	logger.Debug("Batch metrics: trials=%d, capped=%d, draws/trial=%.2f, throughput=%.0f trials/s",
		metrics.TotalTrials, metrics.CappedTrials, metrics.GetAverageDrawsPerTrial(), metrics.GetThroughput())

	fmt.Fprintf(out, "Finished execution. Output in file %s.\n", path)
	return nil
}

func writeSummaryFile(path string, report *couponsim.SimulationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	if err := couponsim.WriteSummaryYAML(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatProbabilities(p couponsim.ProbabilityVector) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

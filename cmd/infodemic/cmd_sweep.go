package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/infodemic/internal/logging"
	"github.com/nvandessel/infodemic/internal/sim"
	"github.com/nvandessel/infodemic/internal/store"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the same scenario across a seed range",
		Long: `Run the scenario once per seed in [seed-start, seed-start+runs).

Each run gets its own engine, RNG stream, and output subdirectory, so
individual runs stay bit-reproducible.

Example:
  infodemic sweep --config scenario.yaml --runs 10 --out sweep/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, _ := cmd.Flags().GetInt("runs")
			if runs <= 0 {
				return fmt.Errorf("--runs must be positive, got %d", runs)
			}
			seedStart, _ := cmd.Flags().GetInt64("seed-start")
			out, _ := cmd.Flags().GetString("out")
			jsonOut, _ := cmd.Flags().GetBool("json")

			var summaries []*sim.Summary
			for i := 0; i < runs; i++ {
				seed := seedStart + int64(i)
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				cfg.Sim.Seed = seed
				log := logging.NewLogger(cfg.Sim.LogLevel, os.Stderr)

				dir := filepath.Join(out, fmt.Sprintf("seed-%d", seed))
				rec, err := store.NewSQLiteRecorder(dir)
				if err != nil {
					return err
				}
				engine, err := sim.New(cfg, log, rec)
				if err != nil {
					rec.Close()
					return err
				}
				summary, err := engine.Run(cmd.Context())
				rec.Close()
				if err != nil {
					return fmt.Errorf("seed %d: %w", seed, err)
				}
				payload, err := summary.JSON()
				if err != nil {
					return err
				}
				if err := os.WriteFile(filepath.Join(dir, "summary.json"), payload, 0644); err != nil {
					return fmt.Errorf("seed %d: write summary: %w", seed, err)
				}
				summaries = append(summaries, summary)

				if !jsonOut {
					fmt.Fprintf(cmd.OutOrStdout(), "seed %d: %d truth adopters\n",
						seed, summary.TruthAdopters)
				}
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(summaries)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d runs written to %s\n", runs, out)
			return nil
		},
	}

	cmd.Flags().String("config", "", "Path to the YAML scenario config")
	cmd.Flags().Int("runs", 1, "Number of runs")
	cmd.Flags().Int64("seed-start", 0, "First seed of the sweep")
	cmd.Flags().Int("steps", 0, "Override the number of simulated days")
	cmd.Flags().Int("agents", 0, "Override the population size")
	cmd.Flags().Int64("seed", 0, "")
	cmd.Flags().MarkHidden("seed")
	cmd.Flags().String("out", "sweep", "Output directory")

	return cmd
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/logging"
	"github.com/nvandessel/infodemic/internal/sim"
	"github.com/nvandessel/infodemic/internal/store"
)

// loadConfig reads the config file or falls back to defaults, then
// applies CLI overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
		if err := cfg.Finalize(); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		cfg.Sim.Seed = seed
	}
	if cmd.Flags().Changed("steps") {
		steps, _ := cmd.Flags().GetInt("steps")
		cfg.Sim.NSteps = steps
	}
	if cmd.Flags().Changed("agents") {
		agents, _ := cmd.Flags().GetInt("agents")
		cfg.Sim.NAgents = agents
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Sim.LogLevel = lvl
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation",
		Long: `Run a single simulation with the given config and seed.

Metrics and belief snapshots are written to the output directory:
run.db (SQLite) and snapshots.arrow (Arrow IPC).

Example:
  infodemic run --config scenario.yaml --seed 42 --out results/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			log := logging.NewLogger(cfg.Sim.LogLevel, os.Stderr)

			rec, err := store.NewSQLiteRecorder(out)
			if err != nil {
				return err
			}
			defer rec.Close()

			engine, err := sim.New(cfg, log, rec)
			if err != nil {
				return err
			}
			summary, err := engine.Run(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := summary.JSON()
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(out, "summary.json"), payload, 0644); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			} else {
				printSummary(cmd, summary)
				fmt.Fprintf(cmd.OutOrStdout(), "\nResults written to %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().String("config", "", "Path to the YAML scenario config")
	cmd.Flags().Int64("seed", 0, "Override the run seed")
	cmd.Flags().Int("steps", 0, "Override the number of simulated days")
	cmd.Flags().Int("agents", 0, "Override the population size")
	cmd.Flags().String("out", "out", "Output directory")

	return cmd
}

func printSummary(cmd *cobra.Command, s *sim.Summary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s (seed %d, %d days)\n\n", s.RunID, s.Seed, s.Days)
	fmt.Fprintf(w, "Truth adopters: %d\n\n", s.TruthAdopters)
	for _, c := range s.Claims {
		kind := "false"
		if c.IsTrue {
			kind = "true"
		}
		fmt.Fprintf(w, "  %-24s [%s]\n", c.Name, kind)
		fmt.Fprintf(w, "    peak adoption %.3f on day %d, final %.3f (polarization %.3f)\n",
			c.PeakAdoption, c.PeakDay, c.FinalAdoption, c.FinalPolarization)
	}
	if s.InterventionEffect != nil {
		fmt.Fprintf(w, "\nIntervention effect on false-claim adoption: %+.4f\n", *s.InterventionEffect)
	}
}

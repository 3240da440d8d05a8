package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/infodemic/internal/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a scenario config without running it",
		Long: `Validate a scenario config without running it.

Loads the config (resolving base inheritance and emotion presets) and
runs the same checks the run command does, then reports the resolved
scenario shape.

Examples:
  infodemic validate --config scenario.yaml
  infodemic validate --config scenario.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				return fmt.Errorf("--config is required")
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(path)
			if err != nil {
				if jsonOut {
					json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
						"valid": false,
						"error": err.Error(),
					})
				}
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"valid":  true,
					"agents": cfg.Sim.NAgents,
					"steps":  cfg.Sim.NSteps,
					"claims": len(cfg.Claims),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d agents, %d days, %d claims)\n",
				path, cfg.Sim.NAgents, cfg.Sim.NSteps, len(cfg.Claims))
			return nil
		},
	}

	cmd.Flags().String("config", "", "Path to the YAML scenario config")

	return cmd
}

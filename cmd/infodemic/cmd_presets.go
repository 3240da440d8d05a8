package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/infodemic/internal/config"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the named claim emotion presets",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			presets := config.Presets()

			if jsonOut {
				type row struct {
					Name        string  `json:"name"`
					Fear        float64 `json:"fear"`
					Anger       float64 `json:"anger"`
					Hope        float64 `json:"hope"`
					Description string  `json:"description"`
				}
				rows := make([]row, len(presets))
				for i, p := range presets {
					rows[i] = row{p.Name, p.Profile.Fear, p.Profile.Anger, p.Profile.Hope, p.Description}
				}
				json.NewEncoder(cmd.OutOrStdout()).Encode(rows)
				return
			}

			for _, p := range presets {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s fear=%.2f anger=%.2f hope=%.2f  %s\n",
					p.Name, p.Profile.Fear, p.Profile.Anger, p.Profile.Hope, p.Description)
			}
		},
	}
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/sopflow/internal/export"
	"github.com/dusk-indust/sopflow/internal/roi"
)

func newROICmd(flags *globalFlags) *cobra.Command {
	var (
		jsonOut    bool
		hourlyCost float64
	)

	cmd := &cobra.Command{
		Use:   "roi <items>",
		Short: "Evaluate automation candidates from a JSON or YAML file",
		Long: `Evaluate a list of automation candidates (.json, .yml or .yaml) and print
per-item savings, payback and annual ROI with aggregate totals, a
multi-year projection and a sensitivity analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if hourlyCost > 0 {
				cfg.HourlyCost = hourlyCost
			}

			items, err := roi.LoadItems(args[0])
			if err != nil {
				return err
			}
			report, err := roi.Calculator{
				HourlyCost:      cfg.HourlyCost,
				MaintenanceRate: cfg.MaintenanceRate,
				MaxItems:        cfg.MaxROIItems,
				QuickWinMonths:  cfg.QuickWinMonths,
			}.Calculate(items)
			if err != nil {
				return err
			}

			if jsonOut {
				return export.WriteJSON(cmd.OutOrStdout(), report)
			}
			renderROI(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().Float64Var(&hourlyCost, "hourly-cost", 0, "labor cost per hour for items without one")
	return cmd
}

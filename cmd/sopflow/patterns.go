package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/sopflow/internal/export"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
)

func newPatternsCmd(flags *globalFlags) *cobra.Command {
	var (
		jsonOut  bool
		clusters int
	)

	cmd := &cobra.Command{
		Use:   "patterns <document>",
		Short: "Cluster similar steps and flag anomalous ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if clusters > 0 {
				cfg.Clusters = clusters
			}

			doc, err := process.LoadDocument(args[0])
			if err != nil {
				return err
			}
			res, err := process.Flatten(doc, process.Options{MaxSteps: cfg.MaxSteps})
			if err != nil {
				return err
			}

			analysis := pattern.Analyze(res.Steps, res.Roles, pattern.Options{
				Cluster:       pattern.ClusterOptions{K: cfg.Clusters, MaxClusters: cfg.MaxClusters},
				Contamination: cfg.Contamination,
				Seed:          cfg.Seed,
				MaxTexts:      cfg.MaxPatternTexts,
			})
			if jsonOut {
				return export.WriteJSON(cmd.OutOrStdout(), analysis)
			}
			renderPatterns(cmd.OutOrStdout(), &analysis)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the analysis as JSON")
	cmd.Flags().IntVarP(&clusters, "clusters", "k", 0, "requested number of clusters")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/sopflow/internal/export"
	"github.com/dusk-indust/sopflow/internal/graph"
	"github.com/dusk-indust/sopflow/internal/orchestrator"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
)

func newDiagramCmd(flags *globalFlags) *cobra.Command {
	var (
		stages  bool
		backend string
	)

	cmd := &cobra.Command{
		Use:   "diagram [document]",
		Short: "Print a Mermaid flowchart of a procedure, or the stage DAG",
		Long: `Print a Mermaid flowchart of a procedure document with one subgraph per
role; dashed arrows mark handoffs between roles.

With --stages, print the pipeline stage dependency graph in Graphviz DOT
format instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stages {
				router, err := orchestrator.NewRouter()
				if err != nil {
					return err
				}
				return router.WriteDOT(cmd.OutOrStdout())
			}
			if len(args) == 0 {
				return errors.New("a document is required unless --stages is set")
			}

			cfg, err := flags.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if backend != "" {
				cfg.GraphBackend = backend
			}

			doc, err := process.LoadDocument(args[0])
			if err != nil {
				return err
			}
			res, err := process.Flatten(doc, process.Options{MaxSteps: cfg.MaxSteps})
			if err != nil {
				return err
			}

			store, err := graph.Open(cfg.GraphBackend)
			if err != nil {
				return fmt.Errorf("open graph: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			clusters, err := pattern.ClusterSteps(pattern.Sample(res.Steps, cfg.MaxPatternTexts), pattern.ClusterOptions{
				K:           cfg.Clusters,
				MaxClusters: cfg.MaxClusters,
				Seed:        cfg.Seed,
			})
			if err != nil && !errors.Is(err, pattern.ErrInsufficientData) {
				cfg.Logger.Warn("clustering failed", "error", err)
				clusters = nil
			}
			if err := graph.Build(ctx, store, res.Steps, res.Roles, clusters); err != nil {
				return err
			}

			mermaid, err := export.GenerateMermaid(ctx, store)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), mermaid)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stages, "stages", false, "print the pipeline stage DAG as DOT")
	cmd.Flags().StringVar(&backend, "graph-backend", "", fmt.Sprintf("process graph store: %s or %s", graph.BackendMemory, graph.BackendKuzu))
	return cmd
}

package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/sopflow/internal/export"
	"github.com/dusk-indust/sopflow/internal/graph"
	"github.com/dusk-indust/sopflow/internal/orchestrator"
	"github.com/dusk-indust/sopflow/internal/process"
)

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		jsonOut  bool
		output   string
		diagram  bool
		progress bool
		backend  string
	)

	cmd := &cobra.Command{
		Use:   "analyze <document>",
		Short: "Run the full analytics pipeline over a procedure document",
		Long: `Run every stage over a procedure document (.json, .yml or .yaml):
flatten, cluster, detect_anomalies, benchmark, estimate_roi and aggregate.

Stages that fail are skipped and reported as warnings; only a document with
no procedure steps aborts the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if diagram {
				cfg.Diagram = true
			}
			if backend != "" {
				cfg.GraphBackend = backend
			}

			doc, err := process.LoadDocument(args[0])
			if err != nil {
				return err
			}

			pipeline, err := orchestrator.NewPipeline(cfg)
			if err != nil {
				return err
			}

			var wg sync.WaitGroup
			if progress {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for ev := range pipeline.Progress() {
						fmt.Fprintln(cmd.ErrOrStderr(), orchestrator.FormatProgress(ev))
					}
				}()
			}
			report, err := pipeline.Run(cmd.Context(), doc, cfg.Sector)
			pipeline.Close()
			wg.Wait()
			if err != nil {
				return err
			}

			if output != "" {
				if err := export.WriteJSONFile(output, report); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", output)
			}
			if jsonOut {
				return export.WriteJSON(cmd.OutOrStdout(), report)
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the JSON report to this file")
	cmd.Flags().BoolVar(&diagram, "diagram", false, "include a Mermaid flowchart of the process")
	cmd.Flags().BoolVar(&progress, "progress", false, "print stage progress to stderr")
	cmd.Flags().StringVar(&backend, "graph-backend", "", fmt.Sprintf("process graph store: %s or %s", graph.BackendMemory, graph.BackendKuzu))
	return cmd
}

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/sopflow/internal/mcptools"
	"github.com/dusk-indust/sopflow/internal/orchestrator"
)

func newServeMCPCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the analysis tools over the Model Context Protocol",
		Long: `Serve analyze_process, calculate_roi and list_sectors as MCP tools.
The server speaks stdio by default; --http serves streamable HTTP on the
given address instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			pipeline, err := orchestrator.NewPipeline(cfg)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := mcptools.NewAnalysisMCPServer(mcptools.NewAnalysisService(pipeline, cfg))
			if addr != "" {
				cfg.Logger.Info("serving MCP over HTTP", "addr", addr)
				return mcptools.RunHTTP(ctx, server, addr)
			}
			return mcptools.RunStdio(ctx, server)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address (e.g. :8080)")
	return cmd
}

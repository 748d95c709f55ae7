package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/sopflow/internal/config"
	"github.com/dusk-indust/sopflow/internal/orchestrator"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configDir string
	sector    string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "sopflow",
		Short: "SOP analytics: process flattening, pattern mining, benchmarking and ROI",
		Long: `sopflow turns a structured procedure document into an ordered workflow,
clusters similar steps, flags anomalous ones, scores every step against a
sector benchmark and estimates the return on automating it.

Settings are read from sopflow.yml in the config directory; flags override
the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", ".", "directory containing sopflow.yml")
	root.PersistentFlags().StringVar(&flags.sector, "sector", "", "benchmark sector (see 'sopflow sectors')")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log pipeline stages to stderr")

	root.AddCommand(
		newAnalyzeCmd(&flags),
		newPatternsCmd(&flags),
		newROICmd(&flags),
		newDiagramCmd(&flags),
		newSectorsCmd(),
		newServeMCPCmd(&flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sopflow %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}

// loadConfig builds the pipeline configuration: defaults, then sopflow.yml,
// then command-line flags.
func (f *globalFlags) loadConfig(stderr io.Writer) (orchestrator.Config, error) {
	cfg := orchestrator.DefaultConfig()

	project, err := config.Load(f.configDir)
	if err != nil {
		return cfg, err
	}
	if err := project.ApplyTo(&cfg); err != nil {
		return cfg, err
	}
	if f.sector != "" {
		cfg.Sector = f.sector
	}

	level := slog.LevelWarn
	if f.verbose || project.Verbose {
		level = slog.LevelDebug
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	cfg.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return cfg, nil
}

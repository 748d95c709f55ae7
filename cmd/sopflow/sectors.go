package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/sopflow/internal/benchdata"
)

func newSectorsCmd() *cobra.Command {
	var show string

	cmd := &cobra.Command{
		Use:   "sectors",
		Short: "List the sectors with a built-in benchmark text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if show != "" {
				text, err := benchdata.Text(show)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}
			for _, s := range benchdata.Sectors() {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "print the benchmark text of one sector")
	return cmd
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the snapshot from the content directory",
		Long: `Discards the persisted snapshot and rebuilds it from source:
scans the content directory, reprocesses every document, and rewrites the
metadata, indices, and feed under the cache directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			if _, err := a.orch.Rebuild(cmd.Context()); err != nil {
				return err
			}

			sum := a.orch.Summary()
			fmt.Fprintf(cmd.OutOrStdout(),
				"Rebuilt snapshot: %d indexed, %d failed of %d scanned in %s\n",
				sum.Indexed, sum.Failed, sum.Scanned, sum.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

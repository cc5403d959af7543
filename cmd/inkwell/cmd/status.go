package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// statusReport is the machine-readable status output.
type statusReport struct {
	ContentRoot string `json:"contentRoot"`
	CacheDir    string `json:"cacheDir"`
	Posts       int    `json:"posts"`
	Tags        int    `json:"tags"`
	BuiltAt     string `json:"builtAt"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show snapshot state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			snap, err := a.orch.Ensure(cmd.Context())
			if err != nil {
				return err
			}

			report := statusReport{
				ContentRoot: a.cfg.Content.Root,
				CacheDir:    a.cfg.Cache.Dir,
				Posts:       len(snap.Posts),
				Tags:        len(snap.Tags),
				BuiltAt:     snap.BuiltAt.Format("2006-01-02 15:04:05 MST"),
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "Content root: %s\n", report.ContentRoot)
			fmt.Fprintf(out, "Cache dir:    %s\n", report.CacheDir)
			fmt.Fprintf(out, "Posts:        %d\n", report.Posts)
			fmt.Fprintf(out, "Tags:         %d\n", report.Tags)
			fmt.Fprintf(out, "Built at:     %s\n", report.BuiltAt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

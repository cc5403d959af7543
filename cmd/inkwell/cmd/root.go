// Package cmd provides the CLI commands for inkwell.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidgrier/inkwell/pkg/version"
)

var configPath string

// NewRootCmd creates the root command for the inkwell CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Content preprocessing and serving backend for a markdown blog",
		Long: `Inkwell ingests a directory of markdown documents, derives the
indices a blog frontend needs (chronology, tags, full-text search, feed),
and serves them over a small JSON API.

The derived state is a disposable cache: delete it and inkwell rebuilds
from the content directory on the next request.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("inkwell version {{.Version}}\n")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: inkwell.yaml in the working directory)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

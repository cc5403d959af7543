// Package main provides the entry point for the inkwell CLI.
package main

import (
	"os"

	"github.com/davidgrier/inkwell/cmd/inkwell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

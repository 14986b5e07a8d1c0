// Package main provides the sketch CLI entrypoint.
package main

import (
	"os"

	"github.com/fetchgraph/sketch/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}

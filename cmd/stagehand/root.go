package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Task analysis and workflow orchestration",
	Long: `Stagehand turns free-text task descriptions into executable workflows.

It analyzes a task to find its entities, complexity and required
capability contexts, composes a dependency-ordered workflow from
templates or from scratch, and executes the phases with per-phase
timeouts, parallel groups and failure recovery.

Core capabilities:
- Pattern-based task analysis with complexity scoring
- Template matching with a hot-reloading YAML template library
- Deterministic workflow composition and validation
- Concurrent phase execution with recovery rules`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(versionCmd)
}

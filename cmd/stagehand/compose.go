package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sbraddock/stagehand/internal/config"
)

var composeCmd = &cobra.Command{
	Use:   "compose <task>",
	Short: "Compose a workflow for a task and print it as YAML",
	Long: `Analyze a task description, compose the workflow it needs, and print
the full workflow definition as YAML without executing it. Useful for
inspecting phase ordering, dependencies and validation results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: composeTask,
}

func composeTask(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	eng, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis := eng.AnalyzeTask(description)
	def := eng.ComposeWorkflow(analysis)

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(def); err != nil {
		return fmt.Errorf("encoding workflow: %w", err)
	}
	return nil
}

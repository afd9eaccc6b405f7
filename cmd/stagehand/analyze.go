package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sbraddock/stagehand/internal/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <task>",
	Short: "Analyze a task description without executing it",
	Long: `Analyze a task description and print the structured analysis:
extracted entities, complexity, required contexts, estimated duration,
dependencies and success criteria.`,
	Args: cobra.MinimumNArgs(1),
	RunE: analyzeTask,
}

func analyzeTask(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("%s %s\n", color.CyanString("task:"), analysis.TaskID)
	fmt.Printf("  complexity:  %s\n", analysis.Complexity)
	fmt.Printf("  confidence:  %.2f\n", analysis.Confidence)
	fmt.Printf("  duration:    %d minutes\n", analysis.EstimatedDuration)

	fmt.Println("  contexts:")
	for _, ctx := range analysis.RequiredContexts {
		fmt.Printf("    - %s\n", ctx)
	}

	if len(analysis.Entities) > 0 {
		fmt.Println("  entities:")
		for _, e := range analysis.Entities {
			fmt.Printf("    - %s (%s, %.2f)\n", e.Name, e.Type, e.Confidence)
		}
	}
	if len(analysis.Dependencies) > 0 {
		fmt.Println("  dependencies:")
		for _, d := range analysis.Dependencies {
			fmt.Printf("    - %s\n", d)
		}
	}
	if len(analysis.SuccessCriteria) > 0 {
		fmt.Println("  success criteria:")
		for _, c := range analysis.SuccessCriteria {
			fmt.Printf("    - %s\n", c)
		}
	}
	return nil
}

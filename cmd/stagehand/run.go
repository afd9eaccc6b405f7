package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sbraddock/stagehand/internal/config"
	"github.com/sbraddock/stagehand/pkg/models"
)

var runShowEvents bool

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Analyze, compose and execute a task",
	Long: `Run a task through the full pipeline.

The task description is analyzed for entities, complexity and required
contexts, composed into a dependency-ordered workflow, and executed
phase by phase. Independent phases run concurrently and failures are
handled by recovery rules.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	runCmd.Flags().BoolVar(&runShowEvents, "events", false, "Print orchestration events as they happen")
}

func runTask(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runShowEvents {
		go func() {
			for e := range eng.Events() {
				fmt.Printf("  %s %s %s\n", color.CyanString(string(e.Type)), e.PhaseID, e.Message)
			}
		}()
	}

	result := eng.RunTask(ctx, description)
	printResult(result)

	if result.Status != models.WorkflowCompleted {
		os.Exit(1)
	}
	return nil
}

// printResult renders the run summary.
func printResult(result *models.WorkflowResult) {
	fmt.Println()
	switch result.Status {
	case models.WorkflowCompleted:
		fmt.Printf("%s workflow %s completed\n", color.GreenString("✓"), result.WorkflowID)
	case models.WorkflowCancelled:
		fmt.Printf("%s workflow %s cancelled\n", color.YellowString("⚠"), result.WorkflowID)
	default:
		fmt.Printf("%s workflow %s %s\n", color.RedString("✗"), result.WorkflowID, result.Status)
	}

	fmt.Printf("  phases completed: %d\n", len(result.PhasesExecuted))
	if len(result.PhasesFailed) > 0 {
		fmt.Printf("  phases failed:    %s\n", color.RedString("%d", len(result.PhasesFailed)))
	}
	fmt.Printf("  success rate:     %.0f%%\n", result.SuccessRate()*100)
	fmt.Printf("  execution time:   %.2fs\n", result.ExecutionTimeSeconds)

	for _, msg := range result.Errors {
		fmt.Printf("  %s %s\n", color.RedString("error:"), msg)
	}
	for _, msg := range result.Warnings {
		fmt.Printf("  %s %s\n", color.YellowString("warning:"), msg)
	}
}

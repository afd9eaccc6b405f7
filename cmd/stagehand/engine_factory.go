package main

import (
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/sbraddock/stagehand/internal/composer"
	"github.com/sbraddock/stagehand/internal/config"
	"github.com/sbraddock/stagehand/internal/engine"
	"github.com/sbraddock/stagehand/internal/executor"
	"github.com/sbraddock/stagehand/internal/orchestrator"
)

// buildEngine assembles the pipeline from loaded configuration. The
// returned cleanup stops the template watcher and must always be called.
func buildEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	var library *composer.Library
	cleanup := func() {}

	if cfg.Templates.Dir != "" {
		lib, err := composer.OpenLibrary(cfg.Templates.Dir)
		if err != nil {
			log.Printf("[stagehand] template library unavailable: %v", err)
		} else {
			library = lib
			if cfg.Templates.Watch {
				if err := lib.Watch(); err != nil {
					log.Printf("[stagehand] template watching disabled: %v", err)
				}
			}
			cleanup = lib.Close
		}
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	e := engine.New(engine.Config{
		Library: library,
		Orchestrator: orchestrator.Config{
			Registry:    registry,
			Policies:    executor.DefaultPolicies(),
			EventBuffer: cfg.Engine.EventBuffer,
		},
		Environment: cfg.EnvironmentHints(),
	})
	return e, cleanup, nil
}

// buildRegistry selects the phase execution backend.
func buildRegistry(cfg *config.Config) (*executor.Registry, error) {
	switch cfg.Executor.Backend {
	case "", "simulated":
		return executor.NewRegistry(&executor.Simulated{}), nil
	case "claude":
		claude, err := executor.NewClaudeExecutor(executor.ClaudeConfig{
			Model:         anthropic.Model(cfg.Anthropic.Model),
			APIKey:        cfg.Anthropic.APIKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, fmt.Errorf("creating claude executor: %w", err)
		}
		return executor.NewRegistry(claude), nil
	default:
		return nil, fmt.Errorf("unknown executor backend %q", cfg.Executor.Backend)
	}
}

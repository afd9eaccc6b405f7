package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Executor.Backend != "simulated" {
		t.Errorf("expected default backend 'simulated', got %q", cfg.Executor.Backend)
	}

	if cfg.Engine.EventBuffer != 64 {
		t.Errorf("expected default event buffer 64, got %d", cfg.Engine.EventBuffer)
	}

	if cfg.Templates.Dir != "" {
		t.Errorf("expected template matching disabled by default, got %q", cfg.Templates.Dir)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `anthropic:
  model: claude-sonnet-4-20250514
executor:
  backend: claude
templates:
  dir: /opt/stagehand/templates
  watch: true
engine:
  event_buffer: 256
  project_size: large
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Executor.Backend != "claude" {
		t.Errorf("expected backend 'claude', got %q", cfg.Executor.Backend)
	}
	if cfg.Templates.Dir != "/opt/stagehand/templates" {
		t.Errorf("expected template dir override, got %q", cfg.Templates.Dir)
	}
	if !cfg.Templates.Watch {
		t.Error("expected template watching enabled")
	}
	if cfg.Engine.EventBuffer != 256 {
		t.Errorf("expected event buffer 256, got %d", cfg.Engine.EventBuffer)
	}
	if cfg.Engine.ProjectSize != "large" {
		t.Errorf("expected project size 'large', got %q", cfg.Engine.ProjectSize)
	}
}

func TestLoadFromPathExpandsAPIKey(t *testing.T) {
	t.Setenv("STAGEHAND_TEST_KEY", "sk-test-123")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := "anthropic:\n  api_key: ${STAGEHAND_TEST_KEY}\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-test-123" {
		t.Errorf("expected expanded api key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestEnvironmentHints(t *testing.T) {
	cfg := Default()
	if hints := cfg.EnvironmentHints(); len(hints) != 0 {
		t.Errorf("expected no hints by default, got %v", hints)
	}

	cfg.Engine.ProjectSize = "enterprise"
	cfg.Engine.TeamExperience = "junior"
	hints := cfg.EnvironmentHints()
	if hints["project_size"] != "enterprise" || hints["team_experience"] != "junior" {
		t.Errorf("unexpected hints: %v", hints)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

// Package config handles configuration loading for stagehand.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for stagehand.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Engine    EngineConfig    `mapstructure:"engine"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. ${VAR} references are expanded.
	APIKey string `mapstructure:"api_key"`
	// Model is the Claude model name. Empty selects the SDK default.
	Model string `mapstructure:"model"`
	// UseBedrock routes API calls through AWS Bedrock.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile for Bedrock.
	AWSProfile string `mapstructure:"aws_profile"`
}

// ExecutorConfig selects the phase execution backend.
type ExecutorConfig struct {
	// Backend is "simulated" or "claude".
	Backend string `mapstructure:"backend"`
}

// TemplatesConfig holds workflow template library settings.
type TemplatesConfig struct {
	// Dir is the template directory. Empty disables template matching.
	Dir string `mapstructure:"dir"`
	// Watch enables hot-reloading templates on file changes.
	Watch bool `mapstructure:"watch"`
}

// EngineConfig holds pipeline tuning settings.
type EngineConfig struct {
	// EventBuffer is the orchestration event channel capacity.
	EventBuffer int `mapstructure:"event_buffer"`
	// ProjectSize is an analysis hint (small, medium, large, enterprise).
	ProjectSize string `mapstructure:"project_size"`
	// TeamExperience is an analysis hint (junior, mixed, senior, expert).
	TeamExperience string `mapstructure:"team_experience"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, STAGEHAND_TEMPLATE_DIR)
// 2. Project config (.stagehand.yaml in current directory or parent)
// 3. User config (~/.config/stagehand/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("templates.dir", "STAGEHAND_TEMPLATE_DIR")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("executor.backend", cfg.Executor.Backend)
	v.Set("templates.dir", cfg.Templates.Dir)
	v.Set("templates.watch", cfg.Templates.Watch)
	v.Set("engine.event_buffer", cfg.Engine.EventBuffer)
	v.Set("engine.project_size", cfg.Engine.ProjectSize)
	v.Set("engine.team_experience", cfg.Engine.TeamExperience)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// EnvironmentHints converts the engine settings into the hint map the
// analyzer consumes.
func (c *Config) EnvironmentHints() map[string]string {
	hints := make(map[string]string)
	if c.Engine.ProjectSize != "" {
		hints["project_size"] = c.Engine.ProjectSize
	}
	if c.Engine.TeamExperience != "" {
		hints["team_experience"] = c.Engine.TeamExperience
	}
	return hints
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("executor.backend", "simulated")

	v.SetDefault("templates.dir", "")
	v.SetDefault("templates.watch", false)

	v.SetDefault("engine.event_buffer", 64)
	v.SetDefault("engine.project_size", "")
	v.SetDefault("engine.team_experience", "")
}

// getUserConfigDir returns the XDG config directory for stagehand.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "stagehand")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "stagehand")
	}
	return filepath.Join(home, ".config", "stagehand")
}

// findProjectConfig searches for .stagehand.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".stagehand.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{},
		Executor: ExecutorConfig{
			Backend: "simulated",
		},
		Templates: TemplatesConfig{},
		Engine: EngineConfig{
			EventBuffer: 64,
		},
	}
}

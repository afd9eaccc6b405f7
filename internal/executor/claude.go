package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/sbraddock/stagehand/pkg/models"
)

// ClaudeConfig contains configuration for the Claude-backed executor.
type ClaudeConfig struct {
	// Model is the Claude model to use. Defaults to Sonnet when empty.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// Policies optionally supplies per-context execution policies.
	Policies PolicyLoader
}

// ClaudeExecutor carries out phases by prompting Claude and parsing the
// JSON outputs from its response.
type ClaudeExecutor struct {
	inner    anthropic.Client
	model    anthropic.Model
	policies PolicyLoader
}

// NewClaudeExecutor creates a Claude-backed phase executor.
func NewClaudeExecutor(cfg ClaudeConfig) (*ClaudeExecutor, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	policies := cfg.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}

	return &ClaudeExecutor{
		inner:    anthropic.NewClient(opts...),
		model:    model,
		policies: policies,
	}, nil
}

// ExecutePhase prompts the model with the phase description and inputs
// and parses the returned JSON object into the phase outputs.
func (e *ClaudeExecutor) ExecutePhase(ctx context.Context, phase *models.WorkflowPhase, inputs map[string]any) (map[string]any, error) {
	policy, err := e.policies.LoadPolicy(phase.Context)
	if err != nil {
		return nil, fmt.Errorf("loading policy for context %s: %w", phase.Context, err)
	}

	prompt, err := buildPhasePrompt(phase, inputs)
	if err != nil {
		return nil, err
	}

	resp, err := e.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: policy.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	outputs, err := parseOutputs(text.String())
	if err != nil {
		return nil, fmt.Errorf("phase %s: %w", phase.PhaseID, err)
	}
	return outputs, nil
}

// buildPhasePrompt renders the phase work order handed to the model.
func buildPhasePrompt(phase *models.WorkflowPhase, inputs map[string]any) (string, error) {
	inputJSON, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding inputs: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are executing the %q phase of a workflow.\n\n", phase.Name)
	if phase.Description != "" {
		fmt.Fprintf(&b, "PHASE GOAL:\n%s\n\n", phase.Description)
	}
	fmt.Fprintf(&b, "INPUTS:\n%s\n\n", inputJSON)
	if len(phase.QualityGates) > 0 {
		fmt.Fprintf(&b, "QUALITY GATES:\n- %s\n\n", strings.Join(phase.QualityGates, "\n- "))
	}
	fmt.Fprintf(&b, "Respond with a single JSON object containing exactly these keys: %s\n",
		strings.Join(phase.Outputs, ", "))
	b.WriteString("Do not include any other text outside the JSON object.\n")
	return b.String(), nil
}

// parseOutputs extracts the JSON object from a model response.
func parseOutputs(response string) (map[string]any, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no valid JSON found in response: %s", truncate(response, 200))
	}

	var outputs map[string]any
	if err := json.Unmarshal([]byte(response[start:end+1]), &outputs); err != nil {
		return nil, fmt.Errorf("parse JSON: %w (response: %s)", err, truncate(response, 200))
	}
	return outputs, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package orchestrator

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/sbraddock/stagehand/pkg/models"
)

// Sentinel errors used by recovery rule conditions.
var (
	// ErrPhaseTimeout indicates a phase exceeded its hard timeout.
	ErrPhaseTimeout = errors.New("phase execution timed out")
	// ErrOutputValidation indicates a phase produced unusable outputs.
	ErrOutputValidation = errors.New("phase output validation failed")
	// ErrUnknownContext indicates a phase is bound to an unknown context.
	ErrUnknownContext = errors.New("unknown phase context")
)

// RecoveryRule pairs a failure condition with the action to take when it
// matches. Rules are evaluated top-down and the first match wins.
type RecoveryRule struct {
	// Name identifies the rule in logs.
	Name string
	// Condition reports whether the rule applies to the failure.
	Condition func(phase *models.WorkflowPhase, err error) bool
	// Action is the recovery to perform when the condition matches.
	Action models.RecoveryAction
}

// DefaultRecoveryRules returns the built-in rule set: timeouts are
// retried within the phase's retry budget, unusable outputs and failures
// flagged critical abort the workflow.
func DefaultRecoveryRules() []RecoveryRule {
	return []RecoveryRule{
		{
			Name: "retry-timeouts",
			Condition: func(_ *models.WorkflowPhase, err error) bool {
				return errors.Is(err, ErrPhaseTimeout) || errors.Is(err, context.DeadlineExceeded)
			},
			Action: models.RecoveryAction{
				Type:       models.RecoveryRetry,
				Parameters: map[string]any{"backoff_ms": 100},
				Reason:     "timeouts are usually transient",
			},
		},
		{
			Name: "abort-on-bad-outputs",
			Condition: func(_ *models.WorkflowPhase, err error) bool {
				return errors.Is(err, ErrOutputValidation)
			},
			Action: models.RecoveryAction{
				Type:   models.RecoveryAbort,
				Reason: "downstream phases cannot trust these outputs",
			},
		},
		{
			Name: "abort-on-critical",
			Condition: func(_ *models.WorkflowPhase, err error) bool {
				return err != nil && strings.Contains(strings.ToLower(err.Error()), "critical")
			},
			Action: models.RecoveryAction{
				Type:   models.RecoveryAbort,
				Reason: "failure reported as critical",
			},
		},
	}
}

// resolveRecovery evaluates the rule list for a failed phase. When no
// rule matches, the returned action has an empty type and the phase is
// simply marked failed.
func (o *Orchestrator) resolveRecovery(phase *models.WorkflowPhase, err error) models.RecoveryAction {
	for _, rule := range o.rules {
		if rule.Condition != nil && rule.Condition(phase, err) {
			log.Printf("[orchestrator] recovery rule %s matched for phase %s: %s",
				rule.Name, phase.PhaseID, rule.Action.Type)
			return rule.Action
		}
	}
	return models.RecoveryAction{Reason: "no recovery rule matched"}
}

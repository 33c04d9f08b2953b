package compiler

import (
	"fmt"

	"github.com/aretw0/cadence/pkg/domain"
)

// condition compiles one end condition owned by the task at taskIndex.
// On failure it returns nil and the reason the entry was skipped.
func (s *session) condition(raw map[string]any, taskIndex int) (*domain.Condition, string) {
	var e conditionEntry
	if err := decode(raw, &e); err != nil {
		return nil, err.Error()
	}

	target, reason := resolveTarget(raw, e, taskIndex)
	if reason != "" {
		return nil, reason
	}

	opts := []domain.ConditionOption{domain.WithEnv(s.env())}
	if e.NotificationText != "" {
		opts = append(opts, domain.WithNotification(e.NotificationText))
	}

	kind := domain.ConditionKind(e.ConditionType)
	switch kind {
	case domain.ConditionTimeout:
		if !has(raw, "Duration") {
			return nil, "Timeout requires Duration"
		}
		return domain.NewTimeout(target, seconds2duration(e.Duration), opts...), ""

	case domain.ConditionCommand, domain.ConditionCumulativeCommand:
		if !has(raw, "Duration") || !has(raw, "CommandNames") {
			return nil, fmt.Sprintf("%s requires Duration and CommandNames", kind)
		}
		d := seconds2duration(e.Duration)
		if kind == domain.ConditionCommand {
			return domain.NewCommand(target, e.CommandNames, d, opts...), ""
		}
		return domain.NewCumulativeCommand(target, e.CommandNames, d, e.StoreValueInVariableName, opts...), ""

	case domain.ConditionExpression:
		if !has(raw, "Expression") {
			return nil, "ExpressionCondition requires Expression"
		}
		return domain.NewExpression(target, e.Expression, opts...), ""

	case domain.ConditionChain:
		if len(e.Conditions) == 0 {
			return nil, "ChainCondition requires Conditions"
		}
		subs := make([]*domain.Condition, 0, len(e.Conditions))
		for k, sub := range e.Conditions {
			c, reason := s.condition(sub, taskIndex)
			if c == nil {
				return nil, fmt.Sprintf("chain stage %d: %s", k, reason)
			}
			subs = append(subs, c)
		}
		c, err := domain.NewChain(target, subs, opts...)
		if err != nil {
			return nil, err.Error()
		}
		return c, ""

	default:
		return nil, fmt.Sprintf("unknown ConditionType %q", e.ConditionType)
	}
}

// resolveTarget applies TransitionToRelativeIndex (relative to the owning
// task) over TransitionToIndex, and falls back to the next task.
func resolveTarget(raw map[string]any, e conditionEntry, taskIndex int) (domain.Target, string) {
	var index int
	switch {
	case has(raw, "TransitionToRelativeIndex"):
		index = taskIndex + e.TransitionToRelativeIndex
	case has(raw, "TransitionToIndex"):
		index = e.TransitionToIndex
	default:
		return domain.Next(), ""
	}
	if index < 0 {
		return domain.Target{}, fmt.Sprintf("transition target %d is negative", index)
	}
	return domain.To(index), ""
}

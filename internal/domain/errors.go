package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScenario is wrapped by every scenario invariant failure.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrInvalidParameters is wrapped by simulation parameter failures.
	ErrInvalidParameters = errors.New("invalid simulation parameters")
	// ErrUnknownStressScenario is reported for ids missing from the catalog.
	ErrUnknownStressScenario = errors.New("unknown stress scenario")
	// ErrSimulationCancelled marks a Monte Carlo run stopped before all trials finished.
	ErrSimulationCancelled = errors.New("simulation cancelled")
)

// ScenarioError describes which scenario field broke an invariant.
type ScenarioError struct {
	Field  string
	Reason string
}

func newScenarioError(field, reason string) *ScenarioError {
	return &ScenarioError{Field: field, Reason: reason}
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("invalid scenario: %s %s", e.Field, e.Reason)
}

func (e *ScenarioError) Unwrap() error {
	return ErrInvalidScenario
}

// ParameterError lists the blocking validation errors for a parameter set.
type ParameterError struct {
	Errors []string
}

func (e *ParameterError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid simulation parameters: %s", e.Errors[0])
	}
	return fmt.Sprintf("invalid simulation parameters: %d errors, first: %s", len(e.Errors), e.Errors[0])
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameters
}

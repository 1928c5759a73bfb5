package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrModelBlocked    = errors.New("model request blocked")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrNoPlan          = errors.New("no plan produced")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrRoundBudget     = errors.New("conversation round budget exhausted")
	ErrNotSuspended    = errors.New("no suspended tool batch to resume")
)

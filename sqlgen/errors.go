package sqlgen

import "errors"

var (
	// ErrEmptyQuestion is returned when a request carries no question text.
	ErrEmptyQuestion = errors.New("sqlgen: question is empty")
	// ErrEmptySQL is returned when the model output cleans down to nothing.
	ErrEmptySQL = errors.New("sqlgen: model returned no SQL")
	// ErrInvalidRule wraps CEL compile failures in configured scope rules.
	ErrInvalidRule = errors.New("sqlgen: invalid scope rule")
	// ErrRuleEvaluation wraps CEL runtime failures while evaluating a rule
	// against the request parameters.
	ErrRuleEvaluation = errors.New("sqlgen: scope rule evaluation failed")
)

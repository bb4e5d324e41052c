package query

import "errors"

var (
	// ErrMalformedRule reports a rule document missing required keys
	ErrMalformedRule = errors.New("malformed rule")

	// ErrInvalidCondition reports a group condition other than AND or OR
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrInvalidOperator reports an operator the rule's type does not define
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrInvalidType reports an unknown rule type
	ErrInvalidType = errors.New("invalid type")

	// ErrMissingColumn reports a group, sort or projection column absent from the column index
	ErrMissingColumn = errors.New("missing column")

	// ErrUnknownProjection reports a projection tag with no registered strategy
	ErrUnknownProjection = errors.New("unknown projection")
)

package query

import (
	"fmt"
)

// Evaluate evaluates a group rule. An empty AND is true, an empty OR is false.
func (g *GroupRule) Evaluate(ctx *EvaluationContext) (bool, error) {
	switch g.Condition {
	case ConditionAnd:
		for _, rule := range g.Rules {
			match, err := rule.Evaluate(ctx)
			if err != nil {
				return false, err
			}
			if !match {
				return false, nil
			}
		}
		return true, nil
	case ConditionOr:
		for _, rule := range g.Rules {
			match, err := rule.Evaluate(ctx)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidCondition, g.Condition)
	}
}

// Evaluate evaluates an operator rule against the context row.
// A field missing from the row never matches; an operator or type the
// tables do not define is an error.
func (o *OperatorRule) Evaluate(ctx *EvaluationContext) (bool, error) {
	ops, ok := operatorTables[o.Type]
	if !ok {
		return false, fmt.Errorf("%w: %q for field %q, valid types are %v", ErrInvalidType, o.Type, o.Field, ValidTypes())
	}

	fn, ok := ops[o.Operator]
	if !ok {
		return false, fmt.Errorf("%w: %q for %s field %q, valid operators are %v", ErrInvalidOperator, o.Operator, o.Type, o.Field, ValidOperators(o.Type))
	}

	cell, found := ctx.Value(o.Field)
	if !found {
		return false, nil
	}

	return fn(cell, o.Value), nil
}

// Filter decides which rows become candidates
type Filter struct {
	rule Rule
}

// NewFilter builds a filter from a decoded rule document
func NewFilter(spec map[string]interface{}) (*Filter, error) {
	rule, err := ParseRule(spec)
	if err != nil {
		return nil, err
	}
	return &Filter{rule: rule}, nil
}

// NewFilterJSON builds a filter from a JSON rule document
func NewFilterJSON(data []byte) (*Filter, error) {
	rule, err := ParseRuleJSON(data)
	if err != nil {
		return nil, err
	}
	return &Filter{rule: rule}, nil
}

// NewFilterFromRule wraps an already built rule
func NewFilterFromRule(rule Rule) *Filter {
	return &Filter{rule: rule}
}

// Rule returns the root rule, nil when the filter passes everything
func (f *Filter) Rule() Rule {
	if f == nil {
		return nil
	}
	return f.rule
}

// Test reports whether a row passes the filter
func (f *Filter) Test(row Row, columns ColumnIndex) (bool, error) {
	if f == nil || f.rule == nil {
		return true, nil
	}
	return f.rule.Evaluate(NewEvaluationContext(row, columns))
}

// ApplyFilter returns the rows that pass the filter
func ApplyFilter(rows []Row, columns ColumnIndex, filter *Filter) ([]Row, error) {
	if filter.Rule() == nil {
		return rows, nil
	}

	filtered := make([]Row, 0)
	for _, row := range rows {
		match, err := filter.Test(row, columns)
		if err != nil {
			return nil, err
		}
		if match {
			filtered = append(filtered, row)
		}
	}

	return filtered, nil
}

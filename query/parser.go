package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseRuleJSON decodes a JSON rule document and builds its rule tree.
// Blank input, null and {} yield a nil rule.
func ParseRuleJSON(data []byte) (Rule, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var spec map[string]interface{}
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRule, err)
	}
	return ParseRule(spec)
}

// ParseRule builds a rule tree from a decoded rule document.
//
// A node carrying "condition" becomes a GroupRule whose children are built from
// "rules"; a node carrying "operator" becomes an OperatorRule and must also carry
// "field", "type" and "value". An empty or nil document yields a nil rule, which
// callers treat as a pass-through filter.
func ParseRule(spec map[string]interface{}) (Rule, error) {
	if len(spec) == 0 {
		return nil, nil
	}
	return parseNode(spec, "$")
}

func parseNode(spec map[string]interface{}, path string) (Rule, error) {
	if raw, ok := spec["condition"]; ok {
		return parseGroup(spec, raw, path)
	}
	if _, ok := spec["operator"]; ok {
		return parseOperator(spec, path)
	}
	return nil, fmt.Errorf("%w at %s: node has neither \"condition\" nor \"operator\"", ErrMalformedRule, path)
}

func parseGroup(spec map[string]interface{}, raw interface{}, path string) (Rule, error) {
	name, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w at %s: condition must be a string, got %T", ErrInvalidCondition, path, raw)
	}

	var condition Condition
	switch {
	case strings.EqualFold(name, string(ConditionAnd)):
		condition = ConditionAnd
	case strings.EqualFold(name, string(ConditionOr)):
		condition = ConditionOr
	default:
		return nil, fmt.Errorf("%w at %s: %q, expected AND or OR", ErrInvalidCondition, path, name)
	}

	group := &GroupRule{Condition: condition, Rules: []Rule{}}

	rawRules, ok := spec["rules"]
	if !ok || rawRules == nil {
		return group, nil
	}

	children, ok := rawRules.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w at %s: rules must be a list, got %T", ErrMalformedRule, path, rawRules)
	}

	for i, child := range children {
		childPath := fmt.Sprintf("%s.rules[%d]", path, i)
		childSpec, ok := child.(map[string]interface{})
		if !ok || len(childSpec) == 0 {
			return nil, fmt.Errorf("%w at %s: rule must be a non-empty object", ErrMalformedRule, childPath)
		}

		rule, err := parseNode(childSpec, childPath)
		if err != nil {
			return nil, err
		}
		group.Rules = append(group.Rules, rule)
	}

	return group, nil
}

func parseOperator(spec map[string]interface{}, path string) (Rule, error) {
	for _, key := range []string{"field", "type", "operator", "value"} {
		if _, ok := spec[key]; !ok {
			return nil, fmt.Errorf("%w at %s: missing %q", ErrMalformedRule, path, key)
		}
	}

	field, err := stringKey(spec, "field", path)
	if err != nil {
		return nil, err
	}
	typ, err := stringKey(spec, "type", path)
	if err != nil {
		return nil, err
	}
	operator, err := stringKey(spec, "operator", path)
	if err != nil {
		return nil, err
	}

	return &OperatorRule{
		Field:    field,
		Type:     FieldType(strings.ToLower(typ)),
		Operator: operator,
		Value:    spec["value"],
	}, nil
}

func stringKey(spec map[string]interface{}, key, path string) (string, error) {
	s, ok := spec[key].(string)
	if !ok {
		return "", fmt.Errorf("%w at %s: %q must be a string, got %T", ErrMalformedRule, path, key, spec[key])
	}
	return s, nil
}

package query

import (
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

func jsonOperators() map[string]operatorFunc {
	return map[string]operatorFunc{
		"key_equal": func(x string, y interface{}) bool {
			return jsonHasKey(x, literalText(y))
		},
		"key_not_equal": func(x string, y interface{}) bool {
			return !jsonHasKey(x, literalText(y))
		},
		"value_equal": func(x string, y interface{}) bool {
			return jsonHasLeaf(x, literalText(y))
		},
		"value_not_equal": func(x string, y interface{}) bool {
			return !jsonHasLeaf(x, literalText(y))
		},
		"jpath": func(x string, y interface{}) bool {
			return jsonPathMatches(x, literalText(y))
		},
	}
}

// jsonPath turns a dotted key ("a.b.c") into a JSONPath; paths starting with $ pass through
func jsonPath(key string) (jp.Expr, error) {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "$") {
		key = "$." + key
	}
	return jp.ParseString(key)
}

// jsonHasKey reports whether at least one value is reachable at key
func jsonHasKey(doc, key string) bool {
	data, err := oj.ParseString(doc)
	if err != nil {
		return false
	}
	path, err := jsonPath(key)
	if err != nil {
		return false
	}
	return len(path.Get(data)) > 0
}

// jsonHasLeaf reports whether want is among the document's leaf values
func jsonHasLeaf(doc, want string) bool {
	data, err := oj.ParseString(doc)
	if err != nil {
		return false
	}
	for _, leaf := range jsonLeaves(data, nil) {
		if literalText(leaf) == want {
			return true
		}
	}
	return false
}

// jsonLeaves flattens objects and arrays into their scalar values
func jsonLeaves(v interface{}, acc []interface{}) []interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for _, child := range val {
			acc = jsonLeaves(child, acc)
		}
	case []interface{}:
		for _, child := range val {
			acc = jsonLeaves(child, acc)
		}
	default:
		acc = append(acc, val)
	}
	return acc
}

// jsonPathMatches evaluates "<path>=<expected>": true when any path result renders as expected.
// The split happens at the last '=' so filter expressions may use == inside the path.
func jsonPathMatches(doc, query string) bool {
	sep := strings.LastIndex(query, "=")
	if sep <= 0 {
		return false
	}
	expr, expected := query[:sep], query[sep+1:]

	data, err := oj.ParseString(doc)
	if err != nil {
		return false
	}
	path, err := jsonPath(expr)
	if err != nil {
		return false
	}

	for _, result := range path.Get(data) {
		switch result.(type) {
		case map[string]interface{}, []interface{}:
			if oj.JSON(result) == expected {
				return true
			}
		default:
			if literalText(result) == expected {
				return true
			}
		}
	}
	return false
}

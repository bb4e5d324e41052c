// Package query filters, groups and aggregates tabular records.
//
// The package has two halves that share one data model: a Row is a slice of
// text cells and a ColumnIndex maps column names to positions.
//
//   - The rule evaluator builds a boolean tree (GroupRule / OperatorRule) from a
//     declarative JSON rule document and evaluates it row by row.
//   - The group aggregator regroups the surviving rows by a composite key,
//     reduces them with one projection strategy and optionally sorts the result.
//
// # Rule Documents
//
// A rule document is either empty (every row passes), a group:
//
//	{"condition": "AND", "rules": [ ... ]}
//
// or an operator rule:
//
//	{"field": "lineItem/UnblendedCost", "type": "number", "operator": "greater", "value": 10}
//
// Build a filter and apply it:
//
//	filter, err := query.NewFilterJSON(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	candidates, err := query.ApplyFilter(rows, columns, filter)
//
// # Operators
//
// string: equal, not_equal, begins_with, not_begins_with, ends_with,
// not_ends_with, contains, not_contains, is_empty, is_not_empty
//
// number and date: equal, not_equal, less, less_or_equal, greater,
// greater_or_equal, between, not_between (value is a [lo, hi] array)
//
// json: key_equal, key_not_equal, value_equal, value_not_equal, jpath
// (value is "<path>=<expected>")
//
// A field missing from a row never matches. An operator the type does not
// define fails the evaluation with ErrInvalidOperator.
//
// # Grouping and Projection
//
//	actions, err := query.NewActions(query.ActionsSpec{
//	    GroupBy:    []string{"lineItem/UsageAccountId"},
//	    SortBy:     "sum_lineItem/UnblendedCost",
//	    Projection: &query.ProjectionSpec{Type: "sum", Property: "lineItem/UnblendedCost"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := actions.Process(query.Table{Columns: columns, Rows: records})
//
// Projections: sum, average, distinct, count, min, max and default. Sorting
// orders by the post-projection column and then reverses the rows, so results
// come out in descending order.
package query

package facade

import (
	"fmt"
	"reflect"
)

// --------------------------------------------------------------------------
// Query Types
// --------------------------------------------------------------------------

// FilterOp names a comparison operator in a query filter.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpNeq FilterOp = "neq"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
)

// Filter compares one document field against a value.
type Filter struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value"`
}

// Query describes an in-process scan over one collection. Filters are
// conjunctive. A zero Limit means no limit.
//
// Queries run after a full collection scan without index pushdown; this is
// a documented scalability limit, acceptable only for small collections.
type Query struct {
	Filters []Filter `json:"filters"`
	Limit   int      `json:"limit"`
}

// QueryResult carries the matching documents. Total counts all matches
// before the limit was applied.
type QueryResult struct {
	Items []Document `json:"items"`
	Total int        `json:"total"`
}

// validate rejects malformed queries before any backend work happens.
func (q Query) validate() *Error {
	if q.Limit < 0 {
		return NewError(RetCValidation, fmt.Sprintf("limit must not be negative, got %d", q.Limit))
	}
	for i, f := range q.Filters {
		if f.Field == "" {
			return NewError(RetCValidation, fmt.Sprintf("filter %d: field must not be empty", i))
		}
		switch f.Op {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		default:
			return NewError(RetCValidation, fmt.Sprintf("filter %d: unknown operator %q", i, f.Op))
		}
	}
	return nil
}

// matches reports whether a document satisfies every filter.
func (q Query) matches(doc Document) bool {
	for _, f := range q.Filters {
		if !f.matches(doc) {
			return false
		}
	}
	return true
}

func (f Filter) matches(doc Document) bool {
	field, present := doc[f.Field]

	switch f.Op {
	case OpEq:
		return present && looseEqual(field, f.Value)
	case OpNeq:
		// a missing field is "not equal" by definition
		return !present || !looseEqual(field, f.Value)
	}

	// ordering operators: numbers compare numerically, strings
	// lexicographically; anything else never matches
	if !present {
		return false
	}
	if a, b, ok := bothNumbers(field, f.Value); ok {
		switch f.Op {
		case OpGt:
			return a > b
		case OpGte:
			return a >= b
		case OpLt:
			return a < b
		case OpLte:
			return a <= b
		}
	}
	if a, aOk := field.(string); aOk {
		if b, bOk := f.Value.(string); bOk {
			switch f.Op {
			case OpGt:
				return a > b
			case OpGte:
				return a >= b
			case OpLt:
				return a < b
			case OpLte:
				return a <= b
			}
		}
	}
	return false
}

// looseEqual compares values with numeric normalization, so a filter value
// of int 42 matches the float64 42 a JSON decode produces.
func looseEqual(a, b any) bool {
	if x, y, ok := bothNumbers(a, b); ok {
		return x == y
	}
	return reflect.DeepEqual(a, b)
}

// bothNumbers converts two values to float64 when both are numeric.
func bothNumbers(a, b any) (float64, float64, bool) {
	x, aOk := asNumber(a)
	y, bOk := asNumber(b)
	return x, y, aOk && bOk
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

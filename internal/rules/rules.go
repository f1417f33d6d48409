// Package rules evaluates boolean conditions against a flat record.
//
// Conditions are a closed expression tree (comparisons combined with
// and/or/not) serialized as JSON alongside the discount that carries them.
// There is no dynamic code execution: unknown fields simply fail the
// comparison they appear in.
package rules

import (
	"fmt"
	"strings"
)

type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

// Condition is one node of the expression tree. Exactly one of the
// combinator slices (All/Any/Not) or the comparison triple (Field/Op/Value)
// should be populated; a node with both is rejected by Validate.
type Condition struct {
	All []Condition `json:"all,omitempty"`
	Any []Condition `json:"any,omitempty"`
	Not *Condition  `json:"not,omitempty"`

	Field string      `json:"field,omitempty"`
	Op    Operator    `json:"op,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

// Record is the flat view of the entity a condition is evaluated against.
type Record map[string]interface{}

// Validate checks the tree is well-formed before it is persisted.
func (c Condition) Validate() error {
	combinators := 0
	if len(c.All) > 0 {
		combinators++
	}
	if len(c.Any) > 0 {
		combinators++
	}
	if c.Not != nil {
		combinators++
	}
	if combinators > 1 {
		return fmt.Errorf("condition mixes combinators")
	}
	if combinators == 1 {
		if c.Field != "" || c.Op != "" {
			return fmt.Errorf("condition mixes combinator and comparison")
		}
		for _, child := range c.All {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		for _, child := range c.Any {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		if c.Not != nil {
			return c.Not.Validate()
		}
		return nil
	}
	if strings.TrimSpace(c.Field) == "" {
		return fmt.Errorf("comparison requires a field")
	}
	switch c.Op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpContains:
		return nil
	default:
		return fmt.Errorf("unknown operator %q", c.Op)
	}
}

// Eval evaluates the condition against rec. Missing fields and type
// mismatches evaluate to false rather than erroring, so a malformed rule can
// never block pricing.
func (c Condition) Eval(rec Record) bool {
	switch {
	case len(c.All) > 0:
		for _, child := range c.All {
			if !child.Eval(rec) {
				return false
			}
		}
		return true
	case len(c.Any) > 0:
		for _, child := range c.Any {
			if child.Eval(rec) {
				return true
			}
		}
		return false
	case c.Not != nil:
		return !c.Not.Eval(rec)
	}

	val, ok := rec[c.Field]
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return equal(val, c.Value)
	case OpNe:
		return !equal(val, c.Value)
	case OpGt, OpGte, OpLt, OpLte:
		return compareNumeric(val, c.Value, c.Op)
	case OpIn:
		list, ok := c.Value.([]interface{})
		if !ok {
			return false
		}
		for _, item := range list {
			if equal(val, item) {
				return true
			}
		}
		return false
	case OpContains:
		list, ok := val.([]interface{})
		if !ok {
			return false
		}
		for _, item := range list {
			if equal(item, c.Value) {
				return true
			}
		}
		return false
	}
	return false
}

func equal(a, b interface{}) bool {
	if na, aok := toFloat(a); aok {
		if nb, bok := toFloat(b); bok {
			return na == nb
		}
		return false
	}
	return a == b
}

func compareNumeric(a, b interface{}, op Operator) bool {
	na, aok := toFloat(a)
	nb, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	switch op {
	case OpGt:
		return na > nb
	case OpGte:
		return na >= nb
	case OpLt:
		return na < nb
	case OpLte:
		return na <= nb
	}
	return false
}

// toFloat widens every numeric representation JSON decoding can produce.
func toFloat(v interface{}) (float64, bool) {
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
	}
	return 0, false
}

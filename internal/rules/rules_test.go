package rules

import (
	"encoding/json"
	"testing"
)

func TestEvalComparisons(t *testing.T) {
	rec := Record{
		"loyaltyTier":     "gold",
		"totalSpentCents": float64(250000),
		"visits":          12,
		"tags":            []interface{}{"vip", "newsletter"},
	}

	cases := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq match", Condition{Field: "loyaltyTier", Op: OpEq, Value: "gold"}, true},
		{"eq mismatch", Condition{Field: "loyaltyTier", Op: OpEq, Value: "silver"}, false},
		{"ne", Condition{Field: "loyaltyTier", Op: OpNe, Value: "silver"}, true},
		{"gte numeric", Condition{Field: "totalSpentCents", Op: OpGte, Value: 250000}, true},
		{"gt numeric false", Condition{Field: "totalSpentCents", Op: OpGt, Value: float64(250000)}, false},
		{"lt int field", Condition{Field: "visits", Op: OpLt, Value: float64(20)}, true},
		{"in", Condition{Field: "loyaltyTier", Op: OpIn, Value: []interface{}{"silver", "gold"}}, true},
		{"in miss", Condition{Field: "loyaltyTier", Op: OpIn, Value: []interface{}{"silver"}}, false},
		{"contains", Condition{Field: "tags", Op: OpContains, Value: "vip"}, true},
		{"contains miss", Condition{Field: "tags", Op: OpContains, Value: "staff"}, false},
		{"missing field", Condition{Field: "nope", Op: OpEq, Value: 1}, false},
		{"type mismatch", Condition{Field: "loyaltyTier", Op: OpGt, Value: 5}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cond.Eval(rec); got != tc.want {
				t.Fatalf("Eval = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvalCombinators(t *testing.T) {
	rec := Record{"tier": "gold", "visits": float64(3)}

	all := Condition{All: []Condition{
		{Field: "tier", Op: OpEq, Value: "gold"},
		{Field: "visits", Op: OpGte, Value: float64(3)},
	}}
	if !all.Eval(rec) {
		t.Fatalf("expected all-of to hold")
	}

	any := Condition{Any: []Condition{
		{Field: "tier", Op: OpEq, Value: "silver"},
		{Field: "visits", Op: OpGte, Value: float64(100)},
	}}
	if any.Eval(rec) {
		t.Fatalf("expected any-of to fail")
	}

	not := Condition{Not: &Condition{Field: "tier", Op: OpEq, Value: "silver"}}
	if !not.Eval(rec) {
		t.Fatalf("expected negation to hold")
	}
}

func TestValidate(t *testing.T) {
	good := Condition{All: []Condition{{Field: "tier", Op: OpEq, Value: "gold"}}}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Condition{
		{Field: "tier", Op: "like", Value: "g%"},
		{Op: OpEq, Value: 1},
		{All: []Condition{{Field: "a", Op: OpEq}}, Field: "tier", Op: OpEq},
		{All: []Condition{{Field: "tier", Op: "nope"}}},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestConditionJSONRoundTrip(t *testing.T) {
	src := `{"all":[{"field":"tier","op":"eq","value":"gold"},{"not":{"field":"visits","op":"lt","value":2}}]}`
	var cond Condition
	if err := json.Unmarshal([]byte(src), &cond); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := cond.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !cond.Eval(Record{"tier": "gold", "visits": float64(5)}) {
		t.Fatalf("expected decoded condition to hold")
	}
}

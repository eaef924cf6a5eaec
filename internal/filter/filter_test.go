package filter

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

func obj(st string, attrs map[string]any) *state.StateObject {
	return &state.StateObject{EntityID: "sensor.x", State: st, Attributes: attrs}
}

func TestEvaluateAbsentNeverMatches(t *testing.T) {
	if Evaluate(nil, Equals("on")) {
		t.Fatal("absent state object must not match")
	}
	if Evaluate(nil, Filter{Operator: OpNotEqual, Value: "on"}) {
		t.Fatal("absent state object must not match != either")
	}
}

func TestEvaluateOperators(t *testing.T) {
	tests := []struct {
		name string
		obj  *state.StateObject
		f    Filter
		want bool
	}{
		{"exact", obj("problem", nil), Equals("problem"), true},
		{"exact miss", obj("off", nil), Equals("problem"), false},
		{"numeric equality", obj("21.0", nil), Filter{Operator: OpEqual, Value: 21}, true},
		{"string vs number not numeric", obj("on", nil), Filter{Operator: OpEqual, Value: 1}, false},
		{"not equal", obj("off", nil), Filter{Operator: OpNotEqual, Value: "on"}, true},
		{"greater numeric", obj("25", nil), Filter{Operator: OpGreater, Value: 20}, true},
		{"greater numeric miss", obj("15", nil), Filter{Operator: OpGreater, Value: 20}, false},
		{"less equal", obj("20", nil), Filter{Operator: OpLessEqual, Value: 20}, true},
		{"lexical strings", obj("b", nil), Filter{Operator: OpGreaterEqual, Value: "a"}, true},
		{"non numeric compare", obj("unknown", nil), Filter{Operator: OpLess, Value: 5}, false},
		{"in list", obj("heat", nil), Filter{Operator: OpIn, Value: []any{"heat", "cool"}}, true},
		{"in list miss", obj("off", nil), Filter{Operator: OpIn, Value: []any{"heat", "cool"}}, false},
		{"in string", obj("eat", nil), Filter{Operator: OpIn, Value: "heat"}, true},
		{"not in", obj("off", nil), Filter{Operator: OpNotIn, Value: []any{"heat", "cool"}}, true},
		{"not in bad value", obj("off", nil), Filter{Operator: OpNotIn, Value: 3}, false},
		{"regex", obj("door_open", nil), Filter{Operator: OpRegex, Value: "^door_"}, true},
		{"bad regex", obj("door_open", nil), Filter{Operator: OpRegex, Value: "("}, false},
		{"attribute", obj("on", map[string]any{"brightness": 200}), Filter{Operator: OpGreater, Value: 100, Attribute: "brightness"}, true},
		{"missing attribute", obj("on", nil), Filter{Operator: OpEqual, Value: "x", Attribute: "mode"}, false},
		{"regex on attribute map", obj("on", map[string]any{"rgb": map[string]any{"r": 255}}), Filter{Operator: OpRegex, Value: `"r":255`, Attribute: "rgb"}, true},
		{"unknown operator", obj("on", nil), Filter{Operator: "~", Value: "on"}, false},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.obj, tt.f); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestAny(t *testing.T) {
	filters := []Filter{Equals("on"), Equals("problem")}
	if !Any(obj("problem", nil), filters) {
		t.Fatal("expected problem to pass")
	}
	if Any(obj("off", nil), filters) {
		t.Fatal("expected off to fail")
	}
	if Any(obj("on", nil), nil) {
		t.Fatal("no filters must not pass")
	}
}

func TestUnmarshalYAML(t *testing.T) {
	src := `
- "on"
- 5
- operator: ">"
  value: 20
  attribute: temperature
- value: idle
`
	var got []Filter
	if err := yaml.Unmarshal([]byte(src), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 filters, got %d", len(got))
	}
	if got[0].Operator != OpEqual || got[0].Value != "on" {
		t.Fatalf("unexpected shorthand filter: %+v", got[0])
	}
	if got[1].Value != 5 {
		t.Fatalf("expected numeric value 5, got %#v", got[1].Value)
	}
	if got[2].Operator != OpGreater || got[2].Attribute != "temperature" {
		t.Fatalf("unexpected mapping filter: %+v", got[2])
	}
	if got[3].Operator != OpEqual {
		t.Fatalf("expected default operator, got %q", got[3].Operator)
	}
}

func TestUnmarshalYAMLRejectsSequence(t *testing.T) {
	var got []Filter
	if err := yaml.Unmarshal([]byte(`- [a, b]`), &got); err == nil {
		t.Fatal("expected error for nested sequence")
	}
}

package filter

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// #region operator
// Operator names a state filter comparison.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpIn           Operator = "in"
	OpNotIn        Operator = "not in"
	OpRegex        Operator = "regex"
)

// #endregion operator

// #region filter
// Filter is one acceptable-value predicate of a state_filter list.
// A bare scalar in configuration is shorthand for {operator: "==", value: scalar}.
type Filter struct {
	Operator  Operator `yaml:"operator,omitempty" validate:"omitempty,oneof='==' '!=' '<' '<=' '>' '>=' 'in' 'not in' 'regex'"`
	Value     any      `yaml:"value"`
	Attribute string   `yaml:"attribute,omitempty"`
}

// Equals is the shorthand filter matching one raw state value.
func Equals(value string) Filter {
	return Filter{Operator: OpEqual, Value: value}
}

// UnmarshalYAML accepts either a scalar or a {operator, value, attribute} mapping.
func (f *Filter) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("decode filter value: %w", err)
		}
		*f = Filter{Operator: OpEqual, Value: v}
		return nil
	case yaml.MappingNode:
		type plain Filter
		var p plain
		if err := node.Decode(&p); err != nil {
			return fmt.Errorf("decode filter: %w", err)
		}
		if p.Operator == "" {
			p.Operator = OpEqual
		}
		*f = Filter(p)
		return nil
	default:
		return fmt.Errorf("line %d: state_filter entry must be a value or a mapping", node.Line)
	}
}

// #endregion filter

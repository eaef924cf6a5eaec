package condition

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/entity-filter/internal/filter"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region kind
// Kind is the closed set of condition variants.
type Kind string

const (
	KindState        Kind = "state"
	KindNumericState Kind = "numeric_state"
	KindTime         Kind = "time"
	KindSun          Kind = "sun"
	KindScreen       Kind = "screen"
	KindUser         Kind = "user"
	KindAnd          Kind = "and"
	KindOr           Kind = "or"
	KindNot          Kind = "not"
	KindStateFilter  Kind = "state_filter"
)

// Kinds lists every variant, in dispatch order.
var Kinds = []Kind{
	KindState, KindNumericState, KindTime, KindSun, KindScreen,
	KindUser, KindAnd, KindOr, KindNot, KindStateFilter,
}

// Valid reports whether k is a member of the variant set.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsEntityScoped reports whether leaves of this kind test one entity's state.
func (k Kind) IsEntityScoped() bool {
	return k == KindState || k == KindNumericState || k == KindStateFilter
}

// #endregion kind

// #region condition
// Condition is one node of a condition tree. Which fields apply depends on Kind:
//
//	state          Entity, State | StateNot
//	numeric_state  Entity, Above, Below
//	time           After, Before (HH:MM[:SS]), Weekdays
//	sun            After, Before (sunrise|sunset), Entity (defaults to sun.sun)
//	screen         MediaQuery
//	user           Users
//	and, or, not   Conditions
//	state_filter   Entity, Filters
type Condition struct {
	Kind       Kind            `yaml:"condition"`
	Entity     string          `yaml:"entity,omitempty" validate:"omitempty,entity_id"`
	State      StringList      `yaml:"state,omitempty"`
	StateNot   StringList      `yaml:"state_not,omitempty"`
	Above      *Operand        `yaml:"above,omitempty"`
	Below      *Operand        `yaml:"below,omitempty"`
	After      string          `yaml:"after,omitempty"`
	Before     string          `yaml:"before,omitempty"`
	Weekdays   []string        `yaml:"weekdays,omitempty" validate:"dive,oneof=mon tue wed thu fri sat sun"`
	MediaQuery string          `yaml:"media_query,omitempty"`
	Users      []string        `yaml:"users,omitempty"`
	Conditions []Condition     `yaml:"conditions,omitempty" validate:"dive"`
	Filters    []filter.Filter `yaml:"state_filter,omitempty" validate:"dive"`
}

// UnmarshalYAML decodes a condition, treating mappings without a condition key
// as state conditions.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: condition must be a mapping", node.Line)
	}
	type plain Condition
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Kind == "" {
		p.Kind = KindState
	}
	*c = Condition(p)
	return nil
}

// #endregion condition

// #region string-list
// StringList is a list of strings that also accepts a single scalar.
// A nil StringList means the key was absent.
type StringList []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar", item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a value or a list", node.Line)
	}
}

// #endregion string-list

// #region operand
// Operand is a numeric bound given either as a number or as the id of an
// entity whose state supplies the number.
type Operand struct {
	Number   *float64
	EntityID string
	Raw      string
}

// Num builds a literal numeric operand.
func Num(v float64) *Operand {
	return &Operand{Number: &v, Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Ref builds an operand resolved from another entity's state.
func Ref(entityID string) *Operand {
	return &Operand{EntityID: entityID, Raw: entityID}
}

// UnmarshalYAML decodes a number or an entity id.
func (o *Operand) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: bound must be a number or an entity id", node.Line)
	}
	raw := strings.TrimSpace(node.Value)
	*o = Operand{Raw: raw}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		o.Number = &f
		return nil
	}
	if state.IsValidEntityID(raw) {
		o.EntityID = raw
	}
	return nil
}

// MarshalYAML writes the operand back in its configured form.
func (o Operand) MarshalYAML() (interface{}, error) {
	if o.Number != nil {
		return *o.Number, nil
	}
	return o.Raw, nil
}

// #endregion operand

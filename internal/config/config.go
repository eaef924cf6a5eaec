package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/entity-filter/internal/condition"
	"github.com/danielpatrickdp/entity-filter/internal/filter"
)

// BadgeType is the type name of the entity filter badge.
const BadgeType = "entity-filter"

// #region entity-config
// EntityConfig is one entry of the entities list. A bare string entry is
// shorthand for {entity: <string>}. Keys other than entity, state_filter and
// conditions are passed through to the rendered child untouched.
type EntityConfig struct {
	Entity      string                `yaml:"entity" validate:"required,entity_id"`
	StateFilter []filter.Filter       `yaml:"state_filter,omitempty" validate:"omitempty,dive"`
	Conditions  []condition.Condition `yaml:"conditions,omitempty" validate:"omitempty,dive"`
	Extra       map[string]any        `yaml:"-"`
}

// UnmarshalYAML decodes the shorthand and mapping forms. A present but empty
// state_filter or conditions list is kept non-nil.
func (e *EntityConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*e = EntityConfig{Entity: node.Value}
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: entity entry must be an id or a mapping", node.Line)
	}

	out := EntityConfig{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "entity":
			out.Entity = val.Value
		case "state_filter":
			if val.Kind != yaml.SequenceNode {
				return fmt.Errorf("line %d: state_filter must be a list", val.Line)
			}
			out.StateFilter = make([]filter.Filter, 0, len(val.Content))
			if err := val.Decode(&out.StateFilter); err != nil {
				return err
			}
		case "conditions":
			if val.Kind != yaml.SequenceNode {
				return fmt.Errorf("line %d: conditions must be a list", val.Line)
			}
			out.Conditions = make([]condition.Condition, 0, len(val.Content))
			if err := val.Decode(&out.Conditions); err != nil {
				return err
			}
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return err
			}
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra[key] = v
		}
	}
	*e = out
	return nil
}

// HasFilteringMode reports whether the entry carries its own conditions or state filter.
func (e EntityConfig) HasFilteringMode() bool {
	return e.Conditions != nil || e.StateFilter != nil
}

// #endregion entity-config

// #region badge-config
// BadgeConfig is the configuration of one entity filter badge.
type BadgeConfig struct {
	Type        string                `yaml:"type,omitempty"`
	Entities    []EntityConfig        `yaml:"entities" validate:"dive"`
	StateFilter []filter.Filter       `yaml:"state_filter,omitempty" validate:"omitempty,dive"`
	Conditions  []condition.Condition `yaml:"conditions,omitempty" validate:"omitempty,dive"`

	// shape problems found while decoding, reported by Validate
	entitiesNotList   bool
	filterNotList     bool
	conditionsNotList bool
}

// UnmarshalYAML decodes a badge mapping. Wrongly shaped lists are recorded
// rather than failing, so intake reports them as configuration errors.
func (c *BadgeConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: badge config must be a mapping", node.Line)
	}
	out := BadgeConfig{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "type":
			out.Type = val.Value
		case "entities":
			if val.Kind != yaml.SequenceNode {
				out.entitiesNotList = true
				continue
			}
			if err := val.Decode(&out.Entities); err != nil {
				return err
			}
		case "state_filter":
			if val.Kind != yaml.SequenceNode {
				out.filterNotList = true
				continue
			}
			out.StateFilter = make([]filter.Filter, 0, len(val.Content))
			if err := val.Decode(&out.StateFilter); err != nil {
				return err
			}
		case "conditions":
			if val.Kind != yaml.SequenceNode {
				out.conditionsNotList = true
				continue
			}
			out.Conditions = make([]condition.Condition, 0, len(val.Content))
			if err := val.Decode(&out.Conditions); err != nil {
				return err
			}
		}
	}
	*c = out
	return nil
}

// #endregion badge-config

// #region parse
// Parse decodes and validates a badge configuration document.
func Parse(data []byte) (*BadgeConfig, error) {
	var cfg BadgeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("decode badge config: %w", err)}
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a badge configuration file.
func Load(path string) (*BadgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// #endregion parse

// #region badge-file
// BadgeEntry names one badge of a dashboard file.
type BadgeEntry struct {
	ID     string      `yaml:"id"`
	Config BadgeConfig `yaml:"config"`
}

// BadgeFile is a dashboard file listing several badges.
type BadgeFile struct {
	Badges []BadgeEntry `yaml:"badges"`
}

// LoadFile reads a dashboard file. Badge configs are validated individually by
// the engine when applied.
func LoadFile(path string) (*BadgeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge file %s: %w", path, err)
	}
	var f BadgeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("decode badge file %s: %w", path, err)}
	}
	return &f, nil
}

// #endregion badge-file

package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/danielpatrickdp/entity-filter/internal/condition"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("entity_id", func(fl validator.FieldLevel) bool {
		return state.IsValidEntityID(fl.Field().String())
	})
	v.RegisterStructValidation(validateCondition, condition.Condition{})
	return v
}

// #region validate
// Validate checks a badge configuration in intake order: entities first, then
// the presence of a filtering mode, then the shape of every field. It returns
// a *ConfigurationError or nil.
func Validate(cfg *BadgeConfig) error {
	// 1. entities must be a non-empty list
	if cfg == nil || cfg.entitiesNotList || len(cfg.Entities) == 0 {
		return &ConfigurationError{Err: ErrNoEntities}
	}

	// 2. some filtering mode must exist, top-level or on an entry
	topLevel := (cfg.Conditions != nil && !cfg.conditionsNotList) ||
		(cfg.StateFilter != nil && !cfg.filterNotList)
	if !topLevel {
		perEntity := false
		for _, e := range cfg.Entities {
			if e.HasFilteringMode() {
				perEntity = true
				break
			}
		}
		if !perEntity {
			return &ConfigurationError{Err: ErrIncorrectFilter}
		}
	}

	// 3. structural checks
	if err := validate.Struct(cfg); err != nil {
		return toConfigurationError(err)
	}
	return nil
}

// #endregion validate

// #region condition-rules
// validateCondition enforces the per-kind field rules of the condition variant set.
func validateCondition(sl validator.StructLevel) {
	c := sl.Current().Interface().(condition.Condition)

	if !c.Kind.Valid() {
		sl.ReportError(c.Kind, "Kind", "condition", "condition_kind", string(c.Kind))
		return
	}

	switch c.Kind {
	case condition.KindTime:
		for field, v := range map[string]string{"After": c.After, "Before": c.Before} {
			if v == "" {
				continue
			}
			if _, err := condition.ParseClock(v); err != nil {
				sl.ReportError(v, field, field, "clock", v)
			}
		}
	case condition.KindSun:
		for field, v := range map[string]string{"After": c.After, "Before": c.Before} {
			if v != "" && v != "sunrise" && v != "sunset" {
				sl.ReportError(v, field, field, "sun_edge", v)
			}
		}
	case condition.KindScreen:
		if c.MediaQuery == "" {
			sl.ReportError(c.MediaQuery, "MediaQuery", "media_query", "required", "")
		}
	case condition.KindNumericState:
		if c.Above == nil && c.Below == nil {
			sl.ReportError(c.Above, "Above", "above", "above_or_below", "")
		}
	}
}

// #endregion condition-rules

// #region errors
func toConfigurationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ConfigurationError{Err: fmt.Errorf("validate: %w", err)}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return &ConfigurationError{Err: ErrInvalidField, Fields: fields}
}

// #endregion errors

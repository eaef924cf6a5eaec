package config

import (
	"errors"
	"strings"
)

// #region sentinels
var (
	// ErrNoEntities is reported when entities is missing, empty or not a list.
	ErrNoEntities = errors.New("entities must be specified")
	// ErrIncorrectFilter is reported when no entry can be filtered.
	ErrIncorrectFilter = errors.New("incorrect filter config")
	// ErrInvalidField is reported when a field fails structural validation.
	ErrInvalidField = errors.New("invalid field")
)

// #endregion sentinels

// #region configuration-error
// ConfigurationError is the only error the badge engine returns. It is raised
// at configuration intake, before any engine state is touched.
type ConfigurationError struct {
	Err    error    // one of the sentinels above, or a decode error
	Fields []string // offending fields, for ErrInvalidField
}

func (e *ConfigurationError) Error() string {
	if len(e.Fields) == 0 {
		return "configuration error: " + e.Err.Error()
	}
	return "configuration error: " + e.Err.Error() + ": " + strings.Join(e.Fields, "; ")
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// #endregion configuration-error

package condition

import (
	"strconv"
	"strings"

	"github.com/danielpatrickdp/entity-filter/internal/filter"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region evaluate
// Evaluate reports whether c holds against h. It never fails: a leaf whose
// entity has no state object evaluates false.
func Evaluate(c Condition, h *state.Hass) bool {
	switch c.Kind {
	case KindState:
		return checkState(c, h)
	case KindNumericState:
		return checkNumericState(c, h)
	case KindTime:
		return checkTime(c, h)
	case KindSun:
		return checkSun(c, h)
	case KindScreen:
		return checkScreen(c, h)
	case KindUser:
		return checkUser(c, h)
	case KindAnd:
		return CheckAll(c.Conditions, h)
	case KindOr:
		return checkAny(c.Conditions, h)
	case KindNot:
		return !CheckAll(c.Conditions, h)
	case KindStateFilter:
		return filter.Any(states(h).Get(c.Entity), c.Filters)
	default:
		return false
	}
}

// CheckAll reports whether every condition holds, stopping at the first false one.
func CheckAll(conds []Condition, h *state.Hass) bool {
	for _, c := range conds {
		if !Evaluate(c, h) {
			return false
		}
	}
	return true
}

// checkAny stops at the first true condition. An empty list holds.
func checkAny(conds []Condition, h *state.Hass) bool {
	if len(conds) == 0 {
		return true
	}
	for _, c := range conds {
		if Evaluate(c, h) {
			return true
		}
	}
	return false
}

// #endregion evaluate

// #region leaves
func states(h *state.Hass) state.Snapshot {
	if h == nil {
		return nil
	}
	return h.States
}

func checkState(c Condition, h *state.Hass) bool {
	obj := states(h).Get(c.Entity)
	if obj == nil {
		return false
	}
	switch {
	case c.State != nil:
		return acceptedValues(c.State, h)[obj.State]
	case c.StateNot != nil:
		return !acceptedValues(c.StateNot, h)[obj.State]
	default:
		return false
	}
}

// acceptedValues expands the configured values with the current state of any
// value that names an existing entity.
func acceptedValues(values StringList, h *state.Hass) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
		if state.IsValidEntityID(v) {
			if ref := states(h).Get(v); ref != nil {
				out[ref.State] = true
			}
		}
	}
	return out
}

func checkNumericState(c Condition, h *state.Hass) bool {
	obj := states(h).Get(c.Entity)
	if obj == nil {
		return false
	}
	value, ok := parseNumber(obj.State)
	if !ok {
		return false
	}
	if above, ok := resolveOperand(c.Above, h); ok && !(above < value) {
		return false
	}
	if below, ok := resolveOperand(c.Below, h); ok && !(below > value) {
		return false
	}
	return true
}

// resolveOperand returns the bound's numeric value. ok is false when the bound
// is absent or not numeric, in which case it does not constrain.
func resolveOperand(o *Operand, h *state.Hass) (float64, bool) {
	if o == nil {
		return 0, false
	}
	if o.Number != nil {
		return *o.Number, true
	}
	if o.EntityID != "" {
		if ref := states(h).Get(o.EntityID); ref != nil {
			return parseNumber(ref.State)
		}
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func checkUser(c Condition, h *state.Hass) bool {
	if h == nil || h.User == nil || h.User.ID == "" {
		return false
	}
	for _, id := range c.Users {
		if id == h.User.ID {
			return true
		}
	}
	return false
}

// #endregion leaves

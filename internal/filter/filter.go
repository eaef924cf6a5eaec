package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region evaluate
// Evaluate reports whether obj satisfies f. An absent state object never matches.
func Evaluate(obj *state.StateObject, f Filter) bool {
	if obj == nil {
		return false
	}

	var subject any = obj.State
	if f.Attribute != "" {
		subject, _ = obj.Attr(f.Attribute)
	}
	value := f.Value

	op := f.Operator
	if op == "" {
		op = OpEqual
	}

	// Equality on two numeric operands compares numbers, so "21.0" == 21.
	if op == OpEqual || op == OpNotEqual {
		if vn, ok := asNumber(value); ok {
			if sn, ok := asNumber(subject); ok {
				value, subject = vn, sn
			}
		}
	}

	switch op {
	case OpEqual:
		return strictEqual(subject, value)
	case OpNotEqual:
		return !strictEqual(subject, value)
	case OpLess:
		c, ok := compare(subject, value)
		return ok && c < 0
	case OpLessEqual:
		c, ok := compare(subject, value)
		return ok && c <= 0
	case OpGreater:
		c, ok := compare(subject, value)
		return ok && c > 0
	case OpGreaterEqual:
		c, ok := compare(subject, value)
		return ok && c >= 0
	case OpIn:
		in, ok := contains(value, subject)
		return ok && in
	case OpNotIn:
		in, ok := contains(value, subject)
		return ok && !in
	case OpRegex:
		return matches(value, subject)
	default:
		return false
	}
}

// Any reports whether obj satisfies at least one filter.
func Any(obj *state.StateObject, filters []Filter) bool {
	for _, f := range filters {
		if Evaluate(obj, f) {
			return true
		}
	}
	return false
}

// #endregion evaluate

// #region helpers
// asNumber converts numbers and numeric strings. Booleans and blank strings are not numeric.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func normalize(v any) any {
	switch v.(type) {
	case float32, int, int64, int32, uint64:
		f, _ := asNumber(v)
		return f
	}
	return v
}

// strictEqual compares scalars of the same kind. Composite values never compare equal.
func strictEqual(a, b any) bool {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

// compare orders two strings lexically, anything else numerically.
func compare(a, b any) (int, bool) {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs), true
	}
	an, ok := asNumber(a)
	if !ok {
		return 0, false
	}
	bn, ok := asNumber(b)
	if !ok {
		return 0, false
	}
	switch {
	case an < bn:
		return -1, true
	case an > bn:
		return 1, true
	default:
		return 0, true
	}
}

// contains tests membership in a list or substring containment in a string.
// ok is false when value is neither.
func contains(value, subject any) (in bool, ok bool) {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if strictEqual(item, subject) {
				return true, true
			}
		}
		return false, true
	case []string:
		for _, item := range v {
			if strictEqual(item, subject) {
				return true, true
			}
		}
		return false, true
	case string:
		return strings.Contains(v, fmt.Sprint(subject)), true
	default:
		return false, false
	}
}

var patterns sync.Map

func matches(value, subject any) bool {
	pattern, ok := value.(string)
	if !ok {
		return false
	}
	var re *regexp.Regexp
	if cached, ok := patterns.Load(pattern); ok {
		re = cached.(*regexp.Regexp)
	} else {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		patterns.Store(pattern, compiled)
		re = compiled
	}

	var text string
	switch s := subject.(type) {
	case nil:
		return false
	case string:
		text = s
	case map[string]any, []any:
		b, err := json.Marshal(s)
		if err != nil {
			return false
		}
		text = string(b)
	default:
		text = fmt.Sprint(s)
	}
	return re.MatchString(text)
}

// #endregion helpers

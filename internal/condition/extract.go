package condition

import "github.com/danielpatrickdp/entity-filter/internal/state"

// #region extract
// EntityIDs returns every entity id the conditions depend on, in first-seen
// order without duplicates. Every leaf is visited regardless of combinator, so
// the result does not depend on what the tree currently evaluates to.
func EntityIDs(conds []Condition) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, c := range conds {
		collect(c, add)
	}
	return out
}

func collect(c Condition, add func(string)) {
	switch c.Kind {
	case KindState:
		add(c.Entity)
		for _, v := range c.State {
			if state.IsValidEntityID(v) {
				add(v)
			}
		}
		for _, v := range c.StateNot {
			if state.IsValidEntityID(v) {
				add(v)
			}
		}
	case KindNumericState:
		add(c.Entity)
		if c.Above != nil {
			add(c.Above.EntityID)
		}
		if c.Below != nil {
			add(c.Below.EntityID)
		}
	case KindSun:
		add(sunEntity(c))
	case KindStateFilter:
		add(c.Entity)
	case KindAnd, KindOr, KindNot:
		for _, child := range c.Conditions {
			collect(child, add)
		}
	}
}

// #endregion extract

// #region with-entity
// WithEntity returns a copy of c in which entity-scoped leaves lacking an
// entity reference entityID. Leaves naming their own entity are kept. The
// input tree is not modified.
func WithEntity(c Condition, entityID string) Condition {
	if len(c.Conditions) > 0 {
		children := make([]Condition, len(c.Conditions))
		for i, child := range c.Conditions {
			children[i] = WithEntity(child, entityID)
		}
		c.Conditions = children
		return c
	}
	if c.Kind.IsEntityScoped() && c.Entity == "" {
		c.Entity = entityID
	}
	return c
}

// WithEntityAll applies WithEntity to each condition.
func WithEntityAll(conds []Condition, entityID string) []Condition {
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = WithEntity(c, entityID)
	}
	return out
}

// #endregion with-entity

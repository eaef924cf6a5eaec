package gate

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/entity-filter/internal/condition"
	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/locale"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region watch-set
// WatchSet returns the entity ids whose changes can alter the badge output:
// every configured entity plus every entity referenced by an entry-level or
// top-level condition. First-seen order, no duplicates.
func WatchSet(cfg *config.BadgeConfig) []string {
	if cfg == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	add := func(ids ...string) {
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, e := range cfg.Entities {
		add(e.Entity)
		add(condition.EntityIDs(e.Conditions)...)
	}
	add(condition.EntityIDs(cfg.Conditions)...)
	return out
}

// #endregion watch-set

// #region gate
// Gate decides whether a new snapshot requires recomputing the derived list.
// It keeps the state object last observed for each watched entity, aligned
// with the watch set, plus the last locale context.
type Gate struct {
	config GateConfig
	watch  []string
	refs   []*state.StateObject
	locale *locale.Locale
	primed bool
}

// NewGate creates a gate over a fixed watch set.
func NewGate(watch []string, config GateConfig) *Gate {
	return &Gate{
		config: config,
		watch:  watch,
		refs:   make([]*state.StateObject, len(watch)),
	}
}

// Watch returns the watch set. Callers must not modify it.
func (g *Gate) Watch() []string {
	return g.watch
}

// Reset forgets every observation, so the next check reports a change.
func (g *Gate) Reset() {
	for i := range g.refs {
		g.refs[i] = nil
	}
	g.locale = nil
	g.primed = false
}

// Check compares h against the previous observation and then records h as
// the new observation, whatever the outcome. Cost is one comparison per
// watched entity, independent of the total number of platform entities.
func (g *Gate) Check(h *state.Hass) GateDecision {
	var states state.Snapshot
	var loc *locale.Locale
	if h != nil {
		states, loc = h.States, h.Locale
	}

	first := !g.primed
	localeChanged := g.primed && loc != g.locale

	var changed []string
	for i, id := range g.watch {
		cur := states.Get(id)
		if !first && !g.same(g.refs[i], cur) {
			changed = append(changed, id)
		}
		g.refs[i] = cur
	}
	g.locale = loc
	g.primed = true

	switch {
	case first:
		return GateDecision{Action: ActionRecompute, Reason: "no previous observation"}
	case localeChanged:
		return GateDecision{Action: ActionRecompute, Reason: "locale changed", Changed: changed, LocaleChanged: true}
	case len(changed) > 0:
		return GateDecision{
			Action:  ActionRecompute,
			Reason:  fmt.Sprintf("%d watched entities changed: %s", len(changed), strings.Join(changed, ",")),
			Changed: changed,
		}
	default:
		return GateDecision{Action: ActionSkip, Reason: "no watched entity changed"}
	}
}

func (g *Gate) same(prev, cur *state.StateObject) bool {
	if g.config.Compare == CompareStructural {
		return state.Equal(prev, cur)
	}
	return prev == cur
}

// #endregion gate

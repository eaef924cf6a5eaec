package derive

import (
	"github.com/danielpatrickdp/entity-filter/internal/condition"
	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/filter"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region build
// Build computes the derived list: the configured entries that are visible
// under h, in configuration order, duplicates kept. It is a pure function of
// its inputs.
func Build(cfg *config.BadgeConfig, h *state.Hass) []Entry {
	if cfg == nil {
		return nil
	}
	var states state.Snapshot
	if h != nil {
		states = h.States
	}

	var out []Entry
	for i, e := range cfg.Entities {
		obj := states.Get(e.Entity)
		if obj == nil {
			continue
		}
		if visible, _ := Visible(cfg, e, obj, h); visible {
			out = append(out, Entry{Index: i, Config: e, Object: obj})
		}
	}
	return out
}

// Visible applies the first filtering rule present for e: its own conditions,
// the badge conditions, its own state filter, the badge state filter. The
// chosen rule replaces the others entirely. The returned mode names it.
func Visible(cfg *config.BadgeConfig, e config.EntityConfig, obj *state.StateObject, h *state.Hass) (bool, Mode) {
	switch {
	case e.Conditions != nil:
		return condition.CheckAll(condition.WithEntityAll(e.Conditions, e.Entity), h), ModeEntryConditions
	case cfg.Conditions != nil:
		return condition.CheckAll(condition.WithEntityAll(cfg.Conditions, e.Entity), h), ModeConditions
	case e.StateFilter != nil:
		return filter.Any(obj, e.StateFilter), ModeEntryStateFilter
	case cfg.StateFilter != nil:
		return filter.Any(obj, cfg.StateFilter), ModeStateFilter
	default:
		return false, ModeNone
	}
}

// #endregion build

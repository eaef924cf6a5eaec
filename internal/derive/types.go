package derive

import (
	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region mode
// Mode names the rule that decided an entry's visibility.
type Mode string

const (
	ModeEntryConditions  Mode = "entry_conditions"
	ModeConditions       Mode = "conditions"
	ModeEntryStateFilter Mode = "entry_state_filter"
	ModeStateFilter      Mode = "state_filter"
	ModeNone             Mode = "none"
)

// #endregion mode

// #region entry
// Entry is one visible element of the derived list. Object is the state object
// the entry resolved to in the snapshot it was derived from.
type Entry struct {
	Index  int
	Config config.EntityConfig
	Object *state.StateObject
}

// EntityIDs returns the entity ids of a derived list, in order.
func EntityIDs(list []Entry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Config.Entity
	}
	return out
}

// #endregion entry

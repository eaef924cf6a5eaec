package state

import (
	"time"

	"github.com/danielpatrickdp/entity-filter/internal/locale"
)

// Unavailable is the state reported for entities the platform cannot reach.
const Unavailable = "unavailable"

// #region state-object
// StateObject is the value+attributes snapshot of one entity at a point in time.
// Published objects are never mutated; a changed entity gets a new *StateObject.
type StateObject struct {
	EntityID    string
	State       string
	Attributes  map[string]any
	LastChanged time.Time
	LastUpdated time.Time
	ContextID   string
}

// Attr returns the named attribute and whether it is present.
func (o *StateObject) Attr(name string) (any, bool) {
	if o == nil || o.Attributes == nil {
		return nil, false
	}
	v, ok := o.Attributes[name]
	return v, ok
}

// #endregion state-object

// #region snapshot
// Snapshot maps entity ids to their current state objects.
// Two snapshots hold the same pointer for an entity iff it did not change between them.
type Snapshot map[string]*StateObject

// Get returns the state object for id, or nil when the entity is absent.
func (s Snapshot) Get(id string) *StateObject {
	if s == nil {
		return nil
	}
	return s[id]
}

// #endregion snapshot

// #region hass
// User is the platform user the dashboard is rendered for.
type User struct {
	ID      string
	Name    string
	IsAdmin bool
}

// Screen describes the viewport the dashboard is rendered into.
type Screen struct {
	Width  int
	Height int
}

// Hass is the platform-wide context passed explicitly to every evaluation.
// A published Hass is read-only; hosts publish a new value for every batch.
type Hass struct {
	States   Snapshot
	Locale   *locale.Locale
	User     *User
	Screen   Screen
	Now      time.Time
	TimeZone *time.Location
}

// Location returns the time zone conditions are evaluated in.
func (h *Hass) Location() *time.Location {
	if h == nil || h.TimeZone == nil {
		return time.Local
	}
	return h.TimeZone
}

// #endregion hass

// #region change
// Change is one upstream entity update delivered by a feed.
type Change struct {
	EntityID   string         `json:"entity_id" yaml:"entity_id"`
	State      string         `json:"state,omitempty" yaml:"state,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Removed    bool           `json:"removed,omitempty" yaml:"removed,omitempty"`
}

// Batch groups the changes the host coalesced into one publication.
type Batch struct {
	ID      string
	At      time.Time
	Changes []Change
}

// #endregion change

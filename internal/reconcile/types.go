package reconcile

import (
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// DefaultKind is the display shape given to a child whose entry does not name one.
const DefaultKind = "entity"

// #region action
// Action is what a reconcile pass did to the rendered children.
type Action string

const (
	ActionHide    Action = "hide"
	ActionRefresh Action = "refresh"
	ActionRebuild Action = "rebuild"
)

// #endregion action

// #region layout
// Layout holds the container layout hints handed to the rendering host.
type Layout struct {
	Display string `json:"display" yaml:"display"`
	Wrap    string `json:"flex_wrap" yaml:"flex_wrap"`
	Justify string `json:"justify_content" yaml:"justify_content"`
	Gap     string `json:"gap" yaml:"gap"`
}

// FlowLayout is a wrapped, centered, gapped flow of children.
var FlowLayout = Layout{Display: "flex", Wrap: "wrap", Justify: "center", Gap: "8px"}

// #endregion layout

// #region child
// Child is one rendered child widget. Kind, EntityID and Extra are fixed at
// creation; the state context is refreshed in place.
type Child struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	EntityID string         `json:"entity_id"`
	Extra    map[string]any `json:"extra,omitempty"`
	Preview  bool           `json:"preview,omitempty"`
	Label    string         `json:"label"`

	hass     *state.Hass
	disposed bool
}

// Hass returns the state context the child last received.
func (c *Child) Hass() *state.Hass {
	return c.hass
}

// Disposed reports whether the child was removed by a rebuild or hide.
func (c *Child) Disposed() bool {
	return c.disposed
}

// Descriptor returns the child as the flat map handed to a rendering host:
// kind and entity_id followed by the entry's pass-through fields.
func (c *Child) Descriptor() map[string]any {
	out := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["kind"] = c.Kind
	out["entity_id"] = c.EntityID
	return out
}

// #endregion child

// #region container
// Container is the badge's own widget: its visibility, layout and children.
type Container struct {
	Visible  bool     `json:"visible"`
	Layout   Layout   `json:"layout"`
	Children []*Child `json:"children"`
}

// #endregion container

// #region result
// Result describes one reconcile pass.
type Result struct {
	Action   Action
	Created  int
	Disposed int
}

// #endregion result

package reconcile

import (
	"github.com/google/uuid"

	"github.com/danielpatrickdp/entity-filter/internal/derive"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region reconciler
// Reconciler keeps the rendered children in step with the derived list.
type Reconciler struct {
	preview   bool
	prev      []derive.Entry
	container Container
}

// New creates a reconciler with a hidden, empty container. Children created
// with preview set are marked as editor previews.
func New(preview bool) *Reconciler {
	return &Reconciler{preview: preview, container: Container{Layout: FlowLayout}}
}

// Container returns the current container. Callers must not modify it.
func (r *Reconciler) Container() *Container {
	return &r.container
}

// Reset disposes every child and forgets the previous list.
func (r *Reconciler) Reset() int {
	n := r.dispose()
	r.prev = nil
	r.container.Visible = false
	return n
}

// Reconcile applies list to the children. An empty list hides the container.
// A list with the same length and the same state object at every position as
// the previous one keeps the children and refreshes their context. Anything
// else disposes every child and creates one per entry.
func (r *Reconciler) Reconcile(list []derive.Entry, h *state.Hass) Result {
	if len(list) == 0 {
		n := r.dispose()
		r.container.Visible = false
		r.prev = list
		return Result{Action: ActionHide, Disposed: n}
	}

	if sameIdentity(r.prev, list) {
		for _, c := range r.container.Children {
			c.SetHass(h)
		}
		r.prev = list
		r.container.Visible = true
		return Result{Action: ActionRefresh}
	}

	n := r.dispose()
	children := make([]*Child, 0, len(list))
	for _, e := range list {
		c := newChild(e, r.preview)
		c.SetHass(h)
		children = append(children, c)
	}
	r.container.Children = children
	r.container.Layout = FlowLayout
	r.container.Visible = true
	r.prev = list
	return Result{Action: ActionRebuild, Created: len(children), Disposed: n}
}

func (r *Reconciler) dispose() int {
	n := len(r.container.Children)
	for _, c := range r.container.Children {
		c.disposed = true
		c.hass = nil
	}
	r.container.Children = nil
	return n
}

func sameIdentity(prev, next []derive.Entry) bool {
	if prev == nil || len(prev) != len(next) {
		return false
	}
	for i := range next {
		if prev[i].Object != next[i].Object {
			return false
		}
	}
	return true
}

// #endregion reconciler

// #region child-lifecycle
func newChild(e derive.Entry, preview bool) *Child {
	kind := DefaultKind
	var extra map[string]any
	if len(e.Config.Extra) > 0 {
		extra = make(map[string]any, len(e.Config.Extra))
		for k, v := range e.Config.Extra {
			if k == "type" {
				if s, ok := v.(string); ok && s != "" {
					kind = s
				}
				continue
			}
			extra[k] = v
		}
	}
	return &Child{
		ID:       uuid.New().String(),
		Kind:     kind,
		EntityID: e.Config.Entity,
		Extra:    extra,
		Preview:  preview,
	}
}

// SetHass hands the child a new state context and refreshes its label.
func (c *Child) SetHass(h *state.Hass) {
	c.hass = h
	c.Label = label(c.EntityID, h)
}

func label(entityID string, h *state.Hass) string {
	if h == nil {
		return ""
	}
	obj := h.States.Get(entityID)
	if obj == nil {
		return ""
	}
	unit, _ := obj.Attr("unit_of_measurement")
	u, _ := unit.(string)
	return h.Locale.FormatState(obj.State, u)
}

// #endregion child-lifecycle

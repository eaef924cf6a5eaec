package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/entity-filter/internal/locale"
)

// #region registry
// Registry is the in-process Snapshot Source. It applies feed batches
// copy-on-write: an entity whose content did not change keeps its
// *StateObject, a changed entity gets a fresh one. Every Apply publishes a
// new immutable Hass.
type Registry struct {
	mu       sync.Mutex
	states   Snapshot
	locale   *locale.Locale
	user     *User
	screen   Screen
	timeZone *time.Location
	clock    func() time.Time
	current  *Hass
}

// NewRegistry creates an empty registry publishing with the given locale.
func NewRegistry(loc *locale.Locale) *Registry {
	r := &Registry{
		states: Snapshot{},
		locale: loc,
		clock:  time.Now,
	}
	r.current = r.publishLocked(time.Time{})
	return r
}

// SetClock replaces the clock used to stamp published contexts.
func (r *Registry) SetClock(clock func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = clock
}

// SetTimeZone sets the zone time conditions are evaluated in.
func (r *Registry) SetTimeZone(loc *time.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeZone = loc
}

// SetUser records the user the dashboard renders for. Takes effect on the next publication.
func (r *Registry) SetUser(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = u
}

// SetScreen records viewport dimensions. Takes effect on the next publication.
func (r *Registry) SetScreen(s Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = s
}

// SetLocale swaps the formatting context and publishes immediately.
func (r *Registry) SetLocale(loc *locale.Locale) *Hass {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locale = loc
	r.current = r.publishLocked(r.clock())
	return r.current
}

// Current returns the most recently published context.
func (r *Registry) Current() *Hass {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// #endregion registry

// #region apply
// Apply folds one coalesced batch into the registry and publishes the result.
func (r *Registry) Apply(batch Batch) *Hass {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := batch.At
	if now.IsZero() {
		now = r.clock()
	}

	next := make(Snapshot, len(r.states)+len(batch.Changes))
	for id, obj := range r.states {
		next[id] = obj
	}

	for _, ch := range batch.Changes {
		if ch.Removed {
			delete(next, ch.EntityID)
			continue
		}
		prev := next[ch.EntityID]
		candidate := &StateObject{
			EntityID:   ch.EntityID,
			State:      ch.State,
			Attributes: ch.Attributes,
		}
		if prev != nil && Equal(prev, candidate) {
			continue
		}
		candidate.LastUpdated = now
		candidate.LastChanged = now
		if prev != nil && prev.State == candidate.State {
			candidate.LastChanged = prev.LastChanged
		}
		candidate.ContextID = uuid.New().String()
		next[ch.EntityID] = candidate
	}

	r.states = next
	r.current = r.publishLocked(now)
	return r.current
}

func (r *Registry) publishLocked(now time.Time) *Hass {
	return &Hass{
		States:   r.states,
		Locale:   r.locale,
		User:     r.user,
		Screen:   r.screen,
		Now:      now,
		TimeZone: r.timeZone,
	}
}

// #endregion apply

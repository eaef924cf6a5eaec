package state

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/entity-filter/internal/locale"
)

func TestRegistryKeepsIdentityForUnchangedEntities(t *testing.T) {
	r := NewRegistry(locale.MustNew("en-US"))

	h1 := r.Apply(Batch{Changes: []Change{
		{EntityID: "sensor.a", State: "1"},
		{EntityID: "sensor.b", State: "on", Attributes: map[string]any{"friendly_name": "B"}},
	}})
	h2 := r.Apply(Batch{Changes: []Change{
		{EntityID: "sensor.a", State: "2"},
		{EntityID: "sensor.b", State: "on", Attributes: map[string]any{"friendly_name": "B"}},
	}})

	if h1.States["sensor.a"] == h2.States["sensor.a"] {
		t.Fatal("changed entity must get a new state object")
	}
	if h1.States["sensor.b"] != h2.States["sensor.b"] {
		t.Fatal("unchanged entity must keep its state object")
	}
	if h1.States["sensor.a"].State != "1" {
		t.Fatal("published snapshot was mutated")
	}
}

func TestRegistryAttributeChangeIssuesNewIdentity(t *testing.T) {
	r := NewRegistry(nil)
	h1 := r.Apply(Batch{Changes: []Change{{EntityID: "light.x", State: "on", Attributes: map[string]any{"brightness": 10}}}})
	h2 := r.Apply(Batch{Changes: []Change{{EntityID: "light.x", State: "on", Attributes: map[string]any{"brightness": 20}}}})

	if h1.States["light.x"] == h2.States["light.x"] {
		t.Fatal("attribute change must issue a new state object")
	}
	if !h2.States["light.x"].LastChanged.Equal(h1.States["light.x"].LastChanged) {
		t.Fatal("last_changed must only move when the state value changes")
	}
}

func TestRegistryRemoval(t *testing.T) {
	r := NewRegistry(nil)
	r.Apply(Batch{Changes: []Change{{EntityID: "sensor.a", State: "1"}}})
	h := r.Apply(Batch{Changes: []Change{{EntityID: "sensor.a", Removed: true}}})

	if h.States.Get("sensor.a") != nil {
		t.Fatal("expected removed entity to be absent")
	}
}

func TestRegistrySetLocalePublishes(t *testing.T) {
	r := NewRegistry(locale.MustNew("en-US"))
	h1 := r.Apply(Batch{Changes: []Change{{EntityID: "sensor.a", State: "1"}}})
	h2 := r.SetLocale(locale.MustNew("de-DE"))

	if h1.Locale == h2.Locale {
		t.Fatal("expected a new locale context")
	}
	if h1.States["sensor.a"] != h2.States["sensor.a"] {
		t.Fatal("locale change must not touch state identity")
	}
}

func TestRegistryStampsBatchTime(t *testing.T) {
	r := NewRegistry(nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := r.Apply(Batch{At: at, Changes: []Change{{EntityID: "sensor.a", State: "1"}}})

	if !h.Now.Equal(at) {
		t.Fatalf("expected now=%v, got %v", at, h.Now)
	}
	if !h.States["sensor.a"].LastUpdated.Equal(at) {
		t.Fatalf("expected last_updated=%v, got %v", at, h.States["sensor.a"].LastUpdated)
	}
}

func TestIsValidEntityID(t *testing.T) {
	for id, want := range map[string]bool{
		"sensor.temp":     true,
		"sun.sun":         true,
		"binary_sensor.x": true,
		"on":              false,
		"sensor.":         false,
		"a.b.c":           false,
	} {
		if got := IsValidEntityID(id); got != want {
			t.Errorf("%q: expected %v, got %v", id, want, got)
		}
	}
	if Domain("sensor.temp") != "sensor" {
		t.Fatal("expected sensor domain")
	}
}

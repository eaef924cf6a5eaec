package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/derive"
	"github.com/danielpatrickdp/entity-filter/internal/locale"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

func entry(i int, obj *state.StateObject, extra map[string]any) derive.Entry {
	return derive.Entry{Index: i, Config: config.EntityConfig{Entity: obj.EntityID, Extra: extra}, Object: obj}
}

func TestRebuildCreatesOneChildPerEntry(t *testing.T) {
	a := &state.StateObject{EntityID: "light.a", State: "on"}
	b := &state.StateObject{EntityID: "sensor.b", State: "3"}
	h := &state.Hass{States: state.Snapshot{"light.a": a, "sensor.b": b}}

	r := New(false)
	res := r.Reconcile([]derive.Entry{
		entry(0, a, map[string]any{"name": "Lamp"}),
		entry(1, b, map[string]any{"type": "gauge"}),
	}, h)

	if res.Action != ActionRebuild || res.Created != 2 {
		t.Fatalf("expected rebuild of 2, got %+v", res)
	}
	c := r.Container()
	if !c.Visible {
		t.Fatal("expected visible container")
	}
	if diff := cmp.Diff(FlowLayout, c.Layout); diff != "" {
		t.Fatalf("layout mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"kind": "entity", "entity_id": "light.a", "name": "Lamp"}
	if diff := cmp.Diff(want, c.Children[0].Descriptor()); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}
	if c.Children[1].Kind != "gauge" {
		t.Fatalf("expected entry type to override kind, got %q", c.Children[1].Kind)
	}
	if c.Children[0].Hass() != h {
		t.Fatal("expected child to receive the state context")
	}
}

func TestSameIdentityRefreshesInPlace(t *testing.T) {
	a := &state.StateObject{EntityID: "sensor.power", State: "1000", Attributes: map[string]any{"unit_of_measurement": "W"}}
	h1 := &state.Hass{States: state.Snapshot{"sensor.power": a}, Locale: locale.MustNew("en-US")}

	r := New(false)
	r.Reconcile([]derive.Entry{entry(0, a, nil)}, h1)
	before := r.Container().Children[0]
	if before.Label != "1,000 W" {
		t.Fatalf("expected %q, got %q", "1,000 W", before.Label)
	}

	h2 := &state.Hass{States: h1.States, Locale: locale.MustNew("de-DE")}
	res := r.Reconcile([]derive.Entry{entry(0, a, nil)}, h2)
	if res.Action != ActionRefresh || res.Created != 0 {
		t.Fatalf("expected refresh, got %+v", res)
	}
	after := r.Container().Children[0]
	if after != before {
		t.Fatal("child was recreated")
	}
	if after.Hass() != h2 {
		t.Fatal("expected refreshed state context")
	}
	if after.Label != "1.000 W" {
		t.Fatalf("expected %q, got %q", "1.000 W", after.Label)
	}
}

func TestChangedIdentityRebuilds(t *testing.T) {
	a1 := &state.StateObject{EntityID: "light.a", State: "on"}
	r := New(false)
	r.Reconcile([]derive.Entry{entry(0, a1, nil)}, nil)
	old := r.Container().Children[0]

	a2 := &state.StateObject{EntityID: "light.a", State: "on"}
	res := r.Reconcile([]derive.Entry{entry(0, a2, nil)}, nil)
	if res.Action != ActionRebuild || res.Disposed != 1 {
		t.Fatalf("expected rebuild disposing 1, got %+v", res)
	}
	if !old.Disposed() {
		t.Fatal("expected previous child to be disposed")
	}
	if r.Container().Children[0] == old {
		t.Fatal("expected a new child")
	}
}

func TestReorderRebuilds(t *testing.T) {
	a := &state.StateObject{EntityID: "light.a", State: "on"}
	b := &state.StateObject{EntityID: "light.b", State: "on"}
	r := New(false)
	r.Reconcile([]derive.Entry{entry(0, a, nil), entry(1, b, nil)}, nil)

	res := r.Reconcile([]derive.Entry{entry(1, b, nil), entry(0, a, nil)}, nil)
	if res.Action != ActionRebuild {
		t.Fatalf("expected rebuild on reorder, got %s", res.Action)
	}
}

func TestEmptyListHides(t *testing.T) {
	a := &state.StateObject{EntityID: "light.a", State: "on"}
	r := New(true)
	r.Reconcile([]derive.Entry{entry(0, a, nil)}, nil)
	if !r.Container().Children[0].Preview {
		t.Fatal("expected preview flag on child")
	}

	res := r.Reconcile(nil, nil)
	if res.Action != ActionHide {
		t.Fatalf("expected hide, got %s", res.Action)
	}
	c := r.Container()
	if c.Visible || len(c.Children) != 0 {
		t.Fatalf("expected hidden container without children, got %+v", c)
	}

	// coming back from empty always rebuilds
	if res := r.Reconcile([]derive.Entry{entry(0, a, nil)}, nil); res.Action != ActionRebuild {
		t.Fatalf("expected rebuild after hide, got %s", res.Action)
	}
}

func TestResetForgetsPreviousList(t *testing.T) {
	a := &state.StateObject{EntityID: "light.a", State: "on"}
	r := New(false)
	r.Reconcile([]derive.Entry{entry(0, a, nil)}, nil)
	if n := r.Reset(); n != 1 {
		t.Fatalf("expected 1 disposed, got %d", n)
	}
	if res := r.Reconcile([]derive.Entry{entry(0, a, nil)}, nil); res.Action != ActionRebuild {
		t.Fatalf("expected rebuild after reset, got %s", res.Action)
	}
}

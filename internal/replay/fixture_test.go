package replay

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// #region fixture-tests

// runFixture loads a fixture, replays it and compares every frame's action and
// derived list against the expected outcome.
func runFixture(t *testing.T, name string) []ReplayResult {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	cfg, err := f.ToBadgeConfig()
	if err != nil {
		t.Fatalf("ToBadgeConfig: %v", err)
	}
	rc, err := f.ToReplayConfig()
	if err != nil {
		t.Fatalf("ToReplayConfig: %v", err)
	}
	frames, err := f.ToFrames()
	if err != nil {
		t.Fatalf("ToFrames: %v", err)
	}

	results, err := Replay(cfg, frames, rc)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != len(f.Expected) {
		t.Fatalf("expected %d results, got %d", len(f.Expected), len(results))
	}

	for i, expected := range f.Expected {
		actual := results[i]
		if actual.FrameID != expected.FrameID {
			t.Errorf("frame %d: expected frame_id=%s, got %s", i, expected.FrameID, actual.FrameID)
		}
		if actual.Action != expected.Action {
			t.Errorf("frame %d (%s): expected action=%s, got action=%s (reason: %s)",
				i, expected.FrameID, expected.Action, actual.Action, actual.Reason)
		}
		if diff := cmp.Diff(expected.Entities, actual.Entities, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("frame %d (%s): entities mismatch (-want +got):\n%s", i, expected.FrameID, diff)
		}
	}
	return results
}

func TestFixture_TriggerSession(t *testing.T) {
	results := runFixture(t, "trigger_session.jsonc")

	s := Summarize(results)
	if s.Builds != 4 {
		t.Errorf("expected 4 builds, got %d", s.Builds)
	}
}

func TestFixture_ClimateSession(t *testing.T) {
	results := runFixture(t, "climate_session.jsonc")

	s := Summarize(results)
	if s.Skips != 1 || s.Refreshes != 1 {
		t.Errorf("expected 1 skip and 1 refresh, got %+v", s)
	}
}

func TestParseFixture_AllowsComments(t *testing.T) {
	f, err := ParseFixture([]byte(`{
		// comment
		"description": "x",
		"config": {"entities": ["light.a"], "state_filter": ["on"],},
		"frames": [{"frame_id": "f1", "changes": [{"entity_id": "light.a", "state": "on"}]}],
	}`))
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	if f.Description != "x" || len(f.Frames) != 1 {
		t.Fatalf("unexpected fixture: %+v", f)
	}
	if _, err := f.ToBadgeConfig(); err != nil {
		t.Fatalf("ToBadgeConfig: %v", err)
	}
}

func TestFixture_InvalidConfig(t *testing.T) {
	f, err := ParseFixture([]byte(`{"config": {"entities": []}}`))
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	if _, err := f.ToBadgeConfig(); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestFixtureFrame_BadTimestamp(t *testing.T) {
	ff := FixtureFrame{FrameID: "f1", At: "yesterday"}
	if _, err := ff.ToFrame(1); err == nil {
		t.Fatal("expected parse error")
	}
}

// #endregion fixture-tests

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/locale"
	"github.com/danielpatrickdp/entity-filter/internal/logging"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region config-tests
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Feed != "grpc" || cfg.Locale != "en-US" || cfg.DBPath != "entity_filter.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENTITY_FILTER_FEED", "websocket")
	t.Setenv("ENTITY_FILTER_FEED_ADDR", "ws://hass.local/api/websocket")
	t.Setenv("ENTITY_FILTER_LOCALE", "de-DE")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Feed != "websocket" || cfg.FeedAddr != "ws://hass.local/api/websocket" {
		t.Fatalf("unexpected feed config: %+v", cfg)
	}
	loc, err := cfg.parseLocale()
	if err != nil || loc.String() != "de-DE" {
		t.Fatalf("expected de-DE, got %v %v", loc, err)
	}
	if _, err := cfg.newLogger(); err != nil {
		t.Fatalf("newLogger: %v", err)
	}
}

func TestLoadConfigRejectsUnknownFeed(t *testing.T) {
	t.Setenv("ENTITY_FILTER_FEED", "mqtt")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for unknown feed")
	}
}

// #endregion config-tests

// #region host-tests
func tempStore(t *testing.T) *state.Store {
	t.Helper()
	store, err := state.NewStore(filepath.Join(t.TempDir(), "controller.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func loadBadges(t *testing.T, src string) *config.BadgeFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "badges.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return f
}

func TestHostRecordsFramesAndCycles(t *testing.T) {
	store := tempStore(t)
	file := loadBadges(t, `
badges:
  - id: alerts
    config:
      entities: [binary_sensor.smoke]
      state_filter: ["on"]
  - id: broken
    config:
      entities: []
  - id: lights
    config:
      entities: [light.a]
      conditions:
        - condition: state
          entity: binary_sensor.dark
          state: "on"
`)
	h := newHost(zap.NewNop(), store, state.NewRegistry(locale.MustNew("en-US")), file)
	if len(h.badges) != 2 {
		t.Fatalf("expected 2 valid badges, got %d", len(h.badges))
	}
	if diff := cmp.Diff([]string{"binary_sensor.smoke", "light.a", "binary_sensor.dark"}, h.watchSet()); diff != "" {
		t.Fatalf("watch set mismatch (-want +got):\n%s", diff)
	}

	h.handle(state.Batch{Changes: []state.Change{
		{EntityID: "binary_sensor.smoke", State: "on"},
		{EntityID: "light.a", State: "on"},
		{EntityID: "binary_sensor.dark", State: "off"},
	}})
	h.handle(state.Batch{Changes: []state.Change{{EntityID: "sensor.noise", State: "1"}}})

	frames, err := store.ListFrames(0)
	if err != nil {
		t.Fatalf("ListFrames: %v", err)
	}
	if len(frames) != 2 || frames[0].Locale != "en-US" {
		t.Fatalf("expected 2 recorded frames, got %+v", frames)
	}

	cycles, err := logging.ListCycles(store.DB(), "", 0)
	if err != nil {
		t.Fatalf("ListCycles: %v", err)
	}
	var got []string
	for _, c := range cycles {
		got = append(got, c.BadgeID+":"+c.Action)
		if c.FrameID != frames[0].ID {
			t.Errorf("expected cycle tagged with frame %s, got %s", frames[0].ID, c.FrameID)
		}
	}
	if diff := cmp.Diff([]string{"alerts:rebuild", "lights:hide"}, got); diff != "" {
		t.Fatalf("journal mismatch (-want +got):\n%s", diff)
	}
}

// #endregion host-tests

package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region helpers
// fakePlatform plays the server side of the websocket API: auth handshake,
// subscription result, then the scripted events.
func fakePlatform(t *testing.T, token string, events []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteJSON(map[string]any{"type": "auth_required"})
		var auth map[string]any
		if err := conn.ReadJSON(&auth); err != nil {
			return
		}
		if auth["access_token"] != token {
			conn.WriteJSON(map[string]any{"type": "auth_invalid", "message": "bad token"})
			return
		}
		conn.WriteJSON(map[string]any{"type": "auth_ok"})

		var sub map[string]any
		if err := conn.ReadJSON(&sub); err != nil || sub["type"] != "subscribe_entities" {
			return
		}
		conn.WriteJSON(map[string]any{"id": 1, "type": "result", "success": true})
		for _, ev := range events {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"id":1,"type":"event","event":`+ev+`}`))
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// #endregion helpers

// #region websocket-tests
func TestWebsocketFeedResolvesCompressedEvents(t *testing.T) {
	srv := fakePlatform(t, "secret", []string{
		`{"a":{"sensor.temp":{"s":"21","a":{"unit_of_measurement":"°C","friendly_name":"Temp"}},"light.a":{"s":"on"}}}`,
		`{"c":{"sensor.temp":{"+":{"s":"22"},"-":{"a":["friendly_name"]}}}}`,
		`not json`,
		`{"c":{"light.a":{"+":{"a":{"brightness":120}}}}}`,
		`{"r":["light.a"]}`,
	})

	var got []state.Batch
	c := NewWebsocketClient(wsURL(srv), "secret", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx, func(b state.Batch) { got = append(got, b) }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 batches, got %d", len(got))
	}
	want := [][]state.Change{
		{
			{EntityID: "light.a", State: "on"},
			{EntityID: "sensor.temp", State: "21", Attributes: map[string]any{"unit_of_measurement": "°C", "friendly_name": "Temp"}},
		},
		{{EntityID: "sensor.temp", State: "22", Attributes: map[string]any{"unit_of_measurement": "°C"}}},
		{{EntityID: "light.a", State: "on", Attributes: map[string]any{"brightness": float64(120)}}},
		{{EntityID: "light.a", Removed: true}},
	}
	for i := range want {
		if diff := cmp.Diff(want[i], got[i].Changes); diff != "" {
			t.Errorf("batch %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestWebsocketFeedRejectsBadToken(t *testing.T) {
	srv := fakePlatform(t, "secret", nil)
	c := NewWebsocketClient(wsURL(srv), "wrong", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.Run(ctx, func(state.Batch) {})
	if err == nil || !strings.Contains(err.Error(), "authentication failed") {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestWebsocketFeedFeedsRegistry(t *testing.T) {
	srv := fakePlatform(t, "secret", []string{
		`{"a":{"light.a":{"s":"on"}}}`,
		`{"c":{"light.a":{"+":{"s":"on"}}}}`,
	})

	reg := state.NewRegistry(nil)
	var snaps []*state.Hass
	c := NewWebsocketClient(wsURL(srv), "secret", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx, func(b state.Batch) { snaps = append(snaps, reg.Apply(b)) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	// a diff that leaves the entity unchanged keeps its identity
	if snaps[0].States["light.a"] != snaps[1].States["light.a"] {
		t.Fatal("expected unchanged entity to keep its state object")
	}
}

// #endregion websocket-tests

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region messages
// wsMessage is the envelope of every frame of the platform websocket API.
type wsMessage struct {
	ID          int             `json:"id,omitempty"`
	Type        string          `json:"type"`
	AccessToken string          `json:"access_token,omitempty"`
	Success     *bool           `json:"success,omitempty"`
	Message     string          `json:"message,omitempty"`
	Event       json.RawMessage `json:"event,omitempty"`
}

// compressedEvent is a subscribe_entities event. Keys: a adds full entities,
// c carries per-entity diffs, r lists removed ids.
type compressedEvent struct {
	Add    map[string]compressedState `json:"a,omitempty"`
	Change map[string]compressedDiff  `json:"c,omitempty"`
	Remove []string                   `json:"r,omitempty"`
}

// compressedState is an entity in compressed form: s state, a attributes.
type compressedState struct {
	State      *string        `json:"s,omitempty"`
	Attributes map[string]any `json:"a,omitempty"`
}

// compressedDiff holds additions (+) and removed attribute names (-).
type compressedDiff struct {
	Plus  *compressedState `json:"+,omitempty"`
	Minus *struct {
		Attributes []string `json:"a,omitempty"`
	} `json:"-,omitempty"`
}

// #endregion messages

// #region websocket-client
// WebsocketClient consumes the platform's compressed entity subscription and
// turns every event into one batch of full changes.
type WebsocketClient struct {
	url    string
	token  string
	logger *zap.Logger
	dialer *websocket.Dialer

	// last known full entity per id, for resolving diffs
	entities map[string]*compressedState
}

// NewWebsocketClient creates a client for a ws:// or wss:// url.
func NewWebsocketClient(url, token string, logger *zap.Logger) *WebsocketClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebsocketClient{
		url:      url,
		token:    token,
		logger:   logger,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		entities: map[string]*compressedState{},
	}
}

// Run connects, authenticates, subscribes and delivers batches until ctx is
// done or the connection fails.
func (c *WebsocketClient) Run(ctx context.Context, handle Handler) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	if err := c.authenticate(conn); err != nil {
		return err
	}
	const subID = 1
	if err := conn.WriteJSON(wsMessage{ID: subID, Type: "subscribe_entities"}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	c.logger.Info("websocket feed connected", zap.String("url", c.url))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Info("websocket feed disconnected")
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("websocket feed decode failed", zap.Error(err))
			continue
		}
		switch msg.Type {
		case "result":
			if msg.ID == subID && msg.Success != nil && !*msg.Success {
				return fmt.Errorf("subscribe_entities rejected: %s", msg.Message)
			}
		case "event":
			if msg.ID != subID {
				continue
			}
			var ev compressedEvent
			if err := json.Unmarshal(msg.Event, &ev); err != nil {
				c.logger.Warn("websocket feed decode failed", zap.Error(err))
				continue
			}
			if b := c.apply(ev); len(b.Changes) > 0 {
				handle(b)
			}
		}
	}
}

func (c *WebsocketClient) authenticate(conn *websocket.Conn) error {
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("read auth_required: %w", err)
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("expected auth_required, got %q", msg.Type)
	}
	if err := conn.WriteJSON(wsMessage{Type: "auth", AccessToken: c.token}); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("read auth result: %w", err)
	}
	if msg.Type != "auth_ok" {
		return fmt.Errorf("authentication failed: %s %s", msg.Type, msg.Message)
	}
	return nil
}

// apply folds one compressed event into the local table and returns the
// resulting full changes in entity id order. Removals come last.
func (c *WebsocketClient) apply(ev compressedEvent) state.Batch {
	b := state.Batch{At: time.Now().UTC()}
	for _, id := range slices.Sorted(maps.Keys(ev.Add)) {
		cs := ev.Add[id]
		next := &compressedState{State: cs.State, Attributes: copyAttrs(cs.Attributes)}
		c.entities[id] = next
		b.Changes = append(b.Changes, toChange(id, next))
	}
	for _, id := range slices.Sorted(maps.Keys(ev.Change)) {
		diff := ev.Change[id]
		cur, ok := c.entities[id]
		if !ok {
			c.logger.Warn("websocket feed diff for unknown entity", zap.String("entity_id", id))
			continue
		}
		next := &compressedState{State: cur.State, Attributes: copyAttrs(cur.Attributes)}
		if diff.Plus != nil {
			if diff.Plus.State != nil {
				next.State = diff.Plus.State
			}
			for k, v := range diff.Plus.Attributes {
				if next.Attributes == nil {
					next.Attributes = map[string]any{}
				}
				next.Attributes[k] = v
			}
		}
		if diff.Minus != nil {
			for _, k := range diff.Minus.Attributes {
				delete(next.Attributes, k)
			}
		}
		c.entities[id] = next
		b.Changes = append(b.Changes, toChange(id, next))
	}
	for _, id := range ev.Remove {
		delete(c.entities, id)
		b.Changes = append(b.Changes, state.Change{EntityID: id, Removed: true})
	}
	return b
}

func toChange(id string, cs *compressedState) state.Change {
	ch := state.Change{EntityID: id, Attributes: copyAttrs(cs.Attributes)}
	if cs.State != nil {
		ch.State = *cs.State
	}
	return ch
}

func copyAttrs(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// #endregion websocket-client

package feed

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// Handler receives one coalesced batch per upstream event.
type Handler func(state.Batch)

// Runner is a feed client. Run blocks until ctx is done or the feed ends.
type Runner interface {
	Run(ctx context.Context, handle Handler) error
}

// #region struct-codec
// BatchToStruct encodes a batch as a protobuf Struct:
//
//	{"batch_id": "...", "at": "<RFC3339>", "changes": [{"entity_id", "state", "attributes", "removed"}]}
func BatchToStruct(b state.Batch) (*structpb.Struct, error) {
	changes := make([]any, 0, len(b.Changes))
	for _, ch := range b.Changes {
		m := map[string]any{"entity_id": ch.EntityID}
		if ch.Removed {
			m["removed"] = true
		} else {
			m["state"] = ch.State
			if len(ch.Attributes) > 0 {
				m["attributes"] = ch.Attributes
			}
		}
		changes = append(changes, m)
	}
	payload := map[string]any{"changes": changes}
	if b.ID != "" {
		payload["batch_id"] = b.ID
	}
	if !b.At.IsZero() {
		payload["at"] = b.At.UTC().Format(time.RFC3339Nano)
	}
	s, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return s, nil
}

// StructToBatch decodes a Struct produced by BatchToStruct. Changes without an
// entity id are dropped.
func StructToBatch(s *structpb.Struct) (state.Batch, error) {
	var b state.Batch
	if s == nil {
		return b, fmt.Errorf("decode batch: nil message")
	}
	m := s.AsMap()
	b.ID, _ = m["batch_id"].(string)
	if at, ok := m["at"].(string); ok && at != "" {
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return b, fmt.Errorf("decode batch at: %w", err)
		}
		b.At = t
	}
	raw, _ := m["changes"].([]any)
	for _, item := range raw {
		cm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ch := state.Change{}
		ch.EntityID, _ = cm["entity_id"].(string)
		if ch.EntityID == "" {
			continue
		}
		ch.Removed, _ = cm["removed"].(bool)
		ch.State = stringify(cm["state"])
		ch.Attributes, _ = cm["attributes"].(map[string]any)
		b.Changes = append(b.Changes, ch)
	}
	return b, nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// #endregion struct-codec

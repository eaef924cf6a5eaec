package main

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/entity-filter/internal/badge"
	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region host
// host wires one feed to the registry, the frame store and every badge.
// handle is called from the feed goroutine only.
type host struct {
	logger   *zap.Logger
	store    *state.Store
	registry *state.Registry
	badges   []*badge.Badge
}

// newHost creates a badge per file entry. Entries with an invalid config are
// logged and left out.
func newHost(logger *zap.Logger, store *state.Store, registry *state.Registry, file *config.BadgeFile) *host {
	h := &host{logger: logger, store: store, registry: registry}
	for _, entry := range file.Badges {
		cfg := entry.Config
		b := badge.New(logger, badge.WithID(entry.ID), badge.WithJournal(store.DB()))
		if err := b.SetConfig(&cfg); err != nil {
			logger.Error("badge skipped", zap.String("badge_id", entry.ID), zap.Error(err))
			continue
		}
		h.badges = append(h.badges, b)
	}
	return h
}

// watchSet returns the union of every badge's watch set.
func (h *host) watchSet() []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range h.badges {
		for _, id := range b.WatchSet() {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// handle records the batch as a frame, publishes it and runs every badge once.
func (h *host) handle(batch state.Batch) {
	tag := ""
	if loc := h.registry.Current().Locale; loc != nil {
		tag = loc.String()
	}
	frame, err := h.store.RecordFrame(batch, tag)
	if err != nil {
		h.logger.Warn("record frame failed", zap.Error(err))
	} else {
		batch.ID = frame.ID
		batch.At = frame.RecordedAt
	}

	snapshot := h.registry.Apply(batch)
	for _, b := range h.badges {
		cycle := b.UpdateFrame(snapshot, batch.ID)
		if cycle.Action != badge.ActionSkip {
			h.logger.Info("badge updated",
				zap.String("badge_id", b.ID()),
				zap.String("action", string(cycle.Action)),
				zap.Strings("entities", cycle.Entities),
			)
		}
	}
}

// #endregion host

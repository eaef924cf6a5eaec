package badge

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/derive"
	"github.com/danielpatrickdp/entity-filter/internal/gate"
	"github.com/danielpatrickdp/entity-filter/internal/logging"
	"github.com/danielpatrickdp/entity-filter/internal/reconcile"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region options
// WithID sets the badge id used in logs and the journal. Defaults to a uuid.
func WithID(id string) Option {
	return func(b *Badge) { b.id = id }
}

// WithPreview marks rendered children as editor previews.
func WithPreview(preview bool) Option {
	return func(b *Badge) { b.preview = preview }
}

// WithRecomputeHook registers fn to observe derived list rebuilds.
func WithRecomputeHook(fn RecomputeHook) Option {
	return func(b *Badge) { b.hook = fn }
}

// WithJournal records every non-skipped cycle into the cycle_log table of db.
func WithJournal(db *sql.DB) Option {
	return func(b *Badge) { b.journal = db }
}

// WithGateConfig overrides the dirty check options.
func WithGateConfig(cfg gate.GateConfig) Option {
	return func(b *Badge) { b.gateConfig = cfg }
}

// #endregion options

// #region badge
// Badge is one entity filter badge instance. It owns its watch set, the
// references observed by its gate, its derived list and its rendered
// children. A Badge is not safe for concurrent use; the host drives it from
// a single goroutine.
type Badge struct {
	id         string
	logger     *zap.Logger
	preview    bool
	hook       RecomputeHook
	journal    *sql.DB
	gateConfig gate.GateConfig

	cfg        *config.BadgeConfig
	gate       *gate.Gate
	list       []derive.Entry
	reconciler *reconcile.Reconciler
}

// New creates an unconfigured badge. A nil logger logs nothing.
func New(logger *zap.Logger, opts ...Option) *Badge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Badge{
		id:         uuid.New().String(),
		gateConfig: gate.DefaultGateConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logger.With(zap.String("badge_id", b.id))
	b.reconciler = reconcile.New(b.preview)
	return b
}

// ID returns the badge id.
func (b *Badge) ID() string {
	return b.id
}

// Config returns the accepted configuration, or nil before SetConfig succeeds.
func (b *Badge) Config() *config.BadgeConfig {
	return b.cfg
}

// WatchSet returns the entity ids the badge reacts to.
func (b *Badge) WatchSet() []string {
	if b.gate == nil {
		return nil
	}
	return b.gate.Watch()
}

// List returns the current derived list.
func (b *Badge) List() []derive.Entry {
	return b.list
}

// View returns the badge container. Callers must not modify it.
func (b *Badge) View() *reconcile.Container {
	return b.reconciler.Container()
}

// #endregion badge

// #region set-config
// SetConfig validates cfg and, when accepted, discards the rendered children,
// clears the dirty check state and the previous derived list, and rebuilds
// the watch set. The next Update always recomputes. A rejected cfg returns a
// *config.ConfigurationError and leaves the badge unchanged.
func (b *Badge) SetConfig(cfg *config.BadgeConfig) error {
	if err := config.Validate(cfg); err != nil {
		b.logger.Warn("badge config rejected", zap.Error(err))
		return err
	}
	disposed := b.reconciler.Reset()
	b.cfg = cfg
	b.list = nil
	b.gate = gate.NewGate(gate.WatchSet(cfg), b.gateConfig)
	b.logger.Info("badge configured",
		zap.Int("entities", len(cfg.Entities)),
		zap.Strings("watch", b.gate.Watch()),
		zap.Int("disposed", disposed),
	)
	return nil
}

// #endregion set-config

// #region update
// Update runs one cycle against h.
func (b *Badge) Update(h *state.Hass) Cycle {
	return b.UpdateFrame(h, "")
}

// UpdateFrame runs one cycle against h, tagging the journal entry with the
// id of the frame that produced h. Cycles never fail.
func (b *Badge) UpdateFrame(h *state.Hass, frameID string) Cycle {
	cycle := Cycle{ID: uuid.New().String(), FrameID: frameID}
	if b.gate == nil {
		cycle.Action = ActionSkip
		cycle.Reason = "not configured"
		return cycle
	}

	cycle.Gate = b.gate.Check(h)
	cycle.Reason = cycle.Gate.Reason
	if !cycle.Gate.Dirty() {
		cycle.Action = ActionSkip
		b.logger.Debug("badge cycle",
			zap.String("cycle_id", cycle.ID),
			zap.String("action", string(cycle.Action)),
		)
		return cycle
	}

	b.list = derive.Build(b.cfg, h)
	if b.hook != nil {
		b.hook(b.id, b.list)
	}

	res := b.reconciler.Reconcile(b.list, h)
	cycle.Action = Action(res.Action)
	cycle.Created = res.Created
	cycle.Disposed = res.Disposed
	cycle.Entities = derive.EntityIDs(b.list)

	b.logger.Debug("badge cycle",
		zap.String("cycle_id", cycle.ID),
		zap.String("action", string(cycle.Action)),
		zap.Int("entities", len(cycle.Entities)),
		zap.String("reason", cycle.Reason),
	)
	if err := b.record(cycle); err != nil {
		b.logger.Warn("journal write failed", zap.String("cycle_id", cycle.ID), zap.Error(err))
	}
	return cycle
}

func (b *Badge) record(cycle Cycle) error {
	if b.journal == nil {
		return nil
	}
	err := logging.LogCycle(b.journal, logging.CycleEntry{
		BadgeID:  b.id,
		CycleID:  cycle.ID,
		FrameID:  cycle.FrameID,
		Action:   string(cycle.Action),
		Reason:   cycle.Reason,
		Entities: cycle.Entities,
	})
	if err != nil {
		return fmt.Errorf("record cycle %s: %w", cycle.ID, err)
	}
	return nil
}

// #endregion update

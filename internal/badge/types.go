package badge

import (
	"github.com/danielpatrickdp/entity-filter/internal/derive"
	"github.com/danielpatrickdp/entity-filter/internal/gate"
)

// #region cycle
// Action is the outcome of one update cycle.
type Action string

const (
	ActionSkip    Action = "skip"
	ActionHide    Action = "hide"
	ActionRefresh Action = "refresh"
	ActionRebuild Action = "rebuild"
)

// Cycle describes one call to Update.
type Cycle struct {
	ID       string
	FrameID  string
	Action   Action
	Reason   string
	Entities []string // derived list entity ids; empty on skip
	Gate     gate.GateDecision
	Created  int
	Disposed int
}

// #endregion cycle

// #region options
// Option configures a Badge.
type Option func(*Badge)

// RecomputeHook is called every time the derived list is rebuilt, with the
// new list. It must not retain or modify the list.
type RecomputeHook func(badgeID string, list []derive.Entry)

// #endregion options

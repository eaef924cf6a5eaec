package logging

import "time"

// #region cycle-entry
// CycleEntry is a single row in the cycle_log table: one non-skipped update
// cycle of one badge.
type CycleEntry struct {
	BadgeID   string
	CycleID   string
	FrameID   string
	Action    string   // "rebuild" | "refresh" | "hide"
	Reason    string
	Entities  []string // derived list entity ids, in order
	CreatedAt time.Time
}

// #endregion cycle-entry

package replay

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/entity-filter/internal/badge"
	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/derive"
	"github.com/danielpatrickdp/entity-filter/internal/gate"
	"github.com/danielpatrickdp/entity-filter/internal/locale"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region types
// ReplayConfig holds the context a recorded session is replayed under.
type ReplayConfig struct {
	BadgeID    string
	Locale     string
	TimeZone   *time.Location
	GateConfig gate.GateConfig
	Logger     *zap.Logger
}

// DefaultReplayConfig returns the default locale, UTC and identity comparison.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		BadgeID:    "replay",
		Locale:     locale.DefaultTag,
		TimeZone:   time.UTC,
		GateConfig: gate.DefaultGateConfig(),
	}
}

// ReplayResult captures the outcome of replaying one frame through a badge.
type ReplayResult struct {
	FrameID  string
	Action   string // "skip" | "rebuild" | "refresh" | "hide"
	Reason   string
	Entities []string
	Builds   int // derived list builds so far
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalFrames int
	Skips       int
	Rebuilds    int
	Refreshes   int
	Hides       int
	Builds      int
	FinalList   []string
}

// #endregion types

// #region replay
// Replay feeds frames in order through a fresh registry and badge. Each frame
// is applied as one batch; a frame naming a locale switches the registry locale
// first. Locales are cached per tag, so repeating a tag keeps its identity.
func Replay(cfg *config.BadgeConfig, frames []state.Frame, rc ReplayConfig) ([]ReplayResult, error) {
	locales := map[string]*locale.Locale{}
	localeFor := func(tag string) (*locale.Locale, error) {
		if l, ok := locales[tag]; ok {
			return l, nil
		}
		l, err := locale.New(tag)
		if err != nil {
			return nil, err
		}
		locales[tag] = l
		return l, nil
	}

	initial, err := localeFor(rc.Locale)
	if err != nil {
		return nil, fmt.Errorf("replay locale: %w", err)
	}
	reg := state.NewRegistry(initial)
	if rc.TimeZone != nil {
		reg.SetTimeZone(rc.TimeZone)
	}

	builds := 0
	b := badge.New(rc.Logger,
		badge.WithID(rc.BadgeID),
		badge.WithGateConfig(rc.GateConfig),
		badge.WithRecomputeHook(func(string, []derive.Entry) { builds++ }),
	)
	if err := b.SetConfig(cfg); err != nil {
		return nil, fmt.Errorf("replay config: %w", err)
	}

	current := initial
	results := make([]ReplayResult, 0, len(frames))
	for _, fr := range frames {
		if fr.Locale != "" {
			l, err := localeFor(fr.Locale)
			if err != nil {
				return results, fmt.Errorf("frame %s: %w", fr.ID, err)
			}
			if l != current {
				reg.SetLocale(l)
				current = l
			}
		}
		cycle := b.UpdateFrame(reg.Apply(fr.Batch()), fr.ID)
		results = append(results, ReplayResult{
			FrameID:  fr.ID,
			Action:   string(cycle.Action),
			Reason:   cycle.Reason,
			Entities: cycle.Entities,
			Builds:   builds,
		})
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalFrames: len(results)}
	for _, r := range results {
		switch badge.Action(r.Action) {
		case badge.ActionSkip:
			s.Skips++
		case badge.ActionRebuild:
			s.Rebuilds++
		case badge.ActionRefresh:
			s.Refreshes++
		case badge.ActionHide:
			s.Hides++
		}
		if r.Action != string(badge.ActionSkip) {
			s.FinalList = r.Entities
		}
		s.Builds = r.Builds
	}
	return s
}

// #endregion replay

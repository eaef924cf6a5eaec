package replay

import (
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region fixture-types

// Fixture is the top-level structure of a replay fixture. Fixtures are JSON
// with comments; the badge config keeps the YAML shape of a badge file entry.
type Fixture struct {
	Description string            `json:"description" yaml:"description"`
	BadgeID     string            `json:"badge_id,omitempty" yaml:"badge_id,omitempty"`
	Locale      string            `json:"locale" yaml:"locale"`
	TimeZone    string            `json:"time_zone,omitempty" yaml:"time_zone,omitempty"`
	Config      map[string]any    `json:"config" yaml:"config"`
	Frames      []FixtureFrame    `json:"frames" yaml:"frames"`
	Expected    []FixtureExpected `json:"expected" yaml:"expected"`
}

// FixtureFrame mirrors state.Frame with string timestamps.
type FixtureFrame struct {
	FrameID string         `json:"frame_id" yaml:"frame_id"`
	At      string         `json:"at,omitempty" yaml:"at,omitempty"`
	Locale  string         `json:"locale,omitempty" yaml:"locale,omitempty"`
	Changes []state.Change `json:"changes" yaml:"changes"`
}

// FixtureExpected captures the expected outcome per frame.
type FixtureExpected struct {
	FrameID  string   `json:"frame_id" yaml:"frame_id"`
	Action   string   `json:"action" yaml:"action"`
	Entities []string `json:"entities,omitempty" yaml:"entities,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes fixture bytes. Comments and trailing commas are allowed.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// ToBadgeConfig decodes and validates the embedded badge config.
func (f *Fixture) ToBadgeConfig() (*config.BadgeConfig, error) {
	raw, err := yaml.Marshal(f.Config)
	if err != nil {
		return nil, fmt.Errorf("encode fixture config: %w", err)
	}
	return config.Parse(raw)
}

// ToReplayConfig converts the fixture's locale and time zone settings.
func (f *Fixture) ToReplayConfig() (ReplayConfig, error) {
	rc := DefaultReplayConfig()
	if f.Locale != "" {
		rc.Locale = f.Locale
	}
	if f.BadgeID != "" {
		rc.BadgeID = f.BadgeID
	}
	if f.TimeZone != "" {
		loc, err := time.LoadLocation(f.TimeZone)
		if err != nil {
			return rc, fmt.Errorf("load time zone %s: %w", f.TimeZone, err)
		}
		rc.TimeZone = loc
	}
	return rc, nil
}

// ToFrame converts a FixtureFrame to a domain Frame. seq is its position.
func (ff *FixtureFrame) ToFrame(seq int64) (state.Frame, error) {
	fr := state.Frame{ID: ff.FrameID, Seq: seq, Locale: ff.Locale, Changes: ff.Changes}
	if ff.At != "" {
		at, err := time.Parse(time.RFC3339, ff.At)
		if err != nil {
			return fr, fmt.Errorf("frame %s: parse at: %w", ff.FrameID, err)
		}
		fr.RecordedAt = at
	}
	return fr, nil
}

// ToFrames converts every fixture frame in order.
func (f *Fixture) ToFrames() ([]state.Frame, error) {
	out := make([]state.Frame, 0, len(f.Frames))
	for i := range f.Frames {
		fr, err := f.Frames[i].ToFrame(int64(i + 1))
		if err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, nil
}

// FromFrame converts a recorded frame back to its fixture form.
func FromFrame(fr state.Frame) FixtureFrame {
	ff := FixtureFrame{FrameID: fr.ID, Locale: fr.Locale, Changes: fr.Changes}
	if !fr.RecordedAt.IsZero() {
		ff.At = fr.RecordedAt.UTC().Format(time.RFC3339)
	}
	return ff
}

// #endregion fixture-loader

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/entity-filter/internal/logging"
	"github.com/danielpatrickdp/entity-filter/internal/replay"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to entity_filter.db")
	badgesPath := flag.String("badges", "badges.yaml", "badge file holding the badge config")
	badgeID := flag.String("badge", "", "badge id to export")
	last := flag.Int("last", 20, "number of most recent frames to export")
	outPath := flag.String("out", "", "output fixture path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" || *badgeID == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --badge id --out path/to/fixture.jsonc [--badges badges.yaml] [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *badgesPath, *badgeID, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

// rawBadgeFile keeps badge configs in their raw shape so the fixture embeds
// them unchanged.
type rawBadgeFile struct {
	Badges []struct {
		ID     string         `yaml:"id"`
		Config map[string]any `yaml:"config"`
	} `yaml:"badges"`
}

func run(dbPath, badgesPath, badgeID string, last int, outPath string) error {
	data, err := os.ReadFile(badgesPath)
	if err != nil {
		return fmt.Errorf("read badges: %w", err)
	}
	var file rawBadgeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode badges: %w", err)
	}
	var raw map[string]any
	for _, b := range file.Badges {
		if b.ID == badgeID {
			raw = b.Config
			break
		}
	}
	if raw == nil {
		return fmt.Errorf("badge %s not found in %s", badgeID, badgesPath)
	}

	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	frames, err := store.ListFrames(last)
	if err != nil {
		return fmt.Errorf("list frames: %w", err)
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}

	cycles, err := logging.ListCycles(store.DB(), badgeID, 0)
	if err != nil {
		return fmt.Errorf("list cycles: %w", err)
	}
	byFrame := map[string]logging.CycleEntry{}
	for _, c := range cycles {
		byFrame[c.FrameID] = c
	}

	fixture := replay.Fixture{
		Description: fmt.Sprintf("exported from %s: badge %s, %d frames", dbPath, badgeID, len(frames)),
		BadgeID:     badgeID,
		Locale:      frames[0].Locale,
		Config:      raw,
	}
	for _, fr := range frames {
		fixture.Frames = append(fixture.Frames, replay.FromFrame(fr))
		exp := replay.FixtureExpected{FrameID: fr.ID, Action: "skip"}
		if c, ok := byFrame[fr.ID]; ok {
			exp.Action = c.Action
			exp.Entities = c.Entities
		}
		fixture.Expected = append(fixture.Expected, exp)
	}

	out, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("Exported %d frames to %s\n", len(frames), outPath)
	return nil
}

// #endregion extract

package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/logging"
	"github.com/danielpatrickdp/entity-filter/internal/replay"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to entity_filter.db (DB mode)")
	badgesPath := flag.String("badges", "badges.yaml", "badge file (DB mode)")
	badgeID := flag.String("badge", "", "badge id to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSONC (fixture mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/entity_filter.db --badges badges.yaml --badge id")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.jsonc")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *badgesPath, *badgeID)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, badgesPath, badgeID string) int {
	if badgeID == "" {
		fmt.Fprintln(os.Stderr, "--badge is required in DB mode")
		return 2
	}
	file, err := config.LoadFile(badgesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load badges: %v\n", err)
		return 2
	}
	var cfg *config.BadgeConfig
	for i := range file.Badges {
		if file.Badges[i].ID == badgeID {
			cfg = &file.Badges[i].Config
			break
		}
	}
	if cfg == nil {
		fmt.Fprintf(os.Stderr, "badge %s not found in %s\n", badgeID, badgesPath)
		return 2
	}

	store, err := state.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	frames, err := store.ListFrames(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list frames: %v\n", err)
		return 2
	}
	if len(frames) == 0 {
		fmt.Fprintln(os.Stderr, "no frames recorded")
		return 2
	}

	cycles, err := logging.ListCycles(store.DB(), badgeID, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list cycles: %v\n", err)
		return 2
	}
	recorded := map[string]string{}
	for _, c := range cycles {
		recorded[c.FrameID] = c.Action
	}

	rc := replay.DefaultReplayConfig()
	rc.BadgeID = badgeID
	if frames[0].Locale != "" {
		rc.Locale = frames[0].Locale
	}
	results, err := replay.Replay(cfg, frames, rc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	// the journal holds non-skipped cycles only
	expected := make([]string, len(frames))
	for i, fr := range frames {
		expected[i] = "skip"
		if a, ok := recorded[fr.ID]; ok {
			expected[i] = a
		}
	}
	return printComparison(results, expected, nil)
}

// #endregion db-mode

// #region output

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	cfg, err := f.ToBadgeConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture config: %v\n", err)
		return 2
	}
	rc, err := f.ToReplayConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture replay config: %v\n", err)
		return 2
	}
	frames, err := f.ToFrames()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture frames: %v\n", err)
		return 2
	}

	results, err := replay.Replay(cfg, frames, rc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	expected := make([]string, len(f.Expected))
	entities := make([][]string, len(f.Expected))
	for i, e := range f.Expected {
		expected[i] = e.Action
		entities[i] = e.Entities
	}
	return printComparison(results, expected, entities)
}

// printComparison outputs a comparison table and returns exit code.
// entities can be nil, in which case only actions are compared.
func printComparison(results []replay.ReplayResult, expected []string, entities [][]string) int {
	fmt.Printf("%-12s| %-10s| %-10s| %-30s| %s\n", "Frame", "Expected", "Replayed", "Entities", "Match")
	fmt.Printf("%-12s+%-11s+%-11s+%-31s+%s\n",
		"------------", "-----------", "-----------", "-------------------------------", "------")

	matches := 0
	total := len(results)
	if len(expected) < total {
		total = len(expected)
	}

	for i := 0; i < total; i++ {
		r := results[i]
		match := "DIFF"
		ok := r.Action == expected[i]
		if ok && entities != nil && r.Action != "skip" {
			ok = strings.Join(entities[i], ",") == strings.Join(r.Entities, ",")
		}
		if ok {
			match = "OK"
			matches++
		}
		fmt.Printf("%-12s| %-10s| %-10s| %-30s| %s\n", r.FrameID, expected[i], r.Action, strings.Join(r.Entities, ","), match)
	}

	diverge := total - matches
	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (%d builds, %d skips)\n", total, matches, diverge, s.Builds, s.Skips)

	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/danielpatrickdp/entity-filter/internal/logging"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to entity_filter.db")
	badgeID := flag.String("badge", "", "only show cycles of this badge")
	last := flag.Int("last", 20, "show N most recent cycles")
	frames := flag.Bool("frames", false, "list recorded frames instead of cycles")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/entity_filter.db [--badge id] [--last N] [--frames] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *frames {
		err = runFrameMode(store, *last, *jsonOut)
	} else {
		err = runCycleMode(store, *badgeID, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region cycle-mode

type cycleRow struct {
	BadgeID   string   `json:"badge_id"`
	CycleID   string   `json:"cycle_id"`
	FrameID   string   `json:"frame_id,omitempty"`
	Action    string   `json:"action"`
	Reason    string   `json:"reason,omitempty"`
	Entities  []string `json:"entities"`
	CreatedAt string   `json:"created_at"`
}

func runCycleMode(store *state.Store, badgeID string, last int, jsonOut bool) error {
	cycles, err := logging.ListCycles(store.DB(), badgeID, last)
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		fmt.Fprintln(os.Stderr, "no cycles found")
		return nil
	}

	rows := make([]cycleRow, len(cycles))
	for i, c := range cycles {
		rows[i] = cycleRow{
			BadgeID:   c.BadgeID,
			CycleID:   c.CycleID,
			FrameID:   c.FrameID,
			Action:    c.Action,
			Reason:    c.Reason,
			Entities:  c.Entities,
			CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-10s  %-8s  %-8s  %-20s  %s\n", "Badge", "Cycle", "Frame", "Action", "Time", "Entities")
	fmt.Printf("%-12s+-%-10s+-%-8s+-%-8s+-%-20s+-%s\n",
		"------------", "----------", "--------", "--------", "--------------------", "--------")
	counts := map[string]int{}
	for _, r := range rows {
		entities := strings.Join(r.Entities, ",")
		if entities == "" {
			entities = "—"
		}
		fmt.Printf("%-12s  %-10s  %-8s  %-8s  %-20s  %s\n",
			r.BadgeID, shortID(r.CycleID), shortID(r.FrameID), r.Action, r.CreatedAt, entities)
		counts[r.Action]++
	}
	fmt.Printf("\nActions: %d rebuild, %d refresh, %d hide\n", counts["rebuild"], counts["refresh"], counts["hide"])
	return nil
}

// #endregion cycle-mode

// #region frame-mode

type frameRow struct {
	FrameID    string         `json:"frame_id"`
	Seq        int64          `json:"seq"`
	Locale     string         `json:"locale,omitempty"`
	RecordedAt string         `json:"recorded_at"`
	Changes    []state.Change `json:"changes"`
}

func runFrameMode(store *state.Store, last int, jsonOut bool) error {
	frames, err := store.ListFrames(last)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		fmt.Fprintln(os.Stderr, "no frames found")
		return nil
	}

	rows := make([]frameRow, len(frames))
	for i, f := range frames {
		rows[i] = frameRow{
			FrameID:    f.ID,
			Seq:        f.Seq,
			Locale:     f.Locale,
			RecordedAt: f.RecordedAt.Format("2006-01-02T15:04:05Z"),
			Changes:    f.Changes,
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%6s  %-8s  %-6s  %-20s  %s\n", "Seq", "Frame", "Locale", "Time", "Changes")
	fmt.Printf("%6s+-%-8s+-%-6s+-%-20s+-%s\n", "------", "--------", "------", "--------------------", "--------")
	for _, r := range rows {
		changes := make([]string, len(r.Changes))
		for i, ch := range r.Changes {
			if ch.Removed {
				changes[i] = ch.EntityID + " removed"
			} else {
				changes[i] = ch.EntityID + "=" + ch.State
			}
		}
		fmt.Printf("%6d  %-8s  %-6s  %-20s  %s\n", r.Seq, shortID(r.FrameID), r.Locale, r.RecordedAt, strings.Join(changes, " "))
	}
	return nil
}

// #endregion frame-mode

// #region helpers

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers

package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region log-cycle
// LogCycle writes a cycle entry to the cycle_log table.
func LogCycle(db *sql.DB, entry CycleEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entities := entry.Entities
	if entities == nil {
		entities = []string{}
	}
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO cycle_log (badge_id, cycle_id, frame_id, action, reason, entities_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.BadgeID,
		entry.CycleID,
		nullIfEmpty(entry.FrameID),
		entry.Action,
		nullIfEmpty(entry.Reason),
		string(entitiesJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log cycle: %w", err)
	}
	return nil
}

// #endregion log-cycle

// #region list-cycles
// ListCycles returns journal entries oldest first. An empty badgeID lists every
// badge; limit <= 0 returns all entries, otherwise the most recent limit.
func ListCycles(db *sql.DB, badgeID string, limit int) ([]CycleEntry, error) {
	query := `SELECT badge_id, cycle_id, frame_id, action, reason, entities_json, created_at
		FROM cycle_log WHERE (? = '' OR badge_id = ?) ORDER BY id DESC`
	args := []interface{}{badgeID, badgeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleEntry
	for rows.Next() {
		var e CycleEntry
		var frameID, reason, entitiesJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&e.BadgeID, &e.CycleID, &frameID, &e.Action, &reason, &entitiesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		e.FrameID = frameID.String
		e.Reason = reason.String
		if entitiesJSON.Valid {
			if err := json.Unmarshal([]byte(entitiesJSON.String), &e.Entities); err != nil {
				return nil, fmt.Errorf("unmarshal entities for cycle %s: %w", e.CycleID, err)
			}
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}

	// reverse to oldest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// #endregion list-cycles

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

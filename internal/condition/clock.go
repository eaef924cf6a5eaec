package condition

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// SunEntity is the entity sun conditions read when none is configured.
const SunEntity = "sun.sun"

const (
	sunrise = "sunrise"
	sunset  = "sunset"

	aboveHorizon = "above_horizon"
	belowHorizon = "below_horizon"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// #region time
// ParseClock parses HH:MM or HH:MM:SS into seconds after midnight. Anything
// after the last field is an error.
func ParseClock(s string) (int, error) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
		}
	}
	return 0, fmt.Errorf("parse time %q: want HH:MM or HH:MM:SS", s)
}

var clockLayouts = []string{"15:04:05", "15:04"}

func checkTime(c Condition, h *state.Hass) bool {
	now := time.Now()
	if h != nil && !h.Now.IsZero() {
		now = h.Now
	}
	now = now.In(h.Location())

	if len(c.Weekdays) > 0 {
		today := weekdayNames[now.Weekday()]
		found := false
		for _, d := range c.Weekdays {
			if d == today {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	current := now.Hour()*3600 + now.Minute()*60 + now.Second()

	var after, before int
	var err error
	hasAfter, hasBefore := c.After != "", c.Before != ""
	if hasAfter {
		if after, err = ParseClock(c.After); err != nil {
			return false
		}
	}
	if hasBefore {
		if before, err = ParseClock(c.Before); err != nil {
			return false
		}
	}

	switch {
	case hasAfter && hasBefore && after <= before:
		return current >= after && current < before
	case hasAfter && hasBefore:
		// window wraps midnight
		return current >= after || current < before
	case hasAfter:
		return current >= after
	case hasBefore:
		return current < before
	default:
		return true
	}
}

// #endregion time

// #region sun
func sunEntity(c Condition) string {
	if c.Entity != "" {
		return c.Entity
	}
	return SunEntity
}

// checkSun maps the configured edges onto daytime or nighttime and reads the
// horizon state of the sun entity. Contradictory edges never hold.
func checkSun(c Condition, h *state.Hass) bool {
	obj := states(h).Get(sunEntity(c))
	if obj == nil {
		return false
	}

	var day, night bool
	switch c.After {
	case sunrise:
		day = true
	case sunset:
		night = true
	}
	switch c.Before {
	case sunset:
		day = true
	case sunrise:
		night = true
	}
	if day == night {
		return false
	}

	switch obj.State {
	case aboveHorizon:
		return day
	case belowHorizon:
		return night
	default:
		return false
	}
}

// #endregion sun

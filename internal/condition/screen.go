package condition

import (
	"strconv"
	"strings"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region screen
func checkScreen(c Condition, h *state.Hass) bool {
	if c.MediaQuery == "" || h == nil {
		return false
	}
	return MatchMedia(c.MediaQuery, h.Screen)
}

// MatchMedia evaluates the subset of CSS media queries dashboards use:
// comma-separated alternatives of "and"-joined width, height and orientation
// features, optionally prefixed with a media type. Unknown features never match.
func MatchMedia(query string, screen state.Screen) bool {
	for _, alt := range strings.Split(query, ",") {
		if matchAlternative(strings.TrimSpace(alt), screen) {
			return true
		}
	}
	return false
}

func matchAlternative(alt string, screen state.Screen) bool {
	if alt == "" {
		return false
	}
	for _, part := range strings.Split(strings.ToLower(alt), " and ") {
		part = strings.TrimSpace(part)
		switch part {
		case "all", "screen", "only screen":
			continue
		}
		if !matchFeature(part, screen) {
			return false
		}
	}
	return true
}

func matchFeature(feature string, screen state.Screen) bool {
	if !strings.HasPrefix(feature, "(") || !strings.HasSuffix(feature, ")") {
		return false
	}
	name, value, ok := strings.Cut(feature[1:len(feature)-1], ":")
	if !ok {
		return false
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	if name == "orientation" {
		portrait := screen.Height >= screen.Width
		switch value {
		case "portrait":
			return portrait
		case "landscape":
			return !portrait
		default:
			return false
		}
	}

	px, err := strconv.Atoi(strings.TrimSuffix(value, "px"))
	if err != nil {
		return false
	}
	switch name {
	case "min-width":
		return screen.Width >= px
	case "max-width":
		return screen.Width <= px
	case "min-height":
		return screen.Height >= px
	case "max-height":
		return screen.Height <= px
	default:
		return false
	}
}

// #endregion screen

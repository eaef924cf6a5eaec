package state

import (
	"reflect"
	"regexp"
	"strings"
)

var entityIDPattern = regexp.MustCompile(`^(\w+)\.(\w+)$`)

// IsValidEntityID reports whether id has the <domain>.<object_id> shape.
func IsValidEntityID(id string) bool {
	return entityIDPattern.MatchString(id)
}

// Domain returns the part of an entity id before the dot.
func Domain(id string) string {
	if i := strings.IndexByte(id, '.'); i > 0 {
		return id[:i]
	}
	return ""
}

// Equal compares two state objects structurally. Hosts whose state layer cannot
// issue a new identity exactly when content changes fall back to this, at the
// cost of a deep comparison per watched entity.
func Equal(a, b *StateObject) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.EntityID != b.EntityID || a.State != b.State {
		return false
	}
	if len(a.Attributes) != len(b.Attributes) {
		return false
	}
	if len(a.Attributes) == 0 {
		return true
	}
	return reflect.DeepEqual(a.Attributes, b.Attributes)
}

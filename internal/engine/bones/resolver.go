// Package bones maps logical skeletal roles to the bones of an arbitrary
// loaded skeleton.
//
// Source models name their bones inconsistently (Japanese MMD names,
// Blender/Unity English names, exporter prefixes). A role lookup therefore
// never fails hard: callers receive ok=false and skip whatever depended on
// the bone.
package bones

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

// Role identifies a skeletal role independent of the model's naming.
type Role int

const (
	Head Role = iota
	Neck
	UpperBody
	LowerBody
	LeftShoulder
	RightShoulder
	LeftArm
	RightArm
	LeftElbow
	RightElbow

	// RoleCount is the number of defined roles.
	RoleCount
)

var roleNames = [RoleCount]string{
	"head", "neck", "upper_body", "lower_body",
	"left_shoulder", "right_shoulder", "left_arm", "right_arm",
	"left_elbow", "right_elbow",
}

func (r Role) String() string {
	if r < 0 || r >= RoleCount {
		return "unknown"
	}
	return roleNames[r]
}

// Aliases lists known bone names per role, localized names first.
var Aliases = [RoleCount][]string{
	Head:          {"頭", "head", "Head"},
	Neck:          {"首", "neck", "Neck"},
	UpperBody:     {"上半身", "upper body", "Upper Body", "Spine"},
	LowerBody:     {"下半身", "lower body", "Lower Body", "Hips", "センター", "center"},
	LeftShoulder:  {"左肩", "shoulder_L", "LeftShoulder", "Left shoulder"},
	RightShoulder: {"右肩", "shoulder_R", "RightShoulder", "Right shoulder"},
	LeftArm:       {"左腕", "arm_L", "LeftArm", "Left arm"},
	RightArm:      {"右腕", "arm_R", "RightArm", "Right arm"},
	LeftElbow:     {"左ひじ", "elbow_L", "LeftForeArm", "Left elbow"},
	RightElbow:    {"右ひじ", "elbow_R", "RightForeArm", "Right elbow"},
}

// Handle is the index of a resolved bone in its skeleton.
type Handle int

// Resolve finds the bone playing the given role.
func Resolve(role Role, skel *rig.Skeleton) (Handle, bool) {
	if role < 0 || role >= RoleCount {
		return -1, false
	}
	i, ok := Match(Aliases[role], skel.Names())
	return Handle(i), ok
}

// Match returns the index of the first name matching the ordered aliases.
// Exact matches are tried for every alias before any substring match.
func Match(aliases, names []string) (int, bool) {
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = width.Fold.String(n)
	}

	for _, alias := range aliases {
		a := width.Fold.String(alias)
		for i, n := range folded {
			if n == a {
				return i, true
			}
		}
	}

	for _, alias := range aliases {
		a := width.Fold.String(alias)
		if a == "" {
			continue
		}
		for i, n := range folded {
			if n == "" {
				continue
			}
			if strings.Contains(n, a) || strings.Contains(a, n) {
				return i, true
			}
		}
	}
	return -1, false
}

// Map holds the resolved handle of every role for one skeleton.
type Map struct {
	handles [RoleCount]Handle
	found   [RoleCount]bool
}

// ResolveAll resolves every role against the skeleton once.
func ResolveAll(skel *rig.Skeleton) Map {
	var m Map
	names := skel.Names()
	for r := Role(0); r < RoleCount; r++ {
		i, ok := Match(Aliases[r], names)
		m.handles[r] = Handle(i)
		m.found[r] = ok
	}
	return m
}

// Get returns the handle for a role.
func (m *Map) Get(role Role) (Handle, bool) {
	if role < 0 || role >= RoleCount || !m.found[role] {
		return -1, false
	}
	return m.handles[role], true
}

// Has reports whether the role was resolved.
func (m *Map) Has(role Role) bool {
	_, ok := m.Get(role)
	return ok
}

// Missing lists the roles that could not be resolved.
func (m *Map) Missing() []Role {
	var missing []Role
	for r := Role(0); r < RoleCount; r++ {
		if !m.found[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

// Package rig holds the skeleton, morph and surface data produced by a model
// loader and mutated by the per-frame character update.
package rig

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Bone is one joint of a skeleton. Rest is the bind-pose position relative to
// the parent; Translation and Rotation are the current local pose.
type Bone struct {
	Name        string
	NameEn      string
	Parent      int // -1 for root bones
	Rest        mgl32.Vec3
	Translation mgl32.Vec3
	Rotation    mgl32.Quat

	// Dynamic marks bones driven by secondary physics such as hair and
	// skirt chains.
	Dynamic bool
}

// Skeleton is an ordered list of bones as authored in the source model.
type Skeleton struct {
	Bones []Bone
}

// NewSkeleton creates a skeleton with every bone in its rest pose.
func NewSkeleton(bones []Bone) *Skeleton {
	s := &Skeleton{Bones: bones}
	s.ResetPose()
	return s
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bones)
}

// Bone returns the bone at index i, or nil when out of range.
func (s *Skeleton) Bone(i int) *Bone {
	if s == nil || i < 0 || i >= len(s.Bones) {
		return nil
	}
	return &s.Bones[i]
}

// Index returns the index of the bone with exactly the given name.
func (s *Skeleton) Index(name string) (int, bool) {
	if s == nil {
		return -1, false
	}
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns the bone names in skeleton order.
func (s *Skeleton) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Bones))
	for i := range s.Bones {
		names[i] = s.Bones[i].Name
	}
	return names
}

// ResetPose clears every local pose back to identity.
func (s *Skeleton) ResetPose() {
	if s == nil {
		return
	}
	for i := range s.Bones {
		s.Bones[i].Translation = mgl32.Vec3{}
		s.Bones[i].Rotation = mgl32.QuatIdent()
	}
}

// Pose is a captured local pose, used to roll back a failed solver step.
type Pose struct {
	Translations []mgl32.Vec3
	Rotations    []mgl32.Quat
}

// CapturePose copies the current local pose into p, reusing its storage.
func (s *Skeleton) CapturePose(p *Pose) {
	n := s.Len()
	if cap(p.Translations) < n {
		p.Translations = make([]mgl32.Vec3, n)
		p.Rotations = make([]mgl32.Quat, n)
	}
	p.Translations = p.Translations[:n]
	p.Rotations = p.Rotations[:n]
	for i := 0; i < n; i++ {
		p.Translations[i] = s.Bones[i].Translation
		p.Rotations[i] = s.Bones[i].Rotation
	}
}

// RestorePose writes a previously captured pose back.
func (s *Skeleton) RestorePose(p *Pose) {
	n := s.Len()
	if len(p.Rotations) < n {
		n = len(p.Rotations)
	}
	for i := 0; i < n; i++ {
		s.Bones[i].Translation = p.Translations[i]
		s.Bones[i].Rotation = p.Rotations[i]
	}
}

// Clone returns an independent copy of the skeleton.
func (s *Skeleton) Clone() *Skeleton {
	if s == nil {
		return nil
	}
	bones := make([]Bone, len(s.Bones))
	copy(bones, s.Bones)
	return &Skeleton{Bones: bones}
}

// Vertex is a bind-pose vertex with skinning weights.
type Vertex struct {
	Position    mgl32.Vec3
	Normal      mgl32.Vec3
	UV          mgl32.Vec2
	Bones       [4]int32
	BoneWeights [4]float32
}

// Material describes one material slot of a surface.
type Material struct {
	Name        string
	NameEn      string
	Texture     string
	Color       mgl32.Vec4
	DoubleSided bool
	IndexStart  int
	IndexCount  int
}

// Surface is one skinned mesh with its material slots.
type Surface struct {
	Name      string
	Vertices  []Vertex
	Indices   []uint32
	Materials []Material
}

// Model is the loader output for one character file.
type Model struct {
	Name     string
	URI      string
	Skeleton Skeleton
	Surfaces []Surface
	Morphs   MorphSet
}

// MaterialCount returns the number of material slots across all surfaces.
func (m *Model) MaterialCount() int {
	n := 0
	for i := range m.Surfaces {
		n += len(m.Surfaces[i].Materials)
	}
	return n
}

package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

func model() *rig.Model {
	skel := rig.NewSkeleton([]rig.Bone{
		{Name: "センター", Parent: -1},
		{Name: "頭", Parent: 0, Rest: mgl32.Vec3{0, 10, 0}},
	})
	return &rig.Model{
		Skeleton: *skel,
		Surfaces: []rig.Surface{{
			Vertices: []rig.Vertex{
				{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, -1}, Bones: [4]int32{0, -1, -1, -1}, BoneWeights: [4]float32{1}},
				{Position: mgl32.Vec3{0, 11, 0}, Normal: mgl32.Vec3{0, 0, -1}, Bones: [4]int32{1, -1, -1, -1}, BoneWeights: [4]float32{1}},
			},
			Indices: []uint32{0, 1, 1},
		}},
		Morphs: rig.MorphSet{
			Names:   []string{"あ"},
			Weights: []float32{0},
			Offsets: [][]rig.VertexOffset{{{Vertex: 0, Offset: mgl32.Vec3{1, 0, 0}}}},
		},
	}
}

func TestSkinnerRestPose(t *testing.T) {
	m := model()
	s := NewSkinner(m)
	s.Update(m)
	for i, v := range m.Surfaces[0].Vertices {
		if !s.Positions[0][i].ApproxEqual(v.Position) {
			t.Errorf("vertex %d = %v, want %v", i, s.Positions[0][i], v.Position)
		}
	}
}

func TestSkinnerFollowsBones(t *testing.T) {
	m := model()
	s := NewSkinner(m)
	m.Skeleton.Bones[1].Translation = mgl32.Vec3{2, 0, 0}
	s.Update(m)
	if got := s.Positions[0][1]; !got.ApproxEqual(mgl32.Vec3{2, 11, 0}) {
		t.Errorf("head vertex = %v", got)
	}
	if got := s.Positions[0][0]; !got.ApproxEqual(mgl32.Vec3{}) {
		t.Errorf("root vertex moved to %v", got)
	}
}

func TestSkinnerAppliesMorphs(t *testing.T) {
	m := model()
	s := NewSkinner(m)
	m.Morphs.Set(0, 0.5)
	s.Update(m)
	if got := s.Positions[0][0]; !got.ApproxEqual(mgl32.Vec3{0.5, 0, 0}) {
		t.Errorf("morphed vertex = %v", got)
	}
}

func TestSkinnerBounds(t *testing.T) {
	m := model()
	s := NewSkinner(m)
	if _, _, ok := s.Bounds(); !ok {
		// Streams are zeroed before the first update.
		t.Fatal("no bounds")
	}
	s.Update(m)
	lo, hi, _ := s.Bounds()
	if lo != (mgl32.Vec3{0, 0, 0}) || hi != (mgl32.Vec3{0, 11, 0}) {
		t.Errorf("bounds = %v %v", lo, hi)
	}
}

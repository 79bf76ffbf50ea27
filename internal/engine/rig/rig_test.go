package rig

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testSkeleton() *Skeleton {
	return NewSkeleton([]Bone{
		{Name: "センター", Parent: -1},
		{Name: "上半身", Parent: 0},
		{Name: "首", Parent: 1},
		{Name: "頭", Parent: 2},
	})
}

func TestSkeletonIndex(t *testing.T) {
	s := testSkeleton()

	if i, ok := s.Index("首"); !ok || i != 2 {
		t.Errorf("Index(首) = %d, %v; want 2, true", i, ok)
	}
	if _, ok := s.Index("missing"); ok {
		t.Error("expected missing bone lookup to fail")
	}
	if s.Bone(10) != nil {
		t.Error("expected nil for out of range bone")
	}
}

func TestSkeletonResetPose(t *testing.T) {
	s := testSkeleton()
	s.Bones[1].Rotation = mgl32.AnglesToQuat(0.3, 0, 0, mgl32.XYZ)
	s.Bones[1].Translation = mgl32.Vec3{1, 2, 3}

	s.ResetPose()

	if s.Bones[1].Rotation != mgl32.QuatIdent() {
		t.Errorf("rotation not reset: %v", s.Bones[1].Rotation)
	}
	if s.Bones[1].Translation != (mgl32.Vec3{}) {
		t.Errorf("translation not reset: %v", s.Bones[1].Translation)
	}
}

func TestCaptureRestorePose(t *testing.T) {
	s := testSkeleton()
	s.Bones[3].Rotation = mgl32.AnglesToQuat(0, 0.2, 0, mgl32.XYZ)

	var p Pose
	s.CapturePose(&p)
	want := s.Bones[3].Rotation

	s.Bones[3].Rotation = mgl32.AnglesToQuat(1, 1, 1, mgl32.XYZ)
	s.RestorePose(&p)

	if s.Bones[3].Rotation != want {
		t.Errorf("restored rotation = %v, want %v", s.Bones[3].Rotation, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := testSkeleton()
	c := s.Clone()
	c.Bones[0].Name = "changed"

	if s.Bones[0].Name != "センター" {
		t.Error("clone shares bone storage with original")
	}
}

func TestMorphSet(t *testing.T) {
	m := NewMorphSet([]string{"まばたき", "にやり", "あ"})

	if !m.SetByName("にやり", 1.5) {
		t.Fatal("SetByName returned false for existing morph")
	}
	if got := m.WeightOf("にやり"); got != 1 {
		t.Errorf("weight = %v, want clamped 1", got)
	}
	if m.SetByName("missing", 0.5) {
		t.Error("SetByName returned true for missing morph")
	}

	m.Set(0, -1)
	if got := m.Weight(0); got != 0 {
		t.Errorf("weight = %v, want clamped 0", got)
	}

	if i, ok := m.Find([]string{"blink", "まばたき"}); !ok || i != 0 {
		t.Errorf("Find = %d, %v; want 0, true", i, ok)
	}

	m.Reset()
	for i, w := range m.Weights {
		if w != 0 {
			t.Errorf("weight %d = %v after reset", i, w)
		}
	}
}

func TestSkinMatricesIdentityAtRest(t *testing.T) {
	s := NewSkeleton([]Bone{
		{Name: "root", Parent: -1, Rest: mgl32.Vec3{0, 1, 0}},
		{Name: "child", Parent: 0, Rest: mgl32.Vec3{0, 2, 0}},
	})

	bind := s.BindPositions()
	if !bind[1].ApproxEqual(mgl32.Vec3{0, 3, 0}) {
		t.Fatalf("bind position = %v, want (0,3,0)", bind[1])
	}

	skin := s.SkinMatrices(nil, bind)
	for i, m := range skin {
		if !m.ApproxEqual(mgl32.Ident4()) {
			t.Errorf("skin matrix %d = %v, want identity", i, m)
		}
	}
}

func TestDeformAppliesMorphAndBones(t *testing.T) {
	s := NewSkeleton([]Bone{{Name: "root", Parent: -1}})
	surf := &Surface{Vertices: []Vertex{
		{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}, BoneWeights: [4]float32{1}},
	}}
	morphs := NewMorphSet([]string{"up"})
	morphs.Offsets = [][]VertexOffset{{{Vertex: 0, Offset: mgl32.Vec3{0, 2, 0}}}}
	morphs.Set(0, 0.5)

	s.Bones[0].Translation = mgl32.Vec3{0, 0, 3}
	skin := s.SkinMatrices(nil, s.BindPositions())

	pos := make([]mgl32.Vec3, 1)
	nrm := make([]mgl32.Vec3, 1)
	Deform(surf, 0, skin, &morphs, pos, nrm)

	if !pos[0].ApproxEqual(mgl32.Vec3{1, 1, 3}) {
		t.Errorf("deformed position = %v, want (1,1,3)", pos[0])
	}
	if !nrm[0].ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("deformed normal = %v, want (0,1,0)", nrm[0])
	}
}

package animation

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

type recordingSync struct {
	seeks  []float32
	resets int
}

func (r *recordingSync) Seek(t float32) { r.seeks = append(r.seeks, t) }
func (r *recordingSync) Reset()         { r.resets++ }

func clipOf(name string, duration float32) *Clip {
	return NewClip(name, []BoneTrack{{
		Bone: "頭",
		Keys: []BoneKey{
			{Time: 0, Rotation: mgl32.QuatIdent()},
			{Time: duration, Rotation: mgl32.AnglesToQuat(0, 1, 0, mgl32.XYZ)},
		},
	}}, nil)
}

func TestNewClipSortsAndDerivesDuration(t *testing.T) {
	c := NewClip("c", nil, []MorphTrack{{
		Morph: "あ",
		Keys:  []MorphKey{{Time: 3, Weight: 1}, {Time: 1, Weight: 0}},
	}})
	if c.Duration != 3 {
		t.Errorf("duration = %v, want 3", c.Duration)
	}
	if c.Morphs[0].Keys[0].Time != 1 {
		t.Error("keys not sorted by time")
	}
}

func TestSampleMorph(t *testing.T) {
	keys := []MorphKey{{Time: 1, Weight: 0}, {Time: 3, Weight: 1}}
	tests := []struct {
		t, want float32
	}{
		{0, 0},
		{1, 0},
		{2, 0.5},
		{3, 1},
		{10, 1},
	}
	for _, tt := range tests {
		if got := SampleMorph(keys, tt.t); math32.Abs(got-tt.want) > 1e-5 {
			t.Errorf("SampleMorph(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestSurrounding(t *testing.T) {
	times := []float32{0, 1, 1, 2, 4}
	at := func(i int) float32 { return times[i] }
	tests := []struct {
		t          float32
		prev, next int
	}{
		{-1, 0, 0},
		{0, 0, 1},
		{0.5, 0, 1},
		{1, 2, 3},
		{3, 3, 4},
		{4, 4, 4},
		{9, 4, 4},
	}
	for _, tt := range tests {
		prev, next := surrounding(len(times), tt.t, at)
		if prev != tt.prev || next != tt.next {
			t.Errorf("surrounding(%v) = %d, %d, want %d, %d", tt.t, prev, next, tt.prev, tt.next)
		}
	}
	if prev, next := surrounding(0, 1, at); prev != 0 || next != 0 {
		t.Errorf("surrounding on no keys = %d, %d", prev, next)
	}
}

func TestSampleMorphManyKeys(t *testing.T) {
	keys := make([]MorphKey, 3000)
	for i := range keys {
		keys[i] = MorphKey{Time: float32(i), Weight: float32(i % 2)}
	}
	for _, tt := range []struct{ t, want float32 }{
		{10.25, 0.25},
		{11.5, 0.5},
		{2998.75, 0.75},
		{5000, 1},
	} {
		if got := SampleMorph(keys, tt.t); math32.Abs(got-tt.want) > 1e-4 {
			t.Errorf("SampleMorph(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestSampleBoneInterpolates(t *testing.T) {
	keys := []BoneKey{
		{Time: 0, Translation: mgl32.Vec3{0, 0, 0}, Rotation: mgl32.QuatIdent()},
		{Time: 2, Translation: mgl32.Vec3{2, 0, 0}, Rotation: mgl32.QuatIdent()},
	}
	pos, rot := SampleBone(keys, 1)
	if !pos.ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("position = %v, want (1,0,0)", pos)
	}
	if !rot.ApproxEqual(mgl32.QuatIdent()) {
		t.Errorf("rotation = %v, want identity", rot)
	}

	if pos, _ := SampleBone(nil, 1); pos != (mgl32.Vec3{}) {
		t.Errorf("empty track position = %v", pos)
	}
}

func TestStateMachine(t *testing.T) {
	s := NewTrackSet()
	if s.State() != Unloaded {
		t.Fatalf("initial state = %s", s.State())
	}
	if err := s.Play(); !errors.Is(err, ErrNoTracks) {
		t.Errorf("Play on empty set = %v, want ErrNoTracks", err)
	}

	s.SetAutoplay(false)
	id := s.AddTrack("dance", clipOf("dance", 4))
	if s.State() != Loaded {
		t.Errorf("state after add = %s, want loaded", s.State())
	}

	s.Play()
	if s.State() != Playing {
		t.Errorf("state = %s, want playing", s.State())
	}
	s.Toggle()
	if s.State() != Paused {
		t.Errorf("state = %s, want paused", s.State())
	}

	s.Advance(1)
	if s.Time() != 0 {
		t.Errorf("paused advance moved time to %v", s.Time())
	}

	s.RemoveTrack(id)
	if s.State() != Unloaded || s.Duration() != 0 {
		t.Errorf("after removing all tracks: state %s duration %v", s.State(), s.Duration())
	}
}

func TestAddTrackRestartsPlayback(t *testing.T) {
	s := NewTrackSet()
	sync := &recordingSync{}
	s.BindSync(sync)

	s.AddTrack("a", clipOf("a", 5))
	s.Advance(0.04)
	s.Advance(0.04)

	s.AddTrack("b", clipOf("b", 8))
	if s.Time() != 0 || s.State() != Playing {
		t.Errorf("time %v state %s, want 0 playing", s.Time(), s.State())
	}
	if s.Duration() != 8 {
		t.Errorf("duration = %v, want 8", s.Duration())
	}
	if len(sync.seeks) != 2 {
		t.Errorf("seek signals = %d, want 2", len(sync.seeks))
	}
}

// Time stays within [0, duration] under any advance sequence.
func TestAdvanceKeepsTimeInRange(t *testing.T) {
	for _, loop := range []bool{true, false} {
		s := NewTrackSet()
		s.SetLoop(loop)
		s.AddTrack("a", clipOf("a", 1.5))
		s.SetSpeed(MaxSpeed)

		for i := 0; i < 500; i++ {
			s.Advance(float32(i%7) * 0.013)
			if tm := s.Time(); tm < 0 || tm > s.Duration() {
				t.Fatalf("loop=%v step %d: time %v outside [0, %v]", loop, i, tm, s.Duration())
			}
			if s.State() == Paused {
				s.Play()
			}
		}
	}
}

func TestLoopWrapEmitsOneReset(t *testing.T) {
	s := NewTrackSet()
	sync := &recordingSync{}
	s.BindSync(sync)
	s.AddTrack("a", clipOf("a", 1))

	s.Seek(0.98)
	if wraps := s.Advance(0.04); wraps != 1 {
		t.Errorf("wraps = %d, want 1", wraps)
	}
	if sync.resets != 1 {
		t.Errorf("resets = %d, want 1", sync.resets)
	}
	if tm := s.Time(); math32.Abs(tm-0.02) > 1e-4 {
		t.Errorf("time after wrap = %v, want 0.02", tm)
	}

	s.Advance(0.04)
	if sync.resets != 1 {
		t.Errorf("resets = %d after non-wrapping advance", sync.resets)
	}
}

func TestNoLoopClampsAndPauses(t *testing.T) {
	s := NewTrackSet()
	sync := &recordingSync{}
	s.BindSync(sync)
	s.SetLoop(false)
	s.AddTrack("a", clipOf("a", 1))

	s.Seek(0.99)
	s.Advance(0.05)

	if s.Time() != 1 || s.State() != Paused {
		t.Errorf("time %v state %s, want 1 paused", s.Time(), s.State())
	}
	if sync.resets != 0 {
		t.Errorf("resets = %d, want 0", sync.resets)
	}

	s.Play()
	if s.Time() != 0 {
		t.Errorf("play after end did not restart, time %v", s.Time())
	}
}

func TestSeekClampsAndSyncs(t *testing.T) {
	s := NewTrackSet()
	if err := s.Seek(1); !errors.Is(err, ErrNoTracks) {
		t.Errorf("Seek with no tracks = %v", err)
	}

	sync := &recordingSync{}
	s.BindSync(sync)
	s.AddTrack("a", clipOf("a", 2))

	s.Seek(5)
	if s.Time() != 2 {
		t.Errorf("time = %v, want clamped 2", s.Time())
	}
	s.Skip(-10)
	if s.Time() != 0 {
		t.Errorf("time = %v, want clamped 0", s.Time())
	}
	if last := sync.seeks[len(sync.seeks)-1]; last != 0 {
		t.Errorf("last synced time = %v, want 0", last)
	}
}

func TestDeactivatingLastTrackKeepsDuration(t *testing.T) {
	s := NewTrackSet()
	a := s.AddTrack("a", clipOf("a", 3))
	b := s.AddTrack("b", clipOf("b", 6))

	s.SetActive(b, false)
	if s.Duration() != 3 {
		t.Errorf("duration = %v, want 3", s.Duration())
	}
	s.SetActive(a, false)
	if s.Duration() != 3 {
		t.Errorf("duration = %v, want unchanged 3", s.Duration())
	}
	if s.HasActive() {
		t.Error("HasActive true with no active tracks")
	}

	if err := s.SetActive(uuid.New(), true); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("SetActive unknown = %v", err)
	}
}

func TestSetSpeed(t *testing.T) {
	s := NewTrackSet()
	for _, bad := range []float32{0, -1, 4.5} {
		if err := s.SetSpeed(bad); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("SetSpeed(%v) = %v", bad, err)
		}
	}
	if err := s.SetSpeed(4); err != nil {
		t.Errorf("SetSpeed(4) = %v", err)
	}
}

func TestResetPauses(t *testing.T) {
	s := NewTrackSet()
	s.AddTrack("a", clipOf("a", 2))
	s.Advance(0.05)
	s.Reset()
	if s.Time() != 0 || s.State() != Paused {
		t.Errorf("time %v state %s", s.Time(), s.State())
	}
}

func TestApplyLaterTrackOverrides(t *testing.T) {
	skel := rig.NewSkeleton([]rig.Bone{{Name: "頭", Parent: -1}})
	morphs := rig.NewMorphSet([]string{"あ"})

	first := NewClip("first", []BoneTrack{{
		Bone: "頭",
		Keys: []BoneKey{{Time: 0, Translation: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.QuatIdent()}},
	}}, []MorphTrack{{Morph: "あ", Keys: []MorphKey{{Time: 0, Weight: 0.25}}}})
	second := NewClip("second", []BoneTrack{{
		Bone: "頭",
		Keys: []BoneKey{{Time: 0, Translation: mgl32.Vec3{2, 0, 0}, Rotation: mgl32.QuatIdent()}},
	}, {
		Bone: "missing",
		Keys: []BoneKey{{Time: 0, Rotation: mgl32.QuatIdent()}},
	}}, nil)

	s := NewTrackSet()
	s.AddTrack("first", first)
	s.AddTrack("second", second)
	s.Apply(skel, &morphs)

	if got := skel.Bones[0].Translation; got != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("translation = %v, want later track (2,0,0)", got)
	}
	if got := morphs.WeightOf("あ"); got != 0.25 {
		t.Errorf("morph weight = %v, want 0.25", got)
	}
}

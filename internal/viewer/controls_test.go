package viewer

import (
	"context"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/character"
	"github.com/Faultbox/mmd-viewer/internal/engine/animation"
	"github.com/Faultbox/mmd-viewer/internal/engine/camera"
	"github.com/Faultbox/mmd-viewer/internal/engine/input"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
)

type inlineExec struct{}

func (inlineExec) Submit(job func()) { job() }

type models struct{}

func (models) LoadModel(_ context.Context, uri string) (*rig.Model, error) {
	skel := rig.NewSkeleton([]rig.Bone{{Name: "センター", Parent: -1}, {Name: "頭", Parent: 0}})
	return &rig.Model{
		Name:     uri,
		URI:      uri,
		Skeleton: *skel,
		Surfaces: []rig.Surface{{Materials: []rig.Material{{Name: "体"}}}},
		Morphs:   rig.NewMorphSet([]string{"まばたき"}),
	}, nil
}

type clips struct{}

func (clips) LoadClip(_ context.Context, uri string, _ *rig.Skeleton) (*animation.Clip, error) {
	return animation.NewClip(uri, []animation.BoneTrack{{
		Bone: "頭",
		Keys: []animation.BoneKey{
			{Time: 0, Rotation: mgl32.QuatIdent()},
			{Time: 10, Rotation: mgl32.QuatIdent()},
		},
	}}, nil), nil
}

type compiler struct{ next shader.Program }

func (c *compiler) Compile(shader.Source) (shader.Program, error) {
	c.next++
	return c.next, nil
}

func (c *compiler) Delete(shader.Program) {}

func newScene(t *testing.T) *character.Scene {
	t.Helper()
	session := character.NewSession(models{}, clips{}, &compiler{}, nil, nil, zap.NewNop())
	opts := character.DefaultOptions()
	opts.Physics.WarmupFrames = 0
	s := character.NewScene(session, inlineExec{}, opts)
	t.Cleanup(s.Close)
	return s
}

func withMotion(t *testing.T) (*character.Scene, *Controls, *character.Instance) {
	t.Helper()
	s := newScene(t)
	c := NewControls(s, camera.NewOrbitCamera(), nil)
	c.Open("miku.pmx")
	s.Tick(0)
	c.Open("dance.vmd")
	s.Tick(0)
	inst, ok := s.Active()
	if !ok || inst.Status != character.Ready || inst.Tracks.Len() != 1 {
		t.Fatalf("setup failed: %+v", inst)
	}
	return s, c, inst
}

func TestPlaybackActions(t *testing.T) {
	_, c, inst := withMotion(t)
	tracks := inst.Tracks

	c.Apply(input.ActionTogglePlay)
	if tracks.State() != animation.Paused {
		t.Errorf("state = %s after toggle, want paused", tracks.State())
	}

	c.Apply(input.ActionSeekEnd)
	if tracks.Time() != 10 {
		t.Errorf("time = %v after seek end", tracks.Time())
	}
	c.Apply(input.ActionSkipBack)
	if tracks.Time() != 5 {
		t.Errorf("time = %v after skip back", tracks.Time())
	}
	c.Apply(input.ActionSkipForward)
	c.Apply(input.ActionSkipForward)
	if tracks.Time() != 10 {
		t.Errorf("time = %v, want clamped to 10", tracks.Time())
	}
	c.Apply(input.ActionSeekStart)
	if tracks.Time() != 0 {
		t.Errorf("time = %v after seek start", tracks.Time())
	}

	c.Apply(input.ActionSpeedDouble)
	if tracks.Clock().Speed != 2 {
		t.Errorf("speed = %v", tracks.Clock().Speed)
	}

	loop := tracks.Clock().Loop
	c.Apply(input.ActionToggleLoop)
	if tracks.Clock().Loop == loop {
		t.Error("loop not toggled")
	}

	c.Apply(input.ActionTogglePlay)
	c.Apply(input.ActionReset)
	if tracks.State() != animation.Paused || tracks.Time() != 0 {
		t.Errorf("after reset: %s at %v", tracks.State(), tracks.Time())
	}
}

func TestVisibilityAndIdleActions(t *testing.T) {
	s, c, inst := withMotion(t)

	c.Apply(input.ActionToggleVisibility)
	if inst.Visible {
		t.Error("instance still visible")
	}

	on := s.IdleEnabled()
	c.Apply(input.ActionToggleIdle)
	if s.IdleEnabled() == on {
		t.Error("idle not toggled")
	}
}

func TestMorphActions(t *testing.T) {
	_, c, inst := withMotion(t)
	if got := c.SelectedMorph(); got != "まばたき" {
		t.Fatalf("selected morph = %q", got)
	}

	c.Apply(input.ActionMorphUp)
	c.Apply(input.ActionMorphUp)
	if w, ok := inst.Override("まばたき"); !ok || math32.Abs(w-0.2) > 1e-5 {
		t.Errorf("override = %v, %v after two steps up", w, ok)
	}
	c.Apply(input.ActionMorphDown)
	if w, _ := inst.Override("まばたき"); math32.Abs(w-0.1) > 1e-5 {
		t.Errorf("override = %v after step down", w)
	}

	// A single morph wraps onto itself.
	c.Apply(input.ActionNextMorph)
	c.Apply(input.ActionPrevMorph)
	if got := c.SelectedMorph(); got != "まばたき" {
		t.Errorf("selected morph = %q after cycling", got)
	}

	c.Apply(input.ActionClearMorph)
	if _, ok := inst.Override("まばたき"); ok {
		t.Error("override survived clear")
	}
	c.Apply(input.ActionMorphUp)
	c.Apply(input.ActionClearMorphs)
	if len(inst.Overrides()) != 0 {
		t.Errorf("overrides = %v after clear all", inst.Overrides())
	}
}

func TestRemoveMotionAction(t *testing.T) {
	_, c, inst := withMotion(t)
	c.Apply(input.ActionRemoveMotion)
	if inst.Tracks.Len() != 0 {
		t.Errorf("tracks = %d after remove", inst.Tracks.Len())
	}
	c.Apply(input.ActionRemoveMotion)
}

func TestTransformActions(t *testing.T) {
	_, c, inst := withMotion(t)
	c.Apply(input.ActionMoveRight)
	c.Apply(input.ActionMoveRight)
	c.Apply(input.ActionMoveLeft)
	if inst.Transform.Position[0] != input.MoveStep {
		t.Errorf("x = %v, want %v", inst.Transform.Position[0], input.MoveStep)
	}
	c.Apply(input.ActionResetTransform)
	if inst.Transform != character.DefaultTransform() {
		t.Errorf("transform = %+v after reset", inst.Transform)
	}
}

func TestReloadAndRemoveCharacter(t *testing.T) {
	s, c, inst := withMotion(t)
	gen := inst.Generation

	c.Apply(input.ActionReloadCharacter)
	if inst.Status != character.Loading || inst.Generation == gen {
		t.Fatalf("after reload: %s generation %d", inst.Status, inst.Generation)
	}
	s.Tick(0)
	if inst.Status != character.Ready || inst.Tracks.Len() != 0 {
		t.Errorf("reloaded: %s with %d tracks", inst.Status, inst.Tracks.Len())
	}

	c.Apply(input.ActionRemoveCharacter)
	if s.Len() != 0 {
		t.Errorf("scene has %d instances after remove", s.Len())
	}
	if _, ok := s.Active(); ok {
		t.Error("removed character still active")
	}
}

func TestNextCharacterCycles(t *testing.T) {
	s := newScene(t)
	c := NewControls(s, nil, nil)
	c.Open("a.pmx")
	c.Open("b.pmx")
	s.Tick(0)

	first, _ := s.Active()
	c.Apply(input.ActionNextCharacter)
	second, _ := s.Active()
	if second.ID == first.ID {
		t.Fatal("active did not change")
	}
	c.Apply(input.ActionNextCharacter)
	if back, _ := s.Active(); back.ID != first.ID {
		t.Error("selection did not wrap")
	}
}

func TestActionsWithoutCharacter(t *testing.T) {
	s := newScene(t)
	c := NewControls(s, nil, nil)
	for a := input.ActionNone; a <= input.ActionQuit; a++ {
		c.Apply(a)
	}
	c.Open("dance.vmd")
	if s.Len() != 0 {
		t.Errorf("motion drop created %d instances", s.Len())
	}
}

func TestQueuedMotionsWaitForReady(t *testing.T) {
	s := newScene(t)
	c := NewControls(s, nil, nil)
	c.Open("miku.pmx")
	c.Queue("dance.vmd")

	// The model completion is installed on the next tick.
	c.Flush()
	inst, _ := s.Active()
	if inst.Tracks.Len() != 0 {
		t.Fatal("motion added before the model was ready")
	}

	s.Tick(0)
	c.Flush()
	s.Tick(0)
	if inst.Tracks.Len() != 1 {
		t.Errorf("tracks = %d, want 1", inst.Tracks.Len())
	}
	c.Flush()
	s.Tick(0)
	if inst.Tracks.Len() != 1 {
		t.Error("queued motion added twice")
	}
}

func TestIsMotion(t *testing.T) {
	if !IsMotion("a/b/Dance.VMD") || IsMotion("miku.pmx") {
		t.Error("IsMotion misclassified")
	}
}

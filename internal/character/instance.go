// Package character owns loaded characters and runs their per-frame update:
// playback, physics, manual morphs, idle motion and shading parameters.
package character

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/engine/animation"
	"github.com/Faultbox/mmd-viewer/internal/engine/bones"
	"github.com/Faultbox/mmd-viewer/internal/engine/idle"
	"github.com/Faultbox/mmd-viewer/internal/engine/material"
	"github.com/Faultbox/mmd-viewer/internal/engine/physics"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
	"github.com/Faultbox/mmd-viewer/internal/logger"
)

// ErrUnknownMorph is returned when setting a morph the model does not have.
var ErrUnknownMorph = errors.New("character: unknown morph")

// PlaceholderColor is the flat color of a failed instance's marker box.
var PlaceholderColor = mgl32.Vec3{1, 0, 0}

// Status is the load status of an instance.
type Status int

const (
	Loading Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Transform places an instance in the scene. Rotation is Euler XYZ in
// radians.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    float32
}

// DefaultTransform is the identity placement.
func DefaultTransform() Transform {
	return Transform{Scale: 1}
}

// Matrix returns the model matrix.
func (t Transform) Matrix() mgl32.Mat4 {
	s := t.Scale
	if s == 0 {
		s = 1
	}
	rot := mgl32.AnglesToQuat(t.Rotation[0], t.Rotation[1], t.Rotation[2], mgl32.XYZ).Mat4()
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(s, s, s))
}

// Instance is one character in the scene.
type Instance struct {
	ID         uuid.UUID
	Name       string
	URI        string
	Model      *rig.Model
	Transform  Transform
	Visible    bool
	Status     Status
	Err        error
	Generation uint64

	Materials *material.Registry
	Shaders   map[material.Key]*shader.Instance
	Physics   *physics.Binding
	Tracks    *animation.TrackSet
	Idle      idle.State
	Bones     bones.Map

	// Placeholder is the fallback program of a failed instance.
	Placeholder *shader.Instance

	blinkMorph int
	smileMorph int
	overrides  map[string]float32

	rng  *rand.Rand
	once *logger.Once

	savedPose   rig.Pose
	savedMorphs []float32
}

func newInstance(id uuid.UUID, uri string, log *zap.Logger) *Instance {
	seed := binary.LittleEndian.Uint64(id[:8])
	rng := rand.New(rand.NewPCG(seed, binary.LittleEndian.Uint64(id[8:])))
	return &Instance{
		ID:         id,
		Name:       uri,
		URI:        uri,
		Transform:  DefaultTransform(),
		Visible:    true,
		Status:     Loading,
		Materials:  material.NewRegistry(),
		Shaders:    make(map[material.Key]*shader.Instance),
		Tracks:     animation.NewTrackSet(),
		Idle:       idle.NewState(rng),
		blinkMorph: -1,
		smileMorph: -1,
		overrides:  make(map[string]float32),
		rng:        rng,
		once:       logger.NewOnce(log.With(zap.String("instance", id.String()))),
	}
}

// SetMorph sets a manual override for a morph. The weight is clamped to
// [0, 1]. Overrides win over clip and idle morphs every frame.
func (i *Instance) SetMorph(name string, w float32) error {
	if i.Model != nil {
		if _, ok := i.Model.Morphs.Index(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownMorph, name)
		}
	}
	if math32.IsNaN(w) {
		w = 0
	}
	i.overrides[name] = mgl32.Clamp(w, 0, 1)
	return nil
}

// ClearMorph removes the override for a morph.
func (i *Instance) ClearMorph(name string) {
	delete(i.overrides, name)
}

// ClearMorphs removes every override.
func (i *Instance) ClearMorphs() {
	clear(i.overrides)
}

// Override returns the manual override of a morph, if any.
func (i *Instance) Override(name string) (float32, bool) {
	w, ok := i.overrides[name]
	return w, ok
}

// Overrides returns a copy of the manual overrides.
func (i *Instance) Overrides() map[string]float32 {
	out := make(map[string]float32, len(i.overrides))
	for k, v := range i.overrides {
		out[k] = v
	}
	return out
}

// MorphNames returns the morph names of the model, sorted.
func (i *Instance) MorphNames() []string {
	if i.Model == nil {
		return nil
	}
	names := append([]string(nil), i.Model.Morphs.Names...)
	sort.Strings(names)
	return names
}

// release drops the shader instances and physics binding.
func (i *Instance) release() {
	for k, si := range i.Shaders {
		si.Release()
		delete(i.Shaders, k)
	}
	i.Physics.Release()
	i.Physics = nil
	i.Placeholder.Release()
	i.Placeholder = nil
}

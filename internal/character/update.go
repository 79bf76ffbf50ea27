package character

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/config"
	"github.com/Faultbox/mmd-viewer/internal/engine/animation"
	"github.com/Faultbox/mmd-viewer/internal/engine/bones"
	"github.com/Faultbox/mmd-viewer/internal/engine/idle"
	"github.com/Faultbox/mmd-viewer/internal/engine/physics"
)

// MaxFrameDelta is the longest step a single update takes, in seconds.
const MaxFrameDelta = 0.05

// Frame sub-steps, also the keys of their once-only failure logs.
const (
	stepPose      = "pose"
	stepPhysics   = "physics"
	stepOverrides = "overrides"
	stepIdle      = "idle"
	stepShading   = "shading"
)

// Options are the per-scene behavior switches.
type Options struct {
	Animation config.AnimationConfig
	Physics   config.PhysicsConfig
	Idle      config.IdleConfig
}

// OptionsFromConfig extracts the scene options of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{Animation: cfg.Animation, Physics: cfg.Physics, Idle: cfg.Idle}
}

// DefaultOptions returns the options of the default configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// Input is the per-frame user input. Pointer coordinates are normalized to
// [-1, 1] with +y up.
type Input struct {
	PointerX, PointerY float32
}

// Updater runs the per-frame update of instances.
type Updater struct {
	settings SettingsProvider
	opts     Options
}

// NewUpdater creates an updater reading shading from settings.
func NewUpdater(settings SettingsProvider, opts Options) *Updater {
	if settings == nil {
		settings = config.NewStore(config.Default().Shading())
	}
	return &Updater{settings: settings, opts: opts}
}

// ClampDelta limits dt to [0, MaxFrameDelta]. Non-finite values become 0.
func ClampDelta(dt float32) float32 {
	if math32.IsNaN(dt) || math32.IsInf(dt, 0) || dt < 0 {
		return 0
	}
	return math32.Min(dt, MaxFrameDelta)
}

// Snapshot polls the settings provider. A panicking provider reports
// ok == false.
func (u *Updater) Snapshot() (snap config.Shading, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return u.settings.Snapshot(), true
}

// Update advances one instance by dt and pushes snap into its shader
// parameters. A nil snap keeps the previous parameters. Every sub-step runs
// even when an earlier one failed; a failed sub-step keeps its previous
// state.
func (u *Updater) Update(inst *Instance, dt float32, in Input, snap *config.Shading) {
	if inst == nil || inst.Status != Ready || inst.Model == nil {
		return
	}
	dt = ClampDelta(dt)

	inst.step(stepPose, func() { u.pose(inst, dt) })
	inst.step(stepOverrides, func() { applyOverrides(inst) })
	inst.step(stepIdle, func() { u.idle(inst, dt, in) })
	if snap == nil {
		return
	}
	inst.step(stepShading, func() {
		for _, si := range inst.Shaders {
			applyShading(si.Params, si.Category, *snap)
		}
	})
}

// step runs fn, converting a panic into a once-per-instance warning.
func (i *Instance) step(name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			i.once.Warn(name, "frame step failed", zap.String("step", name), zap.Any("panic", r))
		}
	}()
	fn()
	return true
}

// pose resets the skeleton and morphs, samples the active tracks and steps
// physics. A panic rolls the pose back to the previous frame's.
func (u *Updater) pose(inst *Instance, dt float32) {
	skel := &inst.Model.Skeleton
	morphs := &inst.Model.Morphs

	skel.CapturePose(&inst.savedPose)
	inst.savedMorphs = append(inst.savedMorphs[:0], morphs.Weights...)
	defer func() {
		if r := recover(); r != nil {
			skel.RestorePose(&inst.savedPose)
			copy(morphs.Weights, inst.savedMorphs)
			panic(r)
		}
	}()

	skel.ResetPose()
	morphs.Reset()

	tracks := inst.Tracks
	if !tracks.HasActive() {
		return
	}
	playing := tracks.State() == animation.Playing
	tracks.Advance(dt)
	tracks.Apply(skel, morphs)

	if !playing {
		return
	}
	simDt := dt * tracks.Clock().Speed
	if err := inst.Physics.Step(tracks.Time(), simDt); err != nil && !errors.Is(err, physics.ErrDisabled) {
		inst.once.Warn(stepPhysics, "physics step failed",
			zap.Int("failures", inst.Physics.Failures()),
			zap.Error(err))
	}
}

func applyOverrides(inst *Instance) {
	for name, w := range inst.overrides {
		inst.Model.Morphs.SetByName(name, w)
	}
}

// idle advances the idle state every frame but only writes it while no
// track is active.
func (u *Updater) idle(inst *Instance, dt float32, in Input) {
	next := idle.Advance(inst.Idle, dt, idle.Input{
		PointerX: in.PointerX,
		PointerY: in.PointerY,
		Gaze:     u.opts.Idle.GazeTracking,
		HasNeck:  inst.Bones.Has(bones.Neck),
	}, inst.rng)
	if err := finiteIdle(next); err != nil {
		panic(err)
	}
	inst.Idle = next

	if !u.opts.Idle.Enabled || inst.Tracks.HasActive() {
		return
	}
	idle.Apply(&inst.Idle, idle.Targets{
		Skeleton:   &inst.Model.Skeleton,
		Bones:      &inst.Bones,
		Morphs:     &inst.Model.Morphs,
		BlinkMorph: inst.blinkMorph,
		SmileMorph: inst.smileMorph,
	}, inst.overrides)
}

func finiteIdle(s idle.State) error {
	for r, e := range s.Pose {
		for _, v := range e {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return fmt.Errorf("idle pose %s is not finite", bones.Role(r))
			}
		}
	}
	return nil
}

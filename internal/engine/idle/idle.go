// Package idle generates procedural idle motion: breathing, blinking,
// weight shifts, arm sway, small gestures and gaze toward the pointer.
//
// The generator is split into a pure Advance step over an explicit State and
// an Apply step that writes the state into a skeleton and morph set. State
// keeps advancing while an authored clip plays so idle can resume without a
// jump.
package idle

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/engine/bones"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

// Morph name candidates, most common first.
var (
	BlinkMorphs = []string{"まばたき", "blink", "eye_close", "wink_2", "ウィンク２", "Blink"}
	SmileMorphs = []string{"にやり", "smile", "Smile", "にっこり", "a"}
)

const (
	blinkMinInterval   = 2
	blinkIntervalRange = 4
	doubleBlinkChance  = 0.2
	doubleBlinkDelay   = 0.15
	blinkCloseTime     = 0.06
	blinkOpenTime      = 0.08

	weightShiftMinInterval = 3
	weightShiftRange       = 4
	weightShiftAmplitude   = 0.04
	weightShiftRate        = 0.5

	breathFrequency = 1.2
	breathAmplitude = 0.012
	breathRate      = 3

	armSwayFrequency = 0.8
	armSwayAmplitude = 0.02
	armSwayRate      = 2

	firstGestureAt    = 3
	gestureMinGap     = 5
	gestureGapRange   = 8
	gestureRate       = 0.8
	headTiltAmplitude = 0.1
	lookAroundAmount  = 0.15
	torsoSwayAmount   = 0.02

	smileFrequency = 0.3
	smileAmplitude = 0.15
	smileRate      = 0.5

	gazeRate     = 1.5
	gazeLimit    = 0.4
	neckGainYaw  = 0.4
	neckGainTilt = 0.25
	neckShare    = 0.6
	headGainYaw  = 0.5
	headGainTilt = 0.3
	headShare    = 0.4
)

// Gesture is an occasional idle gesture.
type Gesture int

const (
	NoGesture Gesture = iota
	HeadTilt
	LookAround
	TorsoSway
)

func (g Gesture) String() string {
	switch g {
	case HeadTilt:
		return "head_tilt"
	case LookAround:
		return "look_around"
	case TorsoSway:
		return "torso_sway"
	}
	return "none"
}

// Input is the per-frame external input of the generator. Pointer
// coordinates are normalized to [-1, 1].
type Input struct {
	PointerX, PointerY float32
	Gaze               bool
	// HasNeck selects the neck for the look-around gesture, otherwise the
	// head turns.
	HasNeck bool
}

// State is the procedural idle state of one character.
type State struct {
	Elapsed float32

	Blink     float32
	Blinking  bool
	NextBlink float32

	WeightShift       float32
	WeightShiftTarget float32
	NextWeightShift   float32

	Gesture         Gesture
	GestureProgress float32
	NextGesture     float32

	ArmSwayOffset float32
	Smile         float32

	// NeckGaze and HeadGaze are the gaze tilt (X) and yaw (Y). Look is the
	// yaw offset of a running look-around gesture.
	NeckGaze mgl32.Vec2
	HeadGaze mgl32.Vec2
	Look     float32

	// Pose holds the Euler rotation (XYZ, radians) the generator drives per
	// role.
	Pose            [bones.RoleCount]mgl32.Vec3
	PoseInitialized bool
}

// NewState creates the initial idle state.
func NewState(rng *rand.Rand) State {
	return State{
		NextGesture:   firstGestureAt,
		ArmSwayOffset: rng.Float32() * 2 * math32.Pi,
	}
}

// approach moves cur toward target with a critically damped step.
func approach(cur, target, rate, dt float32) float32 {
	return cur + (target-cur)*(1-math32.Exp(-rate*dt))
}

// Advance returns the state after dt seconds. It never reads or writes the
// skeleton.
func Advance(s State, dt float32, in Input, rng *rand.Rand) State {
	if dt < 0 || math32.IsNaN(dt) || math32.IsInf(dt, 0) {
		dt = 0
	}
	s.Elapsed += dt
	t := s.Elapsed

	if !s.PoseInitialized {
		// Lower the arms out of the bind T-pose.
		s.Pose[bones.LeftArm] = mgl32.Vec3{0.15, 0, -0.8}
		s.Pose[bones.RightArm] = mgl32.Vec3{0.15, 0, 0.8}
		s.Pose[bones.LeftElbow] = mgl32.Vec3{0, 0.3, 0}
		s.Pose[bones.RightElbow] = mgl32.Vec3{0, -0.3, 0}
		s.PoseInitialized = true
	}

	// Breathing.
	breath := (math32.Sin(t*breathFrequency)*0.5 + 0.5) * breathAmplitude
	p := &s.Pose
	p[bones.UpperBody][0] = approach(p[bones.UpperBody][0], breath, breathRate, dt)
	p[bones.LeftShoulder][2] = approach(p[bones.LeftShoulder][2], breath*0.3, breathRate, dt)
	p[bones.RightShoulder][2] = approach(p[bones.RightShoulder][2], -breath*0.3, breathRate, dt)

	// Weight shift.
	if t > s.NextWeightShift {
		s.WeightShiftTarget = (rng.Float32() - 0.5) * weightShiftAmplitude
		s.NextWeightShift = t + weightShiftMinInterval + rng.Float32()*weightShiftRange
	}
	s.WeightShift = approach(s.WeightShift, s.WeightShiftTarget, weightShiftRate, dt)
	p[bones.LowerBody][2] = s.WeightShift
	p[bones.LowerBody][1] = s.WeightShift * 0.3

	// Arm sway.
	sway := math32.Sin(t*armSwayFrequency+s.ArmSwayOffset) * armSwayAmplitude
	p[bones.LeftArm][0] = approach(p[bones.LeftArm][0], sway, armSwayRate, dt)
	p[bones.RightArm][0] = approach(p[bones.RightArm][0], -sway, armSwayRate, dt)

	s = advanceGesture(s, dt, rng)
	s = advanceBlink(s, dt, rng)

	smile := (math32.Sin(t*smileFrequency)*0.5 + 0.5) * smileAmplitude
	s.Smile = approach(s.Smile, smile, smileRate, dt)

	// Gaze relaxes to neutral while it is off.
	var neck, head mgl32.Vec2
	if in.Gaze {
		mx, my := in.PointerX, in.PointerY
		neck = mgl32.Vec2{
			mgl32.Clamp(-my*neckGainTilt, -gazeLimit*0.6, gazeLimit*0.6) * neckShare,
			mgl32.Clamp(mx*neckGainYaw, -gazeLimit, gazeLimit) * neckShare,
		}
		head = mgl32.Vec2{
			mgl32.Clamp(-my*headGainTilt, -gazeLimit*0.7, gazeLimit*0.7) * headShare,
			mgl32.Clamp(mx*headGainYaw, -gazeLimit, gazeLimit) * headShare,
		}
	}
	for k := 0; k < 2; k++ {
		s.NeckGaze[k] = approach(s.NeckGaze[k], neck[k], gazeRate, dt)
		s.HeadGaze[k] = approach(s.HeadGaze[k], head[k], gazeRate, dt)
	}

	var neckLook, headLook float32
	if in.HasNeck {
		neckLook = s.Look
	} else {
		headLook = s.Look
	}
	p[bones.Neck][0] = s.NeckGaze[0]
	p[bones.Neck][1] = mgl32.Clamp(s.NeckGaze[1]+neckLook, -gazeLimit, gazeLimit)
	p[bones.Head][0] = s.HeadGaze[0]
	p[bones.Head][1] = mgl32.Clamp(s.HeadGaze[1]+headLook, -gazeLimit, gazeLimit)
	return s
}

func advanceGesture(s State, dt float32, rng *rand.Rand) State {
	t := s.Elapsed
	if t > s.NextGesture && s.Gesture == NoGesture {
		s.Gesture = Gesture(1 + rng.IntN(3))
		s.GestureProgress = 0
		s.NextGesture = t + gestureMinGap + rng.Float32()*gestureGapRange
	}
	if s.Gesture == NoGesture {
		return s
	}

	s.GestureProgress += dt * gestureRate
	v := math32.Sin(s.GestureProgress * math32.Pi)
	switch s.Gesture {
	case HeadTilt:
		s.Pose[bones.Head][2] = v * headTiltAmplitude
	case LookAround:
		// One full glance to each side.
		s.Look = math32.Sin(s.GestureProgress*2*math32.Pi) * lookAroundAmount
	case TorsoSway:
		s.Pose[bones.UpperBody][2] = v * torsoSwayAmount
	}
	if s.GestureProgress >= 1 {
		switch s.Gesture {
		case HeadTilt:
			s.Pose[bones.Head][2] = 0
		case LookAround:
			s.Look = 0
		case TorsoSway:
			s.Pose[bones.UpperBody][2] = 0
		}
		s.Gesture = NoGesture
	}
	return s
}

func advanceBlink(s State, dt float32, rng *rand.Rand) State {
	t := s.Elapsed
	if t > s.NextBlink && !s.Blinking {
		s.Blinking = true
		if rng.Float32() < doubleBlinkChance {
			s.NextBlink = t + doubleBlinkDelay
		} else {
			s.NextBlink = t + blinkMinInterval + rng.Float32()*blinkIntervalRange
		}
	}

	if s.Blinking {
		s.Blink += dt / blinkCloseTime
		if s.Blink >= 1 {
			s.Blink = 1
			s.Blinking = false
		}
	} else {
		s.Blink -= dt / blinkOpenTime
		if s.Blink < 0 {
			s.Blink = 0
		}
	}
	return s
}

// BlinkWeight returns the eased blink morph weight.
func (s *State) BlinkWeight() float32 {
	return smoothstep(s.Blink)
}

func smoothstep(x float32) float32 {
	x = mgl32.Clamp(x, 0, 1)
	return x * x * (3 - 2*x)
}

// Targets is where Apply writes the idle state.
type Targets struct {
	Skeleton *rig.Skeleton
	Bones    *bones.Map
	Morphs   *rig.MorphSet
	// BlinkMorph and SmileMorph are morph indices, -1 when the model has none.
	BlinkMorph int
	SmileMorph int
}

// ResolveMorphs finds the blink and smile morphs of a morph set.
func ResolveMorphs(m *rig.MorphSet) (blink, smile int) {
	blink, _ = m.Find(BlinkMorphs)
	smile, _ = m.Find(SmileMorphs)
	return blink, smile
}

// Apply writes the idle pose and morphs. Roles without a bone are skipped
// and morphs named in overrides are left untouched.
func Apply(s *State, t Targets, overrides map[string]float32) {
	if t.Skeleton != nil && t.Bones != nil {
		for r := bones.Role(0); r < bones.RoleCount; r++ {
			h, ok := t.Bones.Get(r)
			if !ok {
				continue
			}
			b := t.Skeleton.Bone(int(h))
			if b == nil {
				continue
			}
			e := s.Pose[r]
			b.Rotation = mgl32.AnglesToQuat(e[0], e[1], e[2], mgl32.XYZ)
		}
	}

	if t.Morphs == nil {
		return
	}
	writeMorph(t.Morphs, t.BlinkMorph, s.BlinkWeight(), overrides)
	writeMorph(t.Morphs, t.SmileMorph, s.Smile, overrides)
}

func writeMorph(m *rig.MorphSet, i int, w float32, overrides map[string]float32) {
	if i < 0 || i >= m.Len() {
		return
	}
	if _, ok := overrides[m.Names[i]]; ok {
		return
	}
	m.Set(i, w)
}

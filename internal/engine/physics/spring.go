package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

// Springs is a lightweight secondary motion subsystem. Bones flagged as
// dynamic lag behind their authored rotation like a damped spring; IK is not
// supported and is a no-op.
type Springs struct {
	// Stiffness is the approach rate toward the authored rotation, per second.
	Stiffness float32
}

// DefaultStiffness is used when Springs.Stiffness is zero.
const DefaultStiffness = 12

// Bind creates a spring solver over the dynamic bones of skel.
func (s Springs) Bind(skel *rig.Skeleton, _ Options) (Solver, error) {
	k := s.Stiffness
	if k <= 0 {
		k = DefaultStiffness
	}
	sv := &springSolver{stiffness: k}
	for i := range skel.Bones {
		if skel.Bones[i].Dynamic {
			sv.bones = append(sv.bones, i)
		}
	}
	sv.state = make([]mgl32.Quat, len(sv.bones))
	return sv, nil
}

type springSolver struct {
	stiffness float32
	bones     []int
	state     []mgl32.Quat
	primed    bool
}

func (s *springSolver) SolveIK(*rig.Skeleton) error { return nil }

func (s *springSolver) Simulate(skel *rig.Skeleton, _, dt float32) error {
	if !s.primed {
		s.snap(skel)
		return nil
	}
	f := 1 - math32.Exp(-s.stiffness*dt)
	for i, bi := range s.bones {
		target := skel.Bones[bi].Rotation
		s.state[i] = mgl32.QuatSlerp(s.state[i], target, f).Normalize()
		skel.Bones[bi].Rotation = s.state[i]
	}
	return nil
}

func (s *springSolver) snap(skel *rig.Skeleton) {
	for i, bi := range s.bones {
		s.state[i] = skel.Bones[bi].Rotation
	}
	s.primed = true
}

// Reset and Sync drop the lag so the next step starts from the authored pose.
func (s *springSolver) Reset()         { s.primed = false }
func (s *springSolver) Sync(_ float32) { s.primed = false }
func (s *springSolver) Close()         { s.bones, s.state = nil, nil }

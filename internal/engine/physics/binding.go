// Package physics binds an external physics and IK solver to a character
// skeleton and guards the rest of the frame against solver failures.
package physics

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

var (
	// ErrUnavailable is returned by Bind when no subsystem is present.
	ErrUnavailable = errors.New("physics: subsystem unavailable")

	// ErrDisabled is returned by Step after the breaker tripped and nothing
	// else can run.
	ErrDisabled = errors.New("physics: binding disabled")

	// ErrNonFinite is reported when a step leaves NaN or Inf in the pose.
	ErrNonFinite = errors.New("physics: non-finite pose")
)

// FailureThreshold is the number of consecutive failed steps that disables
// a binding.
const FailureThreshold = 3

// warmupStep is the fixed timestep of warmup frames.
const warmupStep = float32(1) / 60

// Options selects what the solver runs.
type Options struct {
	PhysicsEnabled bool
	IKEnabled      bool
	WarmupFrames   int
}

// Solver steps IK and secondary physics for one skeleton.
type Solver interface {
	SolveIK(skel *rig.Skeleton) error
	Simulate(skel *rig.Skeleton, t, dt float32) error
	Reset()
	Sync(t float32)
	Close()
}

// Subsystem creates solvers. A nil Subsystem means the capability is absent.
type Subsystem interface {
	Bind(skel *rig.Skeleton, opts Options) (Solver, error)
}

// State is the breaker state of a binding.
type State int

const (
	Active State = iota
	Disabled
)

func (s State) String() string {
	if s == Disabled {
		return "disabled"
	}
	return "active"
}

// Binding drives a solver for one character. A nil *Binding is valid and
// does nothing.
type Binding struct {
	solver   Solver
	skel     *rig.Skeleton
	opts     Options
	state    State
	failures int
	log      *zap.Logger
	saved    rig.Pose
}

// Bind creates a binding and runs the configured warmup frames.
func Bind(sub Subsystem, skel *rig.Skeleton, opts Options, log *zap.Logger) (*Binding, error) {
	if sub == nil {
		return nil, ErrUnavailable
	}
	if log == nil {
		log = zap.NewNop()
	}

	solver, err := sub.Bind(skel, opts)
	if err != nil {
		return nil, fmt.Errorf("bind solver: %w", err)
	}
	if solver == nil {
		return nil, ErrUnavailable
	}

	b := &Binding{solver: solver, skel: skel, opts: opts, log: log}
	for i := 0; i < opts.WarmupFrames && b.state == Active; i++ {
		_ = b.Step(0, warmupStep)
	}
	return b, nil
}

// Step runs IK then physics on the skeleton's current authored pose. On
// failure the pose from before the step is restored, so the caller always
// keeps a usable pose.
func (b *Binding) Step(t, dt float32) error {
	if b == nil {
		return nil
	}
	if b.solver == nil {
		return ErrDisabled
	}

	runIK := b.opts.IKEnabled
	runPhysics := b.opts.PhysicsEnabled && b.state == Active
	if !runIK && !runPhysics {
		if b.state == Disabled {
			return ErrDisabled
		}
		return nil
	}

	b.skel.CapturePose(&b.saved)

	err := b.run(func() error {
		if runIK {
			if err := b.solver.SolveIK(b.skel); err != nil {
				return fmt.Errorf("ik: %w", err)
			}
		}
		if runPhysics {
			if err := b.solver.Simulate(b.skel, t, dt); err != nil {
				return fmt.Errorf("simulate: %w", err)
			}
		}
		if !finitePose(b.skel) {
			return ErrNonFinite
		}
		return nil
	})
	if err == nil {
		b.failures = 0
		return nil
	}

	b.skel.RestorePose(&b.saved)
	if b.state == Active {
		b.failures++
		if b.failures >= FailureThreshold {
			b.trip(err)
		}
	}
	return err
}

func (b *Binding) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("solver panic: %v", r)
		}
	}()
	return fn()
}

func (b *Binding) trip(cause error) {
	b.state = Disabled
	b.log.Warn("physics disabled after repeated failures",
		zap.Int("failures", b.failures),
		zap.Bool("ik_only", b.opts.IKEnabled),
		zap.Error(cause))
}

// Reset snaps simulated state to the current pose. It is sent on loop wraps.
func (b *Binding) Reset() {
	if b == nil || b.solver == nil || b.state == Disabled {
		return
	}
	_ = b.run(func() error {
		b.solver.Reset()
		return nil
	})
}

// Seek resynchronizes the solver's time after a jump.
func (b *Binding) Seek(t float32) {
	if b == nil || b.solver == nil || b.state == Disabled {
		return
	}
	_ = b.run(func() error {
		b.solver.Sync(t)
		return nil
	})
}

// Disable permanently stops physics stepping. IK keeps running if enabled.
func (b *Binding) Disable() {
	if b == nil || b.state == Disabled {
		return
	}
	b.state = Disabled
	b.log.Info("physics disabled")
}

// Release closes the solver. The binding is unusable afterwards.
func (b *Binding) Release() {
	if b == nil || b.solver == nil {
		return
	}
	s := b.solver
	b.solver = nil
	b.state = Disabled
	_ = b.run(func() error {
		s.Close()
		return nil
	})
}

// State returns the breaker state.
func (b *Binding) State() State {
	if b == nil {
		return Disabled
	}
	return b.state
}

// Failures returns the current count of consecutive failed steps.
func (b *Binding) Failures() int {
	if b == nil {
		return 0
	}
	return b.failures
}

// Options returns the solver options of the binding.
func (b *Binding) Options() Options {
	if b == nil {
		return Options{}
	}
	return b.opts
}

func finitePose(s *rig.Skeleton) bool {
	for i := range s.Bones {
		bn := &s.Bones[i]
		for _, v := range bn.Translation {
			if !finite(v) {
				return false
			}
		}
		if !finite(bn.Rotation.W) {
			return false
		}
		for _, v := range bn.Rotation.V {
			if !finite(v) {
				return false
			}
		}
	}
	return true
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

// Skinner holds the CPU-side deformed vertex streams of one model.
type Skinner struct {
	bind      []mgl32.Vec3
	skin      []mgl32.Mat4
	Positions [][]mgl32.Vec3
	Normals   [][]mgl32.Vec3
}

// NewSkinner allocates streams for every surface of m. The bind pose is
// taken from the skeleton's rest positions.
func NewSkinner(m *rig.Model) *Skinner {
	s := &Skinner{
		bind:      m.Skeleton.BindPositions(),
		Positions: make([][]mgl32.Vec3, len(m.Surfaces)),
		Normals:   make([][]mgl32.Vec3, len(m.Surfaces)),
	}
	for i := range m.Surfaces {
		n := len(m.Surfaces[i].Vertices)
		s.Positions[i] = make([]mgl32.Vec3, n)
		s.Normals[i] = make([]mgl32.Vec3, n)
	}
	return s
}

// Update deforms every surface with the model's current pose and morph
// weights.
func (s *Skinner) Update(m *rig.Model) {
	s.skin = m.Skeleton.SkinMatrices(s.skin, s.bind)
	for i := range m.Surfaces {
		if i >= len(s.Positions) {
			break
		}
		rig.Deform(&m.Surfaces[i], i, s.skin, &m.Morphs, s.Positions[i], s.Normals[i])
	}
}

// Bounds returns the axis-aligned bounds of the deformed positions.
func (s *Skinner) Bounds() (lo, hi mgl32.Vec3, ok bool) {
	for _, surf := range s.Positions {
		for _, p := range surf {
			if !ok {
				lo, hi, ok = p, p, true
				continue
			}
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
		}
	}
	return lo, hi, ok
}

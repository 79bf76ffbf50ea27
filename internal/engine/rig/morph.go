package rig

import "github.com/go-gl/mathgl/mgl32"

// MorphSet is the morph target dictionary of a model with one weight per
// target. Names, Weights and Offsets share indices.
type MorphSet struct {
	Names   []string
	Weights []float32

	// Offsets holds the vertex displacements of each morph, applied to the
	// first surface. Nil for morphs without vertex data.
	Offsets [][]VertexOffset
}

// VertexOffset displaces one vertex at full morph weight.
type VertexOffset struct {
	Vertex int
	Offset mgl32.Vec3
}

// NewMorphSet creates a morph set with all weights at zero.
func NewMorphSet(names []string) MorphSet {
	return MorphSet{
		Names:   names,
		Weights: make([]float32, len(names)),
	}
}

// Len returns the number of morph targets.
func (m *MorphSet) Len() int {
	return len(m.Names)
}

// Index returns the index of the morph with exactly the given name.
func (m *MorphSet) Index(name string) (int, bool) {
	for i, n := range m.Names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Find returns the first morph present from an ordered list of candidates.
func (m *MorphSet) Find(candidates []string) (int, bool) {
	for _, c := range candidates {
		if i, ok := m.Index(c); ok {
			return i, true
		}
	}
	return -1, false
}

// Set writes a weight by index, clamped to [0, 1]. Out of range is ignored.
func (m *MorphSet) Set(i int, w float32) {
	if i < 0 || i >= len(m.Weights) {
		return
	}
	m.Weights[i] = clamp01(w)
}

// SetByName writes a weight by name and reports whether the morph exists.
func (m *MorphSet) SetByName(name string, w float32) bool {
	i, ok := m.Index(name)
	if !ok {
		return false
	}
	m.Set(i, w)
	return true
}

// Weight returns the weight at index i, or 0 when out of range.
func (m *MorphSet) Weight(i int) float32 {
	if i < 0 || i >= len(m.Weights) {
		return 0
	}
	return m.Weights[i]
}

// WeightOf returns the weight of the named morph, or 0 when absent.
func (m *MorphSet) WeightOf(name string) float32 {
	i, _ := m.Index(name)
	return m.Weight(i)
}

// Reset sets every weight back to zero.
func (m *MorphSet) Reset() {
	for i := range m.Weights {
		m.Weights[i] = 0
	}
}

func clamp01(v float32) float32 {
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

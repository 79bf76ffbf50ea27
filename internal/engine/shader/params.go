package shader

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Params is the uniform parameter block of one shader instance. The set of
// uniform names is fixed when the block is declared; setters ignore names the
// program does not have.
type Params struct {
	floats map[string]float32
	vec3s  map[string]mgl32.Vec3
}

// NewParams creates an empty parameter block.
func NewParams() *Params {
	return &Params{
		floats: make(map[string]float32),
		vec3s:  make(map[string]mgl32.Vec3),
	}
}

// DeclareFloat adds a float uniform with its default value.
func (p *Params) DeclareFloat(name string, v float32) *Params {
	p.floats[name] = v
	return p
}

// DeclareVec3 adds a vec3 uniform with its default value.
func (p *Params) DeclareVec3(name string, v mgl32.Vec3) *Params {
	p.vec3s[name] = v
	return p
}

// SetFloat updates a declared float uniform and reports whether it exists.
func (p *Params) SetFloat(name string, v float32) bool {
	if _, ok := p.floats[name]; !ok {
		return false
	}
	p.floats[name] = v
	return true
}

// SetVec3 updates a declared vec3 uniform and reports whether it exists.
func (p *Params) SetVec3(name string, v mgl32.Vec3) bool {
	if _, ok := p.vec3s[name]; !ok {
		return false
	}
	p.vec3s[name] = v
	return true
}

// SetBool stores a boolean flag uniform as 0 or 1.
func (p *Params) SetBool(name string, v bool) bool {
	if v {
		return p.SetFloat(name, 1)
	}
	return p.SetFloat(name, 0)
}

// Float returns a float uniform value.
func (p *Params) Float(name string) (float32, bool) {
	v, ok := p.floats[name]
	return v, ok
}

// Vec3 returns a vec3 uniform value.
func (p *Params) Vec3(name string) (mgl32.Vec3, bool) {
	v, ok := p.vec3s[name]
	return v, ok
}

// FloatNames returns the declared float uniforms in sorted order.
func (p *Params) FloatNames() []string {
	return sortedKeys(p.floats)
}

// Vec3Names returns the declared vec3 uniforms in sorted order.
func (p *Params) Vec3Names() []string {
	return sortedKeys(p.vec3s)
}

// Len returns the number of declared uniforms.
func (p *Params) Len() int {
	return len(p.floats) + len(p.vec3s)
}

// Clone returns an independent copy of the block.
func (p *Params) Clone() *Params {
	c := &Params{
		floats: make(map[string]float32, len(p.floats)),
		vec3s:  make(map[string]mgl32.Vec3, len(p.vec3s)),
	}
	for k, v := range p.floats {
		c.floats[k] = v
	}
	for k, v := range p.vec3s {
		c.vec3s[k] = v
	}
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

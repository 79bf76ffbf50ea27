package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/character"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
)

// Marker box drawn in place of a model that failed to load.
const (
	placeholderSize    = 0.3
	placeholderCenterY = 0.5
)

// BoxGeometry is an axis aligned box with one quad per face.
type BoxGeometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
}

// PlaceholderBox builds a cube of edge size centered at (0, centerY, 0).
func PlaceholderBox(size, centerY float32) BoxGeometry {
	h := size / 2
	c := mgl32.Vec3{0, centerY, 0}
	faces := []struct {
		n, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
	}

	var g BoxGeometry
	for _, f := range faces {
		base := uint32(len(g.Positions))
		center := c.Add(f.n.Mul(h))
		for _, corner := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := center.Add(f.u.Mul(corner[0] * h)).Add(f.v.Mul(corner[1] * h))
			g.Positions = append(g.Positions, p)
			g.Normals = append(g.Normals, f.n)
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// placeholderMesh is the GPU copy of the marker box, shared by every failed
// instance.
type placeholderMesh struct {
	vao     uint32
	buffers [4]uint32
	count   int32
}

func newPlaceholderMesh() *placeholderMesh {
	g := PlaceholderBox(placeholderSize, placeholderCenterY)
	uvs := make([]mgl32.Vec2, len(g.Positions))

	pm := &placeholderMesh{count: int32(len(g.Indices))}
	gl.GenVertexArrays(1, &pm.vao)
	gl.BindVertexArray(pm.vao)
	pm.buffers[0] = vertexBuffer(0, 3, len(g.Positions)*12, gl.STATIC_DRAW, gl.Ptr(g.Positions))
	pm.buffers[1] = vertexBuffer(1, 3, len(g.Normals)*12, gl.STATIC_DRAW, gl.Ptr(g.Normals))
	pm.buffers[2] = vertexBuffer(2, 2, len(uvs)*8, gl.STATIC_DRAW, gl.Ptr(uvs))

	gl.GenBuffers(1, &pm.buffers[3])
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, pm.buffers[3])
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, gl.Ptr(g.Indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)
	return pm
}

// Draw renders the box for a failed instance with its placeholder program.
func (pm *placeholderMesh) Draw(inst *character.Instance, up *shader.GLUploader, view, proj mgl32.Mat4) {
	if !up.Use(inst.Placeholder) {
		return
	}
	p := inst.Placeholder.Program()
	setMat4(up.Location(p, "uModel"), inst.Transform.Matrix())
	setMat4(up.Location(p, "uView"), view)
	setMat4(up.Location(p, "uProjection"), proj)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	setCulling(false)

	gl.BindVertexArray(pm.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, pm.count, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func (pm *placeholderMesh) Delete() {
	gl.DeleteBuffers(int32(len(pm.buffers)), &pm.buffers[0])
	gl.DeleteVertexArrays(1, &pm.vao)
}

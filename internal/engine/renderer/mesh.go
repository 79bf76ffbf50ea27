package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/character"
	"github.com/Faultbox/mmd-viewer/internal/engine/material"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
)

// surfaceBuffers holds the GPU buffers of one surface.
type surfaceBuffers struct {
	vao       uint32
	positions uint32
	normals   uint32
	uvs       uint32
	indices   uint32
	textures  []uint32
}

// Mesh is the GPU copy of one instance's model. Positions and normals are
// re-uploaded every frame from the CPU skinner.
type Mesh struct {
	Model      *rig.Model
	Generation uint64

	skinner  *Skinner
	surfaces []surfaceBuffers
}

// NewMesh uploads the static streams of m.
func NewMesh(m *rig.Model, gen uint64, textures *Textures) *Mesh {
	mesh := &Mesh{
		Model:      m,
		Generation: gen,
		skinner:    NewSkinner(m),
		surfaces:   make([]surfaceBuffers, len(m.Surfaces)),
	}

	for i := range m.Surfaces {
		surf := &m.Surfaces[i]
		sb := &mesh.surfaces[i]
		n := len(surf.Vertices)

		uvs := make([]mgl32.Vec2, n)
		for v := range surf.Vertices {
			uvs[v] = surf.Vertices[v].UV
		}

		gl.GenVertexArrays(1, &sb.vao)
		gl.BindVertexArray(sb.vao)

		sb.positions = vertexBuffer(0, 3, n*12, gl.DYNAMIC_DRAW, nil)
		sb.normals = vertexBuffer(1, 3, n*12, gl.DYNAMIC_DRAW, nil)
		var uvPtr unsafe.Pointer
		if n > 0 {
			uvPtr = gl.Ptr(uvs)
		}
		sb.uvs = vertexBuffer(2, 2, n*8, gl.STATIC_DRAW, uvPtr)

		gl.GenBuffers(1, &sb.indices)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, sb.indices)
		if len(surf.Indices) > 0 {
			gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(surf.Indices)*4, gl.Ptr(surf.Indices), gl.STATIC_DRAW)
		}

		gl.BindVertexArray(0)

		sb.textures = make([]uint32, len(surf.Materials))
		for k := range surf.Materials {
			sb.textures[k] = textures.Get(surf.Materials[k].Texture)
		}
	}
	return mesh
}

func vertexBuffer(location uint32, size int32, bytes int, usage uint32, data unsafe.Pointer) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, bytes, data, usage)
	gl.VertexAttribPointerWithOffset(location, size, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(location)
	return vbo
}

// Update skins the model and re-uploads positions and normals.
func (m *Mesh) Update() {
	m.skinner.Update(m.Model)
	for i := range m.surfaces {
		pos, nrm := m.skinner.Positions[i], m.skinner.Normals[i]
		if len(pos) == 0 {
			continue
		}
		sb := &m.surfaces[i]
		gl.BindBuffer(gl.ARRAY_BUFFER, sb.positions)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(pos)*12, gl.Ptr(pos))
		gl.BindBuffer(gl.ARRAY_BUFFER, sb.normals)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(nrm)*12, gl.Ptr(nrm))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Draw issues one draw call per material slot with its shader instance.
// Slots without a program are skipped.
func (m *Mesh) Draw(inst *character.Instance, up *shader.GLUploader, model, view, proj mgl32.Mat4) {
	for i := range m.Model.Surfaces {
		surf := &m.Model.Surfaces[i]
		sb := &m.surfaces[i]
		gl.BindVertexArray(sb.vao)

		for k := range surf.Materials {
			mat := &surf.Materials[k]
			sh := inst.Shaders[material.Key{Surface: i, Material: k}]
			if mat.IndexCount == 0 || !up.Use(sh) {
				continue
			}
			p := sh.Program()
			setMat4(up.Location(p, "uModel"), model)
			setMat4(up.Location(p, "uView"), view)
			setMat4(up.Location(p, "uProjection"), proj)

			tex := sb.textures[k]
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, tex)
			if loc := up.Location(p, "uMap"); loc >= 0 {
				gl.Uniform1i(loc, 0)
			}
			if tex == 0 {
				if loc := up.Location(p, "uHasMap"); loc >= 0 {
					gl.Uniform1f(loc, 0)
				}
			}

			setCulling(cullBackFaces(mat, sh))

			gl.DrawElementsWithOffset(gl.TRIANGLES, int32(mat.IndexCount), gl.UNSIGNED_INT, uintptr(mat.IndexStart*4))
		}
	}
	gl.BindVertexArray(0)
}

// cullBackFaces reports whether a material slot is drawn with back-face
// culling. Fallback programs draw both sides.
func cullBackFaces(mat *rig.Material, sh *shader.Instance) bool {
	return !mat.DoubleSided && !sh.IsFallback
}

func setCulling(on bool) {
	if !on {
		gl.Disable(gl.CULL_FACE)
		return
	}
	gl.Enable(gl.CULL_FACE)
	// PMX winding is clockwise.
	gl.FrontFace(gl.CW)
}

func setMat4(loc int32, m mgl32.Mat4) {
	if loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

// Delete frees the GPU buffers. Textures are owned by the texture cache.
func (m *Mesh) Delete() {
	for i := range m.surfaces {
		sb := &m.surfaces[i]
		buffers := []uint32{sb.positions, sb.normals, sb.uvs, sb.indices}
		gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
		gl.DeleteVertexArrays(1, &sb.vao)
	}
	m.surfaces = nil
}

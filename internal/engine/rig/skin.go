package rig

import "github.com/go-gl/mathgl/mgl32"

// WorldMatrices computes the model-space transform of every bone from the
// current local pose. Bones may appear before their parents.
func (s *Skeleton) WorldMatrices(dst []mgl32.Mat4) []mgl32.Mat4 {
	n := s.Len()
	if cap(dst) < n {
		dst = make([]mgl32.Mat4, n)
	}
	dst = dst[:n]

	done := make([]bool, n)
	var resolve func(i int) mgl32.Mat4
	resolve = func(i int) mgl32.Mat4 {
		if done[i] {
			return dst[i]
		}
		b := &s.Bones[i]
		local := mgl32.Translate3D(b.Rest[0]+b.Translation[0], b.Rest[1]+b.Translation[1], b.Rest[2]+b.Translation[2]).
			Mul4(b.Rotation.Normalize().Mat4())
		// Mark before recursing so a malformed parent cycle terminates.
		done[i] = true
		dst[i] = local
		if p := b.Parent; p >= 0 && p < n && p != i {
			dst[i] = resolve(p).Mul4(local)
		}
		return dst[i]
	}
	for i := 0; i < n; i++ {
		resolve(i)
	}
	return dst
}

// BindPositions returns the model-space rest position of every bone.
func (s *Skeleton) BindPositions() []mgl32.Vec3 {
	n := s.Len()
	out := make([]mgl32.Vec3, n)
	done := make([]bool, n)
	var resolve func(i int) mgl32.Vec3
	resolve = func(i int) mgl32.Vec3 {
		if done[i] {
			return out[i]
		}
		done[i] = true
		out[i] = s.Bones[i].Rest
		if p := s.Bones[i].Parent; p >= 0 && p < n && p != i {
			out[i] = resolve(p).Add(s.Bones[i].Rest)
		}
		return out[i]
	}
	for i := 0; i < n; i++ {
		resolve(i)
	}
	return out
}

// SkinMatrices combines the current world transforms with the inverse bind
// pose, ready for linear blend skinning.
func (s *Skeleton) SkinMatrices(dst []mgl32.Mat4, bind []mgl32.Vec3) []mgl32.Mat4 {
	dst = s.WorldMatrices(dst)
	for i := range dst {
		if i < len(bind) {
			b := bind[i]
			dst[i] = dst[i].Mul4(mgl32.Translate3D(-b[0], -b[1], -b[2]))
		}
	}
	return dst
}

// Deform writes the skinned and morphed positions and normals of a surface.
// Morph offsets are applied only when surface is the first surface.
func Deform(surf *Surface, surface int, skin []mgl32.Mat4, morphs *MorphSet, pos, nrm []mgl32.Vec3) {
	n := len(surf.Vertices)
	for i := 0; i < n && i < len(pos); i++ {
		pos[i] = surf.Vertices[i].Position
	}

	if surface == 0 && morphs != nil {
		for m, offsets := range morphs.Offsets {
			w := morphs.Weight(m)
			if w == 0 {
				continue
			}
			for _, o := range offsets {
				if o.Vertex >= 0 && o.Vertex < n && o.Vertex < len(pos) {
					pos[o.Vertex] = pos[o.Vertex].Add(o.Offset.Mul(w))
				}
			}
		}
	}

	for i := 0; i < n && i < len(pos) && i < len(nrm); i++ {
		v := &surf.Vertices[i]
		var p, q mgl32.Vec3
		var total float32
		for k := 0; k < 4; k++ {
			w := v.BoneWeights[k]
			b := int(v.Bones[k])
			if w <= 0 || b < 0 || b >= len(skin) {
				continue
			}
			p = p.Add(skin[b].Mul4x1(pos[i].Vec4(1)).Vec3().Mul(w))
			q = q.Add(skin[b].Mul4x1(v.Normal.Vec4(0)).Vec3().Mul(w))
			total += w
		}
		if total == 0 {
			nrm[i] = v.Normal
			continue
		}
		pos[i] = p.Mul(1 / total)
		if l := q.Len(); l > 0 {
			nrm[i] = q.Mul(1 / l)
		} else {
			nrm[i] = v.Normal
		}
	}
}

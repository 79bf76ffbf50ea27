// Package pmx loads MMD models (.pmx) and motions (.vmd) into rig and
// animation data.
package pmx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/binzume/modelconv/geom"
	"github.com/binzume/modelconv/mmd"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/engine/animation"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

// FrameRate is the keyframe timebase of VMD motions.
const FrameRate = 30

// Loader reads model and motion files from disk.
type Loader struct {
	log *zap.Logger
}

// New creates a loader.
func New(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// LoadModel parses the PMX file at uri.
func (l *Loader) LoadModel(ctx context.Context, uri string) (*rig.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	doc, err := mmd.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse pmx: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := Convert(doc, filepath.Dir(uri))
	m.URI = uri
	l.log.Info("model loaded",
		zap.String("name", m.Name),
		zap.Int("bones", m.Skeleton.Len()),
		zap.Int("materials", m.MaterialCount()),
		zap.Int("morphs", m.Morphs.Len()))
	return m, nil
}

// LoadClip parses the VMD file at uri. Tracks are keyed by bone and morph
// name, so the clip does not depend on skel; it is only used to report how
// many tracks bind.
func (l *Loader) LoadClip(ctx context.Context, uri string, skel *rig.Skeleton) (*animation.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("open motion: %w", err)
	}
	defer f.Close()

	anim, err := mmd.NewVMDParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse vmd: %w", err)
	}

	name := anim.Name
	if name == "" {
		name = filepath.Base(uri)
	}
	clip := ConvertMotion(name, anim)

	bound := 0
	for i := range clip.Bones {
		if _, ok := skel.Index(clip.Bones[i].Bone); ok {
			bound++
		}
	}
	l.log.Info("motion loaded",
		zap.String("name", clip.Name),
		zap.Float32("duration", clip.Duration),
		zap.Int("bone_tracks", len(clip.Bones)),
		zap.Int("bound_tracks", bound),
		zap.Int("morph_tracks", len(clip.Morphs)))
	return clip, nil
}

// Convert builds a model from a parsed PMX document. Texture paths are
// resolved against dir.
func Convert(doc *mmd.Document, dir string) *rig.Model {
	m := &rig.Model{Name: doc.Name}

	dynamic := make(map[int]bool)
	for _, b := range doc.Bodies {
		// Mode 0 bodies follow their bone, the others are simulated.
		if b.Mode != 0 {
			dynamic[b.Bone] = true
		}
	}

	bonesOut := make([]rig.Bone, len(doc.Bones))
	for i, b := range doc.Bones {
		rest := vec3(b.Pos)
		parent := b.ParentID
		if parent < 0 || parent >= len(doc.Bones) || parent == i {
			parent = -1
		} else {
			rest = rest.Sub(vec3(doc.Bones[parent].Pos))
		}
		bonesOut[i] = rig.Bone{
			Name:    b.Name,
			NameEn:  b.NameEn,
			Parent:  parent,
			Rest:    rest,
			Dynamic: dynamic[i],
		}
	}
	m.Skeleton = *rig.NewSkeleton(bonesOut)

	surf := rig.Surface{Name: doc.Name}
	surf.Vertices = make([]rig.Vertex, len(doc.Vertexes))
	for i, v := range doc.Vertexes {
		out := rig.Vertex{
			Position: vec3(v.Pos),
			Normal:   vec3(v.Normal),
			UV:       mgl32.Vec2{v.UV.X, v.UV.Y},
			Bones:    [4]int32{-1, -1, -1, -1},
		}
		for k := 0; k < len(v.Bones) && k < 4; k++ {
			out.Bones[k] = int32(v.Bones[k])
			if k < len(v.BoneWeights) {
				out.BoneWeights[k] = v.BoneWeights[k]
			}
		}
		surf.Vertices[i] = out
	}

	surf.Indices = make([]uint32, 0, len(doc.Faces)*3)
	for _, f := range doc.Faces {
		for _, vi := range f.Verts {
			surf.Indices = append(surf.Indices, uint32(vi))
		}
	}

	start := 0
	for _, mat := range doc.Materials {
		out := rig.Material{
			Name:        mat.Name,
			NameEn:      mat.NameEn,
			Color:       mgl32.Vec4{mat.Color.X, mat.Color.Y, mat.Color.Z, mat.Color.W},
			DoubleSided: mat.Flags&mmd.MaterialFlagDoubleSided != 0,
			IndexStart:  start,
			IndexCount:  mat.Count,
		}
		if mat.TextureID >= 0 && mat.TextureID < len(doc.Textures) {
			out.Texture = filepath.Join(dir, filepath.FromSlash(doc.Textures[mat.TextureID]))
		}
		if out.IndexStart+out.IndexCount > len(surf.Indices) {
			out.IndexCount = max(0, len(surf.Indices)-out.IndexStart)
		}
		start += mat.Count
		surf.Materials = append(surf.Materials, out)
	}
	m.Surfaces = []rig.Surface{surf}

	names := make([]string, len(doc.Morphs))
	offsets := make([][]rig.VertexOffset, len(doc.Morphs))
	for i, mo := range doc.Morphs {
		names[i] = mo.Name
		for _, v := range mo.Vertex {
			offsets[i] = append(offsets[i], rig.VertexOffset{Vertex: v.Target, Offset: vec3(v.Offset)})
		}
	}
	m.Morphs = rig.NewMorphSet(names)
	m.Morphs.Offsets = offsets
	return m
}

// ConvertMotion groups VMD samples into per-bone and per-morph tracks.
func ConvertMotion(name string, anim *mmd.Animation) *animation.Clip {
	var boneTracks []animation.BoneTrack
	boneIdx := make(map[string]int)
	for _, s := range anim.Bone {
		i, ok := boneIdx[s.Target]
		if !ok {
			i = len(boneTracks)
			boneIdx[s.Target] = i
			boneTracks = append(boneTracks, animation.BoneTrack{Bone: s.Target})
		}
		boneTracks[i].Keys = append(boneTracks[i].Keys, animation.BoneKey{
			Time:        float32(s.Frame) / FrameRate,
			Translation: vec3(s.Position),
			Rotation:    quat(s.Rotation),
		})
	}

	var morphTracks []animation.MorphTrack
	morphIdx := make(map[string]int)
	for _, s := range anim.Morph {
		i, ok := morphIdx[s.Target]
		if !ok {
			i = len(morphTracks)
			morphIdx[s.Target] = i
			morphTracks = append(morphTracks, animation.MorphTrack{Morph: s.Target})
		}
		morphTracks[i].Keys = append(morphTracks[i].Keys, animation.MorphKey{
			Time:   float32(s.Frame) / FrameRate,
			Weight: s.Value,
		})
	}

	return animation.NewClip(name, boneTracks, morphTracks)
}

func vec3(v geom.Vector3) mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func quat(q geom.Vector4) mgl32.Quat {
	out := mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}}
	if out.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return out.Normalize()
}

// Package animation samples authored motion clips and owns playback time.
package animation

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// BoneKey is one bone keyframe. Translation is an offset from the rest
// position.
type BoneKey struct {
	Time        float32
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
}

// BoneTrack holds the keyframes of one bone, sorted by time.
type BoneTrack struct {
	Bone string
	Keys []BoneKey
}

// MorphKey is one morph weight keyframe.
type MorphKey struct {
	Time   float32
	Weight float32
}

// MorphTrack holds the keyframes of one morph, sorted by time.
type MorphTrack struct {
	Morph string
	Keys  []MorphKey
}

// Clip is an immutable motion clip. It may be shared between characters.
type Clip struct {
	Name     string
	Duration float32
	Bones    []BoneTrack
	Morphs   []MorphTrack
}

// NewClip sorts the keyframes of every track and derives the duration from
// the last key.
func NewClip(name string, bones []BoneTrack, morphs []MorphTrack) *Clip {
	c := &Clip{Name: name, Bones: bones, Morphs: morphs}
	for i := range c.Bones {
		keys := c.Bones[i].Keys
		sort.SliceStable(keys, func(a, b int) bool { return keys[a].Time < keys[b].Time })
		if n := len(keys); n > 0 && keys[n-1].Time > c.Duration {
			c.Duration = keys[n-1].Time
		}
	}
	for i := range c.Morphs {
		keys := c.Morphs[i].Keys
		sort.SliceStable(keys, func(a, b int) bool { return keys[a].Time < keys[b].Time })
		if n := len(keys); n > 0 && keys[n-1].Time > c.Duration {
			c.Duration = keys[n-1].Time
		}
	}
	return c
}

// surrounding finds the keys bracketing t. prev == next outside the key
// range or on an exact hit of the last key.
func surrounding(n int, t float32, at func(int) float32) (prev, next int) {
	i := sort.Search(n, func(i int) bool { return at(i) > t })
	switch i {
	case 0:
		return 0, 0
	case n:
		return n - 1, n - 1
	}
	return i - 1, i
}

// SampleBone evaluates a bone track at time t. Outside the key range the
// first or last key is held.
func SampleBone(keys []BoneKey, t float32) (mgl32.Vec3, mgl32.Quat) {
	if len(keys) == 0 {
		return mgl32.Vec3{}, mgl32.QuatIdent()
	}
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Translation, keys[0].Rotation
	}

	prev, next := surrounding(len(keys), t, func(i int) float32 { return keys[i].Time })
	if prev == next {
		return keys[prev].Translation, keys[prev].Rotation
	}

	k0 := keys[prev]
	k1 := keys[next]
	f := float32(0)
	if k1.Time != k0.Time {
		f = (t - k0.Time) / (k1.Time - k0.Time)
	}

	pos := k0.Translation.Add(k1.Translation.Sub(k0.Translation).Mul(f))
	return pos, mgl32.QuatSlerp(k0.Rotation, k1.Rotation, f)
}

// SampleMorph evaluates a morph track at time t.
func SampleMorph(keys []MorphKey, t float32) float32 {
	if len(keys) == 0 {
		return 0
	}
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Weight
	}

	prev, next := surrounding(len(keys), t, func(i int) float32 { return keys[i].Time })
	if prev == next {
		return keys[prev].Weight
	}

	k0 := keys[prev]
	k1 := keys[next]
	f := float32(0)
	if k1.Time != k0.Time {
		f = (t - k0.Time) / (k1.Time - k0.Time)
	}
	return k0.Weight + f*(k1.Weight-k0.Weight)
}

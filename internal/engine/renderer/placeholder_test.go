package renderer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
)

func TestPlaceholderBoxBounds(t *testing.T) {
	g := PlaceholderBox(placeholderSize, placeholderCenterY)
	if len(g.Positions) != 24 || len(g.Normals) != 24 || len(g.Indices) != 36 {
		t.Fatalf("box has %d positions, %d normals, %d indices", len(g.Positions), len(g.Normals), len(g.Indices))
	}

	lo := mgl32.Vec3{math32.Inf(1), math32.Inf(1), math32.Inf(1)}
	hi := lo.Mul(-1)
	for _, p := range g.Positions {
		for k := 0; k < 3; k++ {
			lo[k] = math32.Min(lo[k], p[k])
			hi[k] = math32.Max(hi[k], p[k])
		}
	}
	wantLo := mgl32.Vec3{-0.15, 0.35, -0.15}
	wantHi := mgl32.Vec3{0.15, 0.65, 0.15}
	if !lo.ApproxEqual(wantLo) || !hi.ApproxEqual(wantHi) {
		t.Errorf("bounds = %v..%v, want %v..%v", lo, hi, wantLo, wantHi)
	}

	center := mgl32.Vec3{0, placeholderCenterY, 0}
	for i, p := range g.Positions {
		if d := p.Sub(center).Dot(g.Normals[i]); d <= 0 {
			t.Errorf("vertex %d normal %v points inward", i, g.Normals[i])
		}
	}
	for _, idx := range g.Indices {
		if int(idx) >= len(g.Positions) {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestCullBackFaces(t *testing.T) {
	cases := []struct {
		name        string
		doubleSided bool
		fallback    bool
		want        bool
	}{
		{"single sided", false, false, true},
		{"double sided", true, false, false},
		{"fallback program", false, true, false},
		{"double sided fallback", true, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mat := &rig.Material{DoubleSided: tc.doubleSided}
			sh := &shader.Instance{IsFallback: tc.fallback}
			if got := cullBackFaces(mat, sh); got != tc.want {
				t.Errorf("cullBackFaces = %v, want %v", got, tc.want)
			}
		})
	}
}

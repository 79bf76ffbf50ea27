package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/engine/material"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader/shaders"
)

// Source describes one shader program and the default values of its
// parameter block.
type Source struct {
	Name     string
	Vertex   string
	Fragment string
	Defines  []string
	Defaults *Params
}

// Signature returns the structural cache key of the program: the source
// lengths plus the sorted define set.
func (s Source) Signature() string {
	defines := append([]string(nil), s.Defines...)
	sort.Strings(defines)
	return fmt.Sprintf("%d:%d:%s", len(s.Vertex), len(s.Fragment), strings.Join(defines, ","))
}

var white = mgl32.Vec3{1, 1, 1}

// hex #6a5a8a
var shadowTint = mgl32.Vec3{0x6a / 255.0, 0x5a / 255.0, 0x8a / 255.0}

func commonParams() *Params {
	return NewParams().
		DeclareFloat("uHasMap", 0).
		DeclareVec3("uColor", white).
		DeclareVec3("uKeyLightDir", mgl32.Vec3{0.3, 0.8, -0.5}).
		DeclareVec3("uKeyLightColor", white).
		DeclareFloat("uKeyLightIntensity", 1).
		DeclareFloat("uAmbientIntensity", 0.3)
}

func gradingParams(p *Params) *Params {
	return p.
		DeclareFloat("uSaturation", 1).
		DeclareFloat("uTemperature", 0).
		DeclareFloat("uTint", 0).
		DeclareFloat("uBrightness", 1)
}

// FaceSource is the face program with SDF feathered shadows.
func FaceSource() Source {
	p := commonParams().
		DeclareVec3("uShadowColor", shadowTint).
		DeclareFloat("uShadowDarkness", 0.4).
		DeclareFloat("uShadowFeather", 0.05).
		DeclareFloat("uUseLambert", 1).
		DeclareFloat("uHasFaceSDF", 0).
		DeclareVec3("uRimColor", white).
		DeclareFloat("uRimStrength", 0.5).
		DeclareFloat("uRimPower", 3)
	return Source{
		Name:     "face",
		Vertex:   shaders.Vertex,
		Fragment: shaders.Toon,
		Defines:  []string{"TOON_FACE"},
		Defaults: p,
	}
}

// HairSource is the hair program with anisotropic specular highlights.
func HairSource() Source {
	p := gradingParams(commonParams()).
		DeclareFloat("uShadowThreshold", 0.45).
		DeclareFloat("uShadowSoftness", 0.08).
		DeclareFloat("uShadowDarkness", 0.35).
		DeclareVec3("uShadowColor", shadowTint).
		DeclareFloat("uHairSpecularPower", 32).
		DeclareFloat("uHairSpecularStrength", 0.6).
		DeclareFloat("uHairSpecularShift", 0.1).
		DeclareVec3("uHairSpecularColor", white).
		DeclareVec3("uRimColor", white).
		DeclareFloat("uRimStrength", 0.8).
		DeclareFloat("uRimPower", 2.5)
	return Source{
		Name:     "hair",
		Vertex:   shaders.Vertex,
		Fragment: shaders.Toon,
		Defines:  []string{"TOON_HAIR"},
		Defaults: p,
	}
}

// BodySource is the general cel-shaded program with fill and back lights.
func BodySource() Source {
	p := gradingParams(commonParams()).
		DeclareFloat("uShadowThreshold", 0.45).
		DeclareFloat("uShadowSoftness", 0.08).
		DeclareFloat("uShadowDarkness", 0.35).
		DeclareVec3("uShadowColor", shadowTint).
		DeclareVec3("uRimColor", white).
		DeclareFloat("uRimStrength", 0.8).
		DeclareFloat("uRimPower", 2.5).
		DeclareFloat("uSpecularStrength", 0.3).
		DeclareFloat("uSpecularPower", 48).
		DeclareFloat("uFillLightIntensity", 0.25).
		DeclareFloat("uRimLightIntensity", 0.35).
		DeclareFloat("uUseRamp", 0).
		DeclareFloat("uMatCapStrength", 0)
	return Source{
		Name:     "body",
		Vertex:   shaders.Vertex,
		Fragment: shaders.Toon,
		Defines:  []string{"TOON_BODY"},
		Defaults: p,
	}
}

// FallbackSource is the flat-lit program used when a category program fails.
func FallbackSource() Source {
	return Source{
		Name:     "fallback",
		Vertex:   shaders.Vertex,
		Fragment: shaders.Fallback,
		Defaults: commonParams(),
	}
}

// DefaultSources returns the program source of every category.
func DefaultSources() map[material.Category]Source {
	return map[material.Category]Source{
		material.Face: FaceSource(),
		material.Hair: HairSource(),
		material.Body: BodySource(),
	}
}

package character

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/config"
	"github.com/Faultbox/mmd-viewer/internal/engine/material"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
)

// assignShaders classifies every material of the model and binds a shader
// instance to it. A material whose program fails gets the fallback program;
// the other materials are unaffected.
func assignShaders(inst *Instance, cache *shader.Cache, log *zap.Logger) {
	for s := range inst.Model.Surfaces {
		surf := &inst.Model.Surfaces[s]
		for m := range surf.Materials {
			mat := &surf.Materials[m]
			key := material.Key{Surface: s, Material: m}
			name := mat.Name
			if name == "" {
				name = mat.NameEn
			}
			cls := inst.Materials.Classify(key, name)

			si, err := cache.Instance(cls.Category)
			if err != nil {
				log.Warn("shader failed, using fallback",
					zap.String("material", name),
					zap.Stringer("category", cls.Category),
					zap.Error(err))
				si, err = cache.Fallback(cls.Category)
				if err != nil {
					log.Error("fallback shader failed",
						zap.String("material", name),
						zap.Error(err))
				}
			}
			bindMaterial(si.Params, mat)
			inst.Shaders[key] = si
		}
	}
}

func bindMaterial(p *shader.Params, mat *rig.Material) {
	p.SetVec3("uColor", mat.Color.Vec3())
	p.SetBool("uHasMap", mat.Texture != "")
}

// applyShading writes the snapshot into one parameter block. Names the
// program does not declare are ignored, so fallback blocks only take the
// common lighting values.
func applyShading(p *shader.Params, cat material.Category, s config.Shading) {
	l, sh := s.Lighting, s.Shader

	p.SetFloat("uShadowDarkness", sh.ShadowDarkness)
	p.SetFloat("uShadowThreshold", sh.ShadowThreshold)
	p.SetFloat("uShadowSoftness", sh.ShadowSoftness)
	p.SetFloat("uRimStrength", enabled(sh.RimLightEnabled, sh.RimStrength))
	p.SetFloat("uSpecularStrength", enabled(sh.SpecularEnabled, sh.SpecularStrength))

	p.SetFloat("uKeyLightIntensity", l.KeyIntensity)
	p.SetFloat("uFillLightIntensity", l.FillIntensity)
	p.SetFloat("uAmbientIntensity", l.AmbientIntensity)
	p.SetFloat("uRimLightIntensity", l.RimIntensity)
	p.SetVec3("uKeyLightColor", mgl32.Vec3(l.KeyColor))
	p.SetVec3("uRimColor", mgl32.Vec3(l.RimColor))
	if dir := mgl32.Vec3(l.KeyPosition); dir.Len() > 0 {
		p.SetVec3("uKeyLightDir", dir.Normalize())
	}

	switch cat {
	case material.Face:
		p.SetFloat("uShadowDarkness", sh.FaceShadowDarkness)
		p.SetFloat("uShadowFeather", sh.FaceShadowFeather)
		p.SetBool("uUseLambert", !sh.UseFaceSDF)
	case material.Hair:
		p.SetFloat("uHairSpecularPower", sh.HairSpecularPower)
		p.SetFloat("uHairSpecularStrength", enabled(sh.SpecularEnabled, sh.HairSpecularStrength))
		p.SetFloat("uHairSpecularShift", sh.HairSpecularShift)
		applyGrading(p, sh)
	case material.Body:
		p.SetBool("uUseRamp", sh.UseGradientRamp)
		p.SetFloat("uMatCapStrength", enabled(sh.UseMatCap, sh.MatCapStrength))
		applyGrading(p, sh)
	}
}

func applyGrading(p *shader.Params, sh config.ShaderConfig) {
	p.SetFloat("uSaturation", sh.Saturation)
	p.SetFloat("uTemperature", sh.Temperature)
	p.SetFloat("uTint", sh.Tint)
	p.SetFloat("uBrightness", sh.Brightness)
}

func enabled(on bool, v float32) float32 {
	if on {
		return v
	}
	return 0
}

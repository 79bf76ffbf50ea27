// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Animation AnimationConfig `yaml:"animation"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Lighting  LightingConfig  `yaml:"lighting"`
	Shader    ShaderConfig    `yaml:"shading"`
	Idle      IdleConfig      `yaml:"idle"`
	Scene     SceneConfig     `yaml:"scene"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// AnimationConfig holds playback defaults for new motions.
type AnimationConfig struct {
	Speed    float32 `yaml:"speed"`
	Loop     bool    `yaml:"loop"`
	Autoplay bool    `yaml:"autoplay"`
}

// PhysicsConfig holds secondary physics and IK settings.
type PhysicsConfig struct {
	Enabled      bool    `yaml:"enabled"`
	IK           bool    `yaml:"ik"`
	WarmupFrames int     `yaml:"warmup_frames"`
	Stiffness    float32 `yaml:"stiffness"`
}

// LightingConfig holds the three-point light rig.
type LightingConfig struct {
	KeyIntensity     float32    `yaml:"key_intensity"`
	KeyColor         Color      `yaml:"key_color"`
	KeyPosition      [3]float32 `yaml:"key_position"`
	FillIntensity    float32    `yaml:"fill_intensity"`
	FillColor        Color      `yaml:"fill_color"`
	AmbientIntensity float32    `yaml:"ambient_intensity"`
	AmbientColor     Color      `yaml:"ambient_color"`
	RimIntensity     float32    `yaml:"rim_intensity"`
	RimColor         Color      `yaml:"rim_color"`
}

// ShaderConfig holds toon shading parameters.
type ShaderConfig struct {
	ShadowDarkness  float32 `yaml:"shadow_darkness"`
	ShadowThreshold float32 `yaml:"shadow_threshold"`
	ShadowSoftness  float32 `yaml:"shadow_softness"`

	RimLightEnabled bool    `yaml:"rim_light_enabled"`
	RimStrength     float32 `yaml:"rim_strength"`

	SpecularEnabled  bool    `yaml:"specular_enabled"`
	SpecularStrength float32 `yaml:"specular_strength"`

	UseFaceSDF         bool    `yaml:"use_face_sdf"`
	FaceShadowFeather  float32 `yaml:"face_shadow_feather"`
	FaceShadowDarkness float32 `yaml:"face_shadow_darkness"`

	UseGradientRamp bool    `yaml:"use_gradient_ramp"`
	UseMatCap       bool    `yaml:"use_matcap"`
	MatCapStrength  float32 `yaml:"matcap_strength"`

	HairSpecularPower    float32 `yaml:"hair_specular_power"`
	HairSpecularStrength float32 `yaml:"hair_specular_strength"`
	HairSpecularShift    float32 `yaml:"hair_specular_shift"`

	Saturation  float32 `yaml:"saturation"`
	Temperature float32 `yaml:"temperature"`
	Tint        float32 `yaml:"tint"`
	Brightness  float32 `yaml:"brightness"`
}

// IdleConfig holds procedural idle settings.
type IdleConfig struct {
	Enabled      bool `yaml:"enabled"`
	GazeTracking bool `yaml:"gaze_tracking"`
}

// SceneConfig holds what to load at startup.
type SceneConfig struct {
	Models  []string `yaml:"models"`
	Motions []string `yaml:"motions"`
	Workers int      `yaml:"workers"`
}

// Shading is the per-frame snapshot pushed into shader parameter blocks.
type Shading struct {
	Lighting LightingConfig
	Shader   ShaderConfig
}

// Shading returns the current shading snapshot.
func (c *Config) Shading() Shading {
	return Shading{Lighting: c.Lighting, Shader: c.Shader}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Animation: AnimationConfig{
			Speed:    1,
			Loop:     true,
			Autoplay: true,
		},
		Physics: PhysicsConfig{
			Enabled: true,
			IK:      true,
			// Two seconds of settling at 60 Hz.
			WarmupFrames: 120,
			Stiffness:    12,
		},
		Lighting: DefaultLighting(),
		Shader:   DefaultShader(),
		Idle: IdleConfig{
			Enabled:      true,
			GazeTracking: true,
		},
		Scene: SceneConfig{
			Workers: 2,
		},
	}
}

// DefaultLighting returns the default light rig.
func DefaultLighting() LightingConfig {
	return LightingConfig{
		KeyIntensity:     0.7,
		KeyColor:         MustParseColor("#fff8f0"),
		KeyPosition:      [3]float32{2, 5, -8},
		FillIntensity:    0.25,
		FillColor:        MustParseColor("#c8d8ff"),
		AmbientIntensity: 0.2,
		AmbientColor:     MustParseColor("#8888a0"),
		RimIntensity:     0.35,
		RimColor:         MustParseColor("#ffeedd"),
	}
}

// DefaultShader returns the default toon shading parameters.
func DefaultShader() ShaderConfig {
	return ShaderConfig{
		ShadowDarkness:       0.35,
		ShadowThreshold:      0.45,
		ShadowSoftness:       0.08,
		RimLightEnabled:      true,
		RimStrength:          0.4,
		SpecularEnabled:      true,
		SpecularStrength:     0.3,
		UseFaceSDF:           true,
		FaceShadowFeather:    0.05,
		FaceShadowDarkness:   0.4,
		UseGradientRamp:      true,
		UseMatCap:            false,
		MatCapStrength:       0.5,
		HairSpecularPower:    32,
		HairSpecularStrength: 0.6,
		HairSpecularShift:    0.1,
		Saturation:           1,
		Temperature:          0,
		Tint:                 0,
		Brightness:           1,
	}
}

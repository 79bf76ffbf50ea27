package character

import (
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/assets"
	"github.com/Faultbox/mmd-viewer/internal/config"
	"github.com/Faultbox/mmd-viewer/internal/engine/physics"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
)

// SettingsProvider supplies the shading snapshot, polled once per frame.
type SettingsProvider interface {
	Snapshot() config.Shading
}

// Session holds the caches and collaborators shared by every instance of a
// scene. Nothing in it is process global.
type Session struct {
	Models   *assets.ModelCache
	Clips    *assets.ClipCache
	Shaders  *shader.Cache
	Physics  physics.Subsystem
	Settings SettingsProvider
	Log      *zap.Logger
}

// NewSession wires a session. A nil physics subsystem means physics is
// unavailable; nil settings fall back to the default shading.
func NewSession(models assets.ModelLoader, clips assets.ClipLoader, compiler shader.Compiler, sub physics.Subsystem, settings SettingsProvider, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if settings == nil {
		settings = config.NewStore(config.Default().Shading())
	}
	return &Session{
		Models:   assets.NewModelCache(models),
		Clips:    assets.NewClipCache(clips),
		Shaders:  shader.NewCache(compiler, log.Named("shader")),
		Physics:  sub,
		Settings: settings,
		Log:      log,
	}
}

// Close frees every cached program and asset.
func (s *Session) Close() {
	s.Shaders.Clear()
	s.Models.Clear()
	s.Clips.Clear()
}

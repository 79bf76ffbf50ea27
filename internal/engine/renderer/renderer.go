// Package renderer draws loaded characters with their toon programs.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/character"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config   Config
	log      *zap.Logger
	uploader *shader.GLUploader
	textures    *Textures
	meshes      map[uuid.UUID]*Mesh
	placeholder *placeholderMesh
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		config:   cfg,
		log:      log,
		uploader: shader.NewGLUploader(),
		meshes:   make(map[uuid.UUID]*Mesh),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	r.textures = NewTextures(log.Named("texture"))
	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for id, m := range r.meshes {
		m.Delete()
		delete(r.meshes, id)
	}
	r.textures.Clear()
	if r.placeholder != nil {
		r.placeholder.Delete()
		r.placeholder = nil
	}
}

// Forget drops the uniform locations cached for a deleted program.
func (r *Renderer) Forget(p shader.Program) {
	r.uploader.Forget(p)
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// ReadPixels reads back the current framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw renders every ready and visible instance. Failed instances show a
// marker box. GPU meshes of removed or replaced instances are freed.
func (r *Renderer) Draw(instances []*character.Instance, view, proj mgl32.Mat4) {
	live := make(map[uuid.UUID]bool, len(instances))
	for _, inst := range instances {
		if inst.Status == character.Failed && inst.Visible && inst.Placeholder != nil {
			if r.placeholder == nil {
				r.placeholder = newPlaceholderMesh()
			}
			r.placeholder.Draw(inst, r.uploader, view, proj)
			continue
		}
		if inst.Status != character.Ready || inst.Model == nil {
			continue
		}
		live[inst.ID] = true

		mesh := r.meshes[inst.ID]
		if mesh != nil && (mesh.Generation != inst.Generation || mesh.Model != inst.Model) {
			mesh.Delete()
			mesh = nil
		}
		if mesh == nil {
			mesh = NewMesh(inst.Model, inst.Generation, r.textures)
			r.meshes[inst.ID] = mesh
			r.log.Debug("mesh uploaded",
				zap.String("instance", inst.ID.String()),
				zap.Int("surfaces", len(inst.Model.Surfaces)))
		}
		if !inst.Visible {
			continue
		}
		mesh.Update()
		mesh.Draw(inst, r.uploader, inst.Transform.Matrix(), view, proj)
	}

	for id, m := range r.meshes {
		if !live[id] {
			m.Delete()
			delete(r.meshes, id)
		}
	}
}

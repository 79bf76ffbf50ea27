// Package viewer implements the main loop of the model viewer.
package viewer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/character"
	"github.com/Faultbox/mmd-viewer/internal/config"
	"github.com/Faultbox/mmd-viewer/internal/engine/camera"
	"github.com/Faultbox/mmd-viewer/internal/engine/input"
	"github.com/Faultbox/mmd-viewer/internal/engine/renderer"
	"github.com/Faultbox/mmd-viewer/internal/engine/screenshot"
	"github.com/Faultbox/mmd-viewer/internal/engine/window"
)

const windowTitle = "MMD Viewer"

// Viewer is the main viewer instance. It must run on the main thread.
type Viewer struct {
	cfg      *config.Config
	log      *zap.Logger
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	scene    *character.Scene
	controls *Controls
	shots    *screenshot.Writer
	capture  bool
}

// New creates the window and renderer. The scene is owned by the caller.
func New(cfg *config.Config, scene *character.Scene, log *zap.Logger) (*Viewer, error) {
	v := &Viewer{
		cfg:    cfg,
		log:    log,
		input:  input.New(),
		camera: camera.NewOrbitCamera(),
		scene:  scene,
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer AFTER window, since the OpenGL context must exist.
	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h}, log.Named("renderer"))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	scene.Shaders().OnDelete(v.renderer.Forget)

	v.shots = screenshot.NewWriter("screenshots", "mmdview")
	v.controls = NewControls(scene, v.camera, log.Named("controls"))
	log.Info("viewer initialized")
	return v, nil
}

// Run starts the main loop and returns when the window closes.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var frameBudget time.Duration
	if v.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(v.cfg.Graphics.FPSLimit)
	}

	v.log.Info("starting main loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		v.scene.Tick(float32(dt))
		v.controls.Flush()

		v.renderer.Begin()
		v.renderer.Draw(v.scene.Instances(), v.camera.ViewMatrix(), v.camera.ProjectionMatrix(v.renderer.Aspect()))
		if v.capture {
			v.capture = false
			v.saveScreenshot()
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			v.updateTitle(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if spent := time.Since(now); spent < frameBudget {
				sdl.Delay(uint32((frameBudget - spent).Milliseconds()))
			}
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, ev := range v.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)
		case input.EventKeyDown:
			switch ev.Action {
			case input.ActionQuit:
				v.running = false
				continue
			case input.ActionScreenshot:
				v.capture = true
				continue
			}
			v.controls.Apply(ev.Action)
		case input.EventMouseMove:
			w, h := v.window.Size()
			v.scene.SetPointer(input.Normalize(ev.MouseX, ev.MouseY, w, h))
			switch {
			case v.input.Held(sdl.BUTTON_LEFT):
				v.camera.HandleDrag(ev.DeltaX, ev.DeltaY)
			case v.input.Held(sdl.BUTTON_RIGHT), v.input.Held(sdl.BUTTON_MIDDLE):
				v.camera.HandlePan(ev.DeltaX, ev.DeltaY)
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(ev.DeltaY)
		case input.EventDrop:
			v.controls.Open(ev.File)
		}
	}
}

func (v *Viewer) saveScreenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.shots.Save(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) updateTitle(fps int) {
	title := fmt.Sprintf("%s - %d fps", windowTitle, fps)
	if inst, ok := v.scene.Active(); ok {
		title = fmt.Sprintf("%s - %s [%s] - %d fps", windowTitle, inst.Name, inst.Status, fps)
	}
	v.window.SetTitle(title)
}

// QueueMotions adds motions to the active character once it is ready.
func (v *Viewer) QueueMotions(paths []string) {
	v.controls.Queue(paths...)
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

// IsMotion reports whether path names a motion file.
func IsMotion(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".vmd")
}

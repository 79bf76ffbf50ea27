package viewer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/character"
	"github.com/Faultbox/mmd-viewer/internal/engine/camera"
	"github.com/Faultbox/mmd-viewer/internal/engine/input"
)

// Controls applies viewer actions to the scene's active character.
type Controls struct {
	scene  *character.Scene
	camera *camera.OrbitCamera
	log    *zap.Logger

	pending []string
	morph   int
}

// NewControls creates controls over scene and cam. cam may be nil.
func NewControls(scene *character.Scene, cam *camera.OrbitCamera, log *zap.Logger) *Controls {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controls{scene: scene, camera: cam, log: log}
}

// Apply runs one action. Playback actions without an active ready
// character are ignored.
func (c *Controls) Apply(a input.Action) {
	switch a {
	case input.ActionNone:
		return
	case input.ActionNextCharacter:
		c.next()
		return
	case input.ActionResetCamera:
		if c.camera != nil {
			c.camera.Reset()
		}
		return
	case input.ActionToggleIdle:
		c.scene.SetIdle(!c.scene.IdleEnabled())
		c.log.Info("idle motion", zap.Bool("enabled", c.scene.IdleEnabled()))
		return
	}

	inst, ok := c.scene.Active()
	if !ok {
		return
	}
	switch a {
	case input.ActionToggleVisibility:
		_ = c.scene.ToggleVisibility(inst.ID)
		return
	case input.ActionRemoveCharacter:
		c.log.Info("character removed", zap.String("instance", inst.Name))
		_ = c.scene.Remove(inst.ID)
		c.morph = 0
		return
	case input.ActionReloadCharacter:
		if err := c.scene.Replace(inst.ID, inst.URI); err != nil {
			c.log.Warn("reload failed", zap.String("instance", inst.Name), zap.Error(err))
		}
		return
	case input.ActionMoveLeft, input.ActionMoveRight, input.ActionResetTransform:
		c.move(inst, a)
		return
	}
	if inst.Status != character.Ready {
		return
	}
	if c.applyMorph(inst, a) {
		return
	}

	tracks := inst.Tracks
	var err error
	switch a {
	case input.ActionTogglePlay:
		err = tracks.Toggle()
	case input.ActionSkipBack:
		err = tracks.Skip(-input.SkipSeconds)
	case input.ActionSkipForward:
		err = tracks.Skip(input.SkipSeconds)
	case input.ActionSeekStart:
		err = tracks.Seek(0)
	case input.ActionSeekEnd:
		err = tracks.Seek(tracks.Duration())
	case input.ActionToggleLoop:
		tracks.SetLoop(!tracks.Clock().Loop)
	case input.ActionReset:
		tracks.Reset()
	case input.ActionRemoveMotion:
		all := tracks.Tracks()
		if len(all) == 0 {
			return
		}
		last := all[len(all)-1]
		err = c.scene.RemoveMotion(inst.ID, last.ID)
		if err == nil {
			c.log.Info("motion removed", zap.String("track", last.Name))
		}
	default:
		if speed, ok := a.Speed(); ok {
			err = tracks.SetSpeed(speed)
		}
	}
	if err != nil {
		c.log.Debug("action ignored", zap.Stringer("action", a), zap.Error(err))
	}
}

func (c *Controls) move(inst *character.Instance, a input.Action) {
	t := inst.Transform
	switch a {
	case input.ActionMoveLeft:
		t.Position[0] -= input.MoveStep
	case input.ActionMoveRight:
		t.Position[0] += input.MoveStep
	default:
		t = character.DefaultTransform()
	}
	_ = c.scene.SetTransform(inst.ID, t)
}

// SelectedMorph returns the morph the morph actions edit, or "" when the
// active character has none.
func (c *Controls) SelectedMorph() string {
	inst, ok := c.scene.Active()
	if !ok {
		return ""
	}
	names := inst.MorphNames()
	if len(names) == 0 {
		return ""
	}
	return names[c.morph%len(names)]
}

// applyMorph handles the morph actions and reports whether a was one.
func (c *Controls) applyMorph(inst *character.Instance, a input.Action) bool {
	names := inst.MorphNames()
	switch a {
	case input.ActionNextMorph, input.ActionPrevMorph,
		input.ActionMorphUp, input.ActionMorphDown, input.ActionClearMorph:
		if len(names) == 0 {
			return true
		}
	case input.ActionClearMorphs:
		inst.ClearMorphs()
		return true
	default:
		return false
	}

	n := len(names)
	c.morph %= n
	switch a {
	case input.ActionNextMorph:
		c.morph = (c.morph + 1) % n
	case input.ActionPrevMorph:
		c.morph = (c.morph + n - 1) % n
	case input.ActionClearMorph:
		inst.ClearMorph(names[c.morph])
		return true
	default:
		name := names[c.morph]
		w, _ := inst.Override(name)
		if a == input.ActionMorphUp {
			w += input.MorphStep
		} else {
			w -= input.MorphStep
		}
		if err := inst.SetMorph(name, w); err != nil {
			c.log.Debug("morph not set", zap.String("morph", name), zap.Error(err))
		}
		return true
	}
	c.log.Debug("morph selected", zap.String("morph", names[c.morph]))
	return true
}

func (c *Controls) next() {
	all := c.scene.Instances()
	if len(all) == 0 {
		return
	}
	cur, _ := c.scene.Active()
	idx := 0
	for i, inst := range all {
		if cur != nil && inst.ID == cur.ID {
			idx = (i + 1) % len(all)
			break
		}
	}
	_ = c.scene.SetActive(all[idx].ID)
}

// Open loads a dropped file: motions go to the active character, anything
// else becomes a new character.
func (c *Controls) Open(path string) {
	if !IsMotion(path) {
		c.scene.Add(path)
		return
	}
	inst, ok := c.scene.Active()
	if !ok {
		c.log.Warn("motion dropped without a character", zap.String("path", path))
		return
	}
	if err := c.scene.AddMotion(inst.ID, path); err != nil {
		c.log.Warn("motion not added", zap.String("path", path), zap.Error(err))
	}
}

// Queue holds motions until the active character is ready.
func (c *Controls) Queue(paths ...string) {
	c.pending = append(c.pending, paths...)
}

// Flush adds queued motions once the active character is ready. Motions
// queued for a character that failed to load are dropped.
func (c *Controls) Flush() {
	if len(c.pending) == 0 {
		return
	}
	inst, ok := c.scene.Active()
	if !ok {
		return
	}
	switch inst.Status {
	case character.Loading:
		return
	case character.Failed:
		c.log.Warn("queued motions dropped", zap.String("instance", inst.Name), zap.Int("motions", len(c.pending)))
		c.pending = nil
		return
	}
	for _, path := range c.pending {
		if err := c.scene.AddMotion(inst.ID, path); err != nil {
			c.log.Warn("motion not added", zap.String("path", path), zap.Error(err))
		}
	}
	c.pending = nil
}

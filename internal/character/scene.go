package character

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/config"
	"github.com/Faultbox/mmd-viewer/internal/engine/animation"
	"github.com/Faultbox/mmd-viewer/internal/engine/bones"
	"github.com/Faultbox/mmd-viewer/internal/engine/idle"
	"github.com/Faultbox/mmd-viewer/internal/engine/material"
	"github.com/Faultbox/mmd-viewer/internal/engine/physics"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
	"github.com/Faultbox/mmd-viewer/internal/logger"
)

var (
	// ErrNotFound is returned for an unknown instance ID.
	ErrNotFound = errors.New("character: instance not found")

	// ErrNotReady is returned when an operation needs a loaded model.
	ErrNotReady = errors.New("character: instance not ready")

	// ErrStale marks a load completion superseded by a newer load.
	ErrStale = errors.New("character: stale load")
)

// completion is the result of one asynchronous load.
type completion struct {
	id     uuid.UUID
	gen    uint64
	uri    string
	motion bool
	model  *rig.Model
	clip   *animation.Clip
	err    error
}

// Scene owns the characters of one viewer session. All methods except the
// load jobs it submits must be called from the frame loop goroutine.
type Scene struct {
	session *Session
	updater *Updater
	exec    Executor
	opts    Options
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	done []completion

	instances map[uuid.UUID]*Instance
	order     []uuid.UUID
	active    uuid.UUID
	gen       uint64
	pointer   Input
	stale     int
	once      *logger.Once
}

// NewScene creates an empty scene.
func NewScene(session *Session, exec Executor, opts Options) *Scene {
	ctx, cancel := context.WithCancel(context.Background())
	log := session.Log.Named("scene")
	return &Scene{
		session:   session,
		updater:   NewUpdater(session.Settings, opts),
		exec:      exec,
		opts:      opts,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		instances: make(map[uuid.UUID]*Instance),
		once:      logger.NewOnce(log),
	}
}

// Add creates an instance for the model at uri and starts loading it. The
// first instance becomes the active one.
func (s *Scene) Add(uri string) uuid.UUID {
	inst := newInstance(uuid.New(), uri, s.log)
	inst.Name = displayName(uri)
	s.instances[inst.ID] = inst
	s.order = append(s.order, inst.ID)
	if s.active == uuid.Nil {
		s.active = inst.ID
	}
	s.loadModel(inst, uri)
	return inst.ID
}

// Replace swaps the model of an instance. A load still running for the old
// model is dropped when it completes.
func (s *Scene) Replace(id uuid.UUID, uri string) error {
	inst, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	inst.release()
	s.session.Shaders.Purge()
	inst.once = logger.NewOnce(s.log.With(zap.String("instance", id.String())))
	inst.Model = nil
	inst.URI = uri
	inst.Name = displayName(uri)
	inst.Status = Loading
	inst.Err = nil
	inst.Tracks = animation.NewTrackSet()
	inst.Bones = bones.Map{}
	inst.Materials = material.NewRegistry()
	s.loadModel(inst, uri)
	return nil
}

func (s *Scene) loadModel(inst *Instance, uri string) {
	s.gen++
	inst.Generation = s.gen
	id, gen, ctx := inst.ID, inst.Generation, s.ctx
	models := s.session.Models
	s.exec.Submit(func() {
		m, err := models.Load(ctx, uri)
		s.complete(completion{id: id, gen: gen, uri: uri, model: m, err: err})
	})
}

// AddMotion loads a motion clip onto a ready instance. The new track is
// activated and playback restarts from the beginning.
func (s *Scene) AddMotion(id uuid.UUID, uri string) error {
	inst, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if inst.Status != Ready {
		return fmt.Errorf("%w: %s", ErrNotReady, id)
	}
	gen, ctx := inst.Generation, s.ctx
	skel := inst.Model.Skeleton.Clone()
	clips := s.session.Clips
	s.exec.Submit(func() {
		clip, err := clips.Load(ctx, uri, skel)
		if err == nil && clip == nil {
			err = fmt.Errorf("loading motion %s: empty clip", uri)
		}
		s.complete(completion{id: id, gen: gen, uri: uri, motion: true, clip: clip, err: err})
	})
	return nil
}

// ToggleMotion flips the active flag of one motion track.
func (s *Scene) ToggleMotion(id, track uuid.UUID) error {
	inst, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return inst.Tracks.ToggleActive(track)
}

// RemoveMotion drops one motion track from an instance.
func (s *Scene) RemoveMotion(id, track uuid.UUID) error {
	inst, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return inst.Tracks.RemoveTrack(track)
}

// Shaders returns the program cache shared by the scene's instances.
func (s *Scene) Shaders() *shader.Cache {
	return s.session.Shaders
}

func (s *Scene) complete(c completion) {
	s.mu.Lock()
	s.done = append(s.done, c)
	s.mu.Unlock()
}

// Remove destroys an instance and releases its shaders and physics. If it
// was active the first remaining instance becomes active.
func (s *Scene) Remove(id uuid.UUID) error {
	inst, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	inst.release()
	s.session.Shaders.Purge()
	delete(s.instances, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = uuid.Nil
		if len(s.order) > 0 {
			s.active = s.order[0]
		}
	}
	return nil
}

// Get returns an instance by ID.
func (s *Scene) Get(id uuid.UUID) (*Instance, bool) {
	inst, ok := s.instances[id]
	return inst, ok
}

// Instances returns every instance in insertion order.
func (s *Scene) Instances() []*Instance {
	out := make([]*Instance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.instances[id])
	}
	return out
}

// Len returns the number of instances.
func (s *Scene) Len() int {
	return len(s.order)
}

// Active returns the selected instance.
func (s *Scene) Active() (*Instance, bool) {
	return s.Get(s.active)
}

// SetActive selects an instance.
func (s *Scene) SetActive(id uuid.UUID) error {
	if _, ok := s.instances[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.active = id
	return nil
}

// ToggleVisibility shows or hides an instance. Hidden instances keep
// updating.
func (s *Scene) ToggleVisibility(id uuid.UUID) error {
	inst, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	inst.Visible = !inst.Visible
	return nil
}

// SetTransform places an instance.
func (s *Scene) SetTransform(id uuid.UUID, t Transform) error {
	inst, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	inst.Transform = t
	return nil
}

// SetPointer sets the gaze target in normalized coordinates.
func (s *Scene) SetPointer(x, y float32) {
	s.pointer = Input{PointerX: x, PointerY: y}
}

// SetIdle switches procedural idle motion for every instance. Idle state
// keeps advancing while off.
func (s *Scene) SetIdle(on bool) {
	s.opts.Idle.Enabled = on
	s.updater.opts.Idle.Enabled = on
}

// IdleEnabled reports whether procedural idle motion is applied.
func (s *Scene) IdleEnabled() bool {
	return s.opts.Idle.Enabled
}

// Stale returns the number of dropped load completions.
func (s *Scene) Stale() int {
	return s.stale
}

// Tick installs finished loads and updates every ready instance.
func (s *Scene) Tick(dt float32) {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()

	for _, c := range done {
		if err := s.install(c); errors.Is(err, ErrStale) {
			s.stale++
			s.log.Debug("dropped stale load", zap.String("uri", c.uri), zap.Uint64("generation", c.gen))
		}
	}

	var shading *config.Shading
	if snap, ok := s.updater.Snapshot(); ok {
		shading = &snap
	} else {
		s.once.Warn("settings", "settings snapshot failed")
	}
	for _, id := range s.order {
		s.updater.Update(s.instances[id], dt, s.pointer, shading)
	}
}

func (s *Scene) install(c completion) error {
	inst, ok := s.instances[c.id]
	if !ok || inst.Generation != c.gen {
		return ErrStale
	}

	if c.motion {
		if c.err != nil {
			s.log.Warn("motion load failed", zap.String("uri", c.uri), zap.Error(c.err))
			return c.err
		}
		track := inst.Tracks.AddTrack(displayName(c.uri), c.clip)
		s.log.Info("motion added",
			zap.String("instance", inst.Name),
			zap.Stringer("track", track),
			zap.Float32("duration", c.clip.Duration))
		return nil
	}

	if c.err != nil {
		inst.Status = Failed
		inst.Err = c.err
		s.log.Warn("model load failed", zap.String("uri", c.uri), zap.Error(c.err))
		s.placeholder(inst)
		return c.err
	}
	s.ready(inst, c.model)
	return nil
}

// placeholder gives a failed instance a flat red fallback program for its
// marker box.
func (s *Scene) placeholder(inst *Instance) {
	si, err := s.session.Shaders.Fallback(material.Body)
	if err != nil {
		s.log.Warn("placeholder program failed", zap.String("instance", inst.Name), zap.Error(err))
	}
	si.Params.SetVec3("uColor", PlaceholderColor)
	si.Params.SetFloat("uHasMap", 0)
	inst.Placeholder = si
}

// ready installs a loaded model: bone roles, shaders, physics and a fresh
// playback clock.
func (s *Scene) ready(inst *Instance, m *rig.Model) {
	inst.Model = m
	if m.Name != "" {
		inst.Name = m.Name
	}
	inst.Bones = bones.ResolveAll(&m.Skeleton)
	inst.blinkMorph, inst.smileMorph = idle.ResolveMorphs(&m.Morphs)
	for name := range inst.overrides {
		if _, ok := m.Morphs.Index(name); !ok {
			delete(inst.overrides, name)
		}
	}

	assignShaders(inst, s.session.Shaders, s.log.With(zap.String("instance", inst.Name)))

	tracks := animation.NewTrackSet()
	tracks.SetAutoplay(s.opts.Animation.Autoplay)
	tracks.SetLoop(s.opts.Animation.Loop)
	if err := tracks.SetSpeed(s.opts.Animation.Speed); err != nil {
		s.log.Warn("invalid playback speed", zap.Error(err))
	}
	inst.Tracks = tracks

	binding, err := physics.Bind(s.session.Physics, &m.Skeleton, physics.Options{
		PhysicsEnabled: s.opts.Physics.Enabled,
		IKEnabled:      s.opts.Physics.IK,
		WarmupFrames:   s.opts.Physics.WarmupFrames,
	}, s.log.With(zap.String("instance", inst.Name)))
	switch {
	case errors.Is(err, physics.ErrUnavailable):
		s.log.Info("physics unavailable", zap.String("instance", inst.Name))
	case err != nil:
		s.log.Warn("physics bind failed", zap.String("instance", inst.Name), zap.Error(err))
	default:
		inst.Physics = binding
		tracks.BindSync(binding)
	}
	m.Skeleton.ResetPose()

	inst.Status = Ready
	missing := inst.Bones.Missing()
	s.log.Info("model ready",
		zap.String("instance", inst.Name),
		zap.Int("materials", len(inst.Shaders)),
		zap.Int("missing_roles", len(missing)),
		zap.Bool("physics", inst.Physics != nil))
}

// Close releases every instance. Loads still running are cancelled and
// their completions ignored.
func (s *Scene) Close() {
	s.cancel()
	for _, id := range s.order {
		s.instances[id].release()
	}
	s.instances = make(map[uuid.UUID]*Instance)
	s.order = nil
	s.active = uuid.Nil
}

func displayName(uri string) string {
	base := filepath.Base(uri)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

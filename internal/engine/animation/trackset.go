package animation

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

var (
	// ErrNoTracks is returned by operations that need at least one track.
	ErrNoTracks = errors.New("animation: no tracks loaded")

	// ErrUnknownTrack is returned for a track ID not in the set.
	ErrUnknownTrack = errors.New("animation: unknown track")

	// ErrInvalidSpeed is returned for a playback speed outside (0, MaxSpeed].
	ErrInvalidSpeed = errors.New("animation: invalid speed")
)

// MaxSpeed is the fastest allowed playback rate.
const MaxSpeed = 4

// State is the playback state of a track set.
type State int

const (
	Unloaded State = iota
	Loaded
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Syncer is told about time discontinuities so simulated state can follow.
type Syncer interface {
	Seek(t float32)
	Reset()
}

// Clock is the playback time of a track set.
type Clock struct {
	Time     float32
	Duration float32
	Speed    float32
	Loop     bool
	State    State
}

// Track is one motion clip attached to a character.
type Track struct {
	ID     uuid.UUID
	Name   string
	Clip   *Clip
	Active bool

	bound  *rig.Skeleton
	bones  []int
	morphs []int
}

// TrackSet is the ordered list of motion tracks of one character plus its
// playback clock. Later tracks override earlier ones on shared channels.
type TrackSet struct {
	tracks   []*Track
	clock    Clock
	autoplay bool
	sync     Syncer
}

// NewTrackSet creates an empty set with speed 1, looping and autoplay on.
func NewTrackSet() *TrackSet {
	return &TrackSet{
		clock:    Clock{Speed: 1, Loop: true},
		autoplay: true,
	}
}

// BindSync registers the receiver of seek and loop reset signals.
func (s *TrackSet) BindSync(sync Syncer) {
	s.sync = sync
}

// SetAutoplay selects whether newly added tracks start playing.
func (s *TrackSet) SetAutoplay(on bool) {
	s.autoplay = on
}

// AddTrack appends an active track for the clip and restarts playback from
// the beginning.
func (s *TrackSet) AddTrack(name string, clip *Clip) uuid.UUID {
	t := &Track{ID: uuid.New(), Name: name, Clip: clip, Active: true}
	s.tracks = append(s.tracks, t)
	s.refreshDuration()

	s.clock.Time = 0
	if s.autoplay {
		s.clock.State = Playing
	} else {
		s.clock.State = Loaded
	}
	s.seekSync()
	return t.ID
}

// RemoveTrack removes a track. Removing the last track unloads the set.
func (s *TrackSet) RemoveTrack(id uuid.UUID) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)

	if len(s.tracks) == 0 {
		s.clock.Time = 0
		s.clock.Duration = 0
		s.clock.State = Unloaded
		return nil
	}
	s.refreshDuration()
	s.clampTime()
	return nil
}

// SetActive turns a track on or off. Deactivating the last active track
// keeps the current duration.
func (s *TrackSet) SetActive(id uuid.UUID, active bool) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	s.tracks[i].Active = active
	s.refreshDuration()
	s.clampTime()
	return nil
}

// ToggleActive flips the active flag of a track.
func (s *TrackSet) ToggleActive(id uuid.UUID) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	return s.SetActive(id, !s.tracks[i].Active)
}

func (s *TrackSet) index(id uuid.UUID) int {
	for i, t := range s.tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *TrackSet) refreshDuration() {
	var d float32
	found := false
	for _, t := range s.tracks {
		if !t.Active || t.Clip == nil {
			continue
		}
		found = true
		if t.Clip.Duration > d {
			d = t.Clip.Duration
		}
	}
	if found {
		s.clock.Duration = d
	}
}

func (s *TrackSet) clampTime() {
	if s.clock.Time > s.clock.Duration {
		s.clock.Time = s.clock.Duration
	}
	if s.clock.Time < 0 {
		s.clock.Time = 0
	}
}

func (s *TrackSet) seekSync() {
	if s.sync != nil {
		s.sync.Seek(s.clock.Time)
	}
}

// Tracks returns the tracks in order.
func (s *TrackSet) Tracks() []*Track {
	return s.tracks
}

// Track returns a track by ID.
func (s *TrackSet) Track(id uuid.UUID) (*Track, bool) {
	if i := s.index(id); i >= 0 {
		return s.tracks[i], true
	}
	return nil, false
}

// Len returns the number of tracks.
func (s *TrackSet) Len() int {
	return len(s.tracks)
}

// HasActive reports whether any track is active.
func (s *TrackSet) HasActive() bool {
	for _, t := range s.tracks {
		if t.Active {
			return true
		}
	}
	return false
}

// Advance moves time forward by dt scaled by speed. It does nothing unless
// playing and returns the number of loop wraps that occurred.
func (s *TrackSet) Advance(dt float32) int {
	c := &s.clock
	if c.State != Playing || c.Duration <= 0 || dt <= 0 {
		return 0
	}

	c.Time += dt * c.Speed
	if c.Time < c.Duration {
		return 0
	}

	if !c.Loop {
		c.Time = c.Duration
		c.State = Paused
		return 0
	}

	wraps := int(math32.Floor(c.Time / c.Duration))
	c.Time = math32.Mod(c.Time, c.Duration)
	if s.sync != nil {
		for i := 0; i < wraps; i++ {
			s.sync.Reset()
		}
	}
	return wraps
}

// Seek jumps to t, clamped to [0, duration].
func (s *TrackSet) Seek(t float32) error {
	if len(s.tracks) == 0 {
		return ErrNoTracks
	}
	if t != t {
		t = 0
	}
	s.clock.Time = t
	s.clampTime()
	s.seekSync()
	return nil
}

// Skip seeks relative to the current time.
func (s *TrackSet) Skip(delta float32) error {
	return s.Seek(s.clock.Time + delta)
}

// Play starts or resumes playback. A finished non-looping clip restarts.
func (s *TrackSet) Play() error {
	if len(s.tracks) == 0 {
		return ErrNoTracks
	}
	if !s.clock.Loop && s.clock.Duration > 0 && s.clock.Time >= s.clock.Duration {
		s.clock.Time = 0
		s.seekSync()
	}
	s.clock.State = Playing
	return nil
}

// Pause stops playback, keeping the current time.
func (s *TrackSet) Pause() {
	if s.clock.State == Playing {
		s.clock.State = Paused
	}
}

// Toggle switches between playing and paused.
func (s *TrackSet) Toggle() error {
	if s.clock.State == Playing {
		s.Pause()
		return nil
	}
	return s.Play()
}

// Reset rewinds to the start and pauses.
func (s *TrackSet) Reset() {
	if len(s.tracks) == 0 {
		return
	}
	s.clock.Time = 0
	s.clock.State = Paused
	s.seekSync()
}

// SetSpeed sets the playback rate.
func (s *TrackSet) SetSpeed(speed float32) error {
	if !(speed > 0 && speed <= MaxSpeed) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}
	s.clock.Speed = speed
	return nil
}

// SetLoop turns looping on or off.
func (s *TrackSet) SetLoop(loop bool) {
	s.clock.Loop = loop
}

// Clock returns a copy of the playback clock.
func (s *TrackSet) Clock() Clock {
	return s.clock
}

// Time returns the current playback time.
func (s *TrackSet) Time() float32 { return s.clock.Time }

// Duration returns the current duration.
func (s *TrackSet) Duration() float32 { return s.clock.Duration }

// State returns the playback state.
func (s *TrackSet) State() State { return s.clock.State }

// Apply writes the pose of every active track at the current time into the
// skeleton and morph set. Channels with no matching bone or morph are
// skipped.
func (s *TrackSet) Apply(skel *rig.Skeleton, morphs *rig.MorphSet) {
	t := s.clock.Time
	for _, tr := range s.tracks {
		if !tr.Active || tr.Clip == nil {
			continue
		}
		if tr.bound != skel {
			tr.bind(skel, morphs)
		}
		for i := range tr.Clip.Bones {
			bi := tr.bones[i]
			if bi < 0 {
				continue
			}
			pos, rot := SampleBone(tr.Clip.Bones[i].Keys, t)
			b := &skel.Bones[bi]
			b.Translation = pos
			b.Rotation = rot
		}
		if morphs == nil {
			continue
		}
		for i := range tr.Clip.Morphs {
			if mi := tr.morphs[i]; mi >= 0 {
				morphs.Set(mi, SampleMorph(tr.Clip.Morphs[i].Keys, t))
			}
		}
	}
}

func (t *Track) bind(skel *rig.Skeleton, morphs *rig.MorphSet) {
	t.bound = skel
	t.bones = make([]int, len(t.Clip.Bones))
	for i := range t.Clip.Bones {
		t.bones[i], _ = skel.Index(t.Clip.Bones[i].Bone)
	}
	t.morphs = make([]int, len(t.Clip.Morphs))
	for i := range t.Clip.Morphs {
		t.morphs[i] = -1
		if morphs != nil {
			t.morphs[i], _ = morphs.Index(t.Clip.Morphs[i].Morph)
		}
	}
}

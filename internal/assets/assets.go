// Package assets caches loaded models and motion clips for a viewer session.
package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tiendc/go-deepcopy"

	"github.com/Faultbox/mmd-viewer/internal/engine/animation"
	"github.com/Faultbox/mmd-viewer/internal/engine/rig"
)

// ErrEmptyModel is returned when a loader reports success without a model.
var ErrEmptyModel = errors.New("assets: loader returned no model")

// Transient URI schemes refer to in-memory data that may not outlive the
// load, so they are never cached.
var transientPrefixes = []string{"mem:", "blob:"}

// Transient reports whether uri must bypass the caches.
func Transient(uri string) bool {
	for _, p := range transientPrefixes {
		if strings.HasPrefix(uri, p) {
			return true
		}
	}
	return false
}

// Cache is a concurrency-safe keyed cache with hit statistics.
type Cache[T any] struct {
	data map[string]T
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{
		data: make(map[string]T),
	}
}

// Get retrieves an item from cache.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores an item in cache.
func (c *Cache[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// Delete removes an item.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached items.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]T)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// ModelLoader parses a model file.
type ModelLoader interface {
	LoadModel(ctx context.Context, uri string) (*rig.Model, error)
}

// ClipLoader parses a motion file. The skeleton is a private copy the loader
// may inspect.
type ClipLoader interface {
	LoadClip(ctx context.Context, uri string, skel *rig.Skeleton) (*animation.Clip, error)
}

// ModelCache shares parsed base models and hands every caller its own deep
// copy, so instances never share pose or morph state.
type ModelCache struct {
	loader ModelLoader
	base   *Cache[*rig.Model]
}

// NewModelCache creates a model cache over loader.
func NewModelCache(loader ModelLoader) *ModelCache {
	return &ModelCache{loader: loader, base: NewCache[*rig.Model]()}
}

// Load returns a private copy of the model at uri, parsing it on first use.
func (m *ModelCache) Load(ctx context.Context, uri string) (*rig.Model, error) {
	base, ok := m.base.Get(uri)
	if !ok {
		loaded, err := m.loader.LoadModel(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("loading model %s: %w", uri, err)
		}
		if loaded == nil {
			return nil, fmt.Errorf("loading model %s: %w", uri, ErrEmptyModel)
		}
		if Transient(uri) {
			return loaded, nil
		}
		m.base.Set(uri, loaded)
		base = loaded
	}
	return Instantiate(base)
}

// Stats returns cache statistics.
func (m *ModelCache) Stats() (hits, misses int) {
	return m.base.Stats()
}

// Clear drops every cached model.
func (m *ModelCache) Clear() {
	m.base.Clear()
}

// Instantiate deep copies a base model for one character instance.
func Instantiate(base *rig.Model) (*rig.Model, error) {
	if base == nil {
		return nil, ErrEmptyModel
	}
	var out rig.Model
	if err := deepcopy.Copy(&out, *base); err != nil {
		return nil, fmt.Errorf("copying model %s: %w", base.Name, err)
	}
	out.Skeleton.ResetPose()
	out.Morphs.Reset()
	return &out, nil
}

// ClipCache shares immutable clips between instances.
type ClipCache struct {
	loader ClipLoader
	clips  *Cache[*animation.Clip]
}

// NewClipCache creates a clip cache over loader.
func NewClipCache(loader ClipLoader) *ClipCache {
	return &ClipCache{loader: loader, clips: NewCache[*animation.Clip]()}
}

// Load returns the clip at uri, parsing it on first use.
func (c *ClipCache) Load(ctx context.Context, uri string, skel *rig.Skeleton) (*animation.Clip, error) {
	if clip, ok := c.clips.Get(uri); ok {
		return clip, nil
	}
	clip, err := c.loader.LoadClip(ctx, uri, skel)
	if err != nil {
		return nil, fmt.Errorf("loading motion %s: %w", uri, err)
	}
	if !Transient(uri) {
		c.clips.Set(uri, clip)
	}
	return clip, nil
}

// Stats returns cache statistics.
func (c *ClipCache) Stats() (hits, misses int) {
	return c.clips.Stats()
}

// Clear drops every cached clip.
func (c *ClipCache) Clear() {
	c.clips.Clear()
}

package shader

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/engine/material"
)

// ErrNoSource is returned when a category has no program source.
var ErrNoSource = errors.New("shader: no source for category")

// Program is a linked GPU program handle. Zero means no program.
type Program uint32

// Compiler builds GPU programs from source.
type Compiler interface {
	Compile(src Source) (Program, error)
	Delete(p Program)
}

// Template is a compiled program shared by every instance of one signature.
type Template struct {
	Signature string
	Source    Source
	Program   Program
	refs      int
}

// Refs returns the number of live instances of the template.
func (t *Template) Refs() int {
	return t.refs
}

// Instance is a per-material clone of a template with its own parameter
// block.
type Instance struct {
	Category   material.Category
	Params     *Params
	IsFallback bool

	template *Template
	released bool
}

// Program returns the GPU program of the instance, or 0 when it has none.
func (i *Instance) Program() Program {
	if i == nil || i.template == nil {
		return 0
	}
	return i.template.Program
}

// Release drops the instance's reference on its template. Releasing twice is
// a no-op.
func (i *Instance) Release() {
	if i == nil || i.released {
		return
	}
	i.released = true
	if i.template != nil && i.template.refs > 0 {
		i.template.refs--
	}
}

// Stats reports cache activity.
type Stats struct {
	Templates int
	Compiles  int
	Hits      int
	Failures  int
}

// Cache hands out shader instances, compiling one template per program
// signature.
type Cache struct {
	compiler  Compiler
	sources   map[material.Category]Source
	fallback  Source
	templates map[string]*Template
	log       *zap.Logger
	stats     Stats
	onDelete  []func(Program)
}

// NewCache creates a cache over the default category programs.
func NewCache(c Compiler, log *zap.Logger) *Cache {
	return NewCacheWithSources(c, DefaultSources(), FallbackSource(), log)
}

// NewCacheWithSources creates a cache over explicit program sources.
func NewCacheWithSources(c Compiler, sources map[material.Category]Source, fallback Source, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		compiler:  c,
		sources:   sources,
		fallback:  fallback,
		templates: make(map[string]*Template),
		log:       log,
	}
}

// Instance returns a new instance of the category program.
func (c *Cache) Instance(cat material.Category) (*Instance, error) {
	src, ok := c.sources[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, cat)
	}
	tpl, err := c.template(src)
	if err != nil {
		return nil, fmt.Errorf("%s program: %w", cat, err)
	}
	return c.instantiate(tpl, cat, false), nil
}

// Fallback returns a new instance of the fallback program. When the fallback
// itself fails to build, the returned instance has no program but still
// carries the fallback parameter block, along with the error.
func (c *Cache) Fallback(cat material.Category) (*Instance, error) {
	tpl, err := c.template(c.fallback)
	if err != nil {
		return &Instance{
			Category:   cat,
			Params:     defaults(c.fallback),
			IsFallback: true,
		}, fmt.Errorf("fallback program: %w", err)
	}
	return c.instantiate(tpl, cat, true), nil
}

func (c *Cache) instantiate(tpl *Template, cat material.Category, fallback bool) *Instance {
	tpl.refs++
	return &Instance{
		Category:   cat,
		Params:     defaults(tpl.Source),
		IsFallback: fallback,
		template:   tpl,
	}
}

func defaults(src Source) *Params {
	if src.Defaults == nil {
		return NewParams()
	}
	return src.Defaults.Clone()
}

func (c *Cache) template(src Source) (*Template, error) {
	sig := src.Signature()
	if tpl, ok := c.templates[sig]; ok {
		c.stats.Hits++
		return tpl, nil
	}

	prog, err := c.compile(src)
	if err != nil {
		c.stats.Failures++
		c.log.Warn("shader compile failed", zap.String("program", src.Name), zap.Error(err))
		return nil, err
	}
	c.stats.Compiles++

	tpl := &Template{Signature: sig, Source: src, Program: prog}
	c.templates[sig] = tpl
	c.log.Debug("shader compiled", zap.String("program", src.Name), zap.Uint32("id", uint32(prog)))
	return tpl, nil
}

func (c *Cache) compile(src Source) (prog Program, err error) {
	if c.compiler == nil {
		return 0, errors.New("no compiler")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compiler panic: %v", r)
		}
	}()
	return c.compiler.Compile(src)
}

// Template returns the cached template for a signature.
func (c *Cache) Template(sig string) (*Template, bool) {
	tpl, ok := c.templates[sig]
	return tpl, ok
}

// Purge deletes templates that no instance references and returns how many
// were removed.
func (c *Cache) Purge() int {
	n := 0
	for sig, tpl := range c.templates {
		if tpl.refs > 0 {
			continue
		}
		c.delete(sig, tpl)
		n++
	}
	return n
}

// Clear deletes every template regardless of references.
func (c *Cache) Clear() {
	for sig, tpl := range c.templates {
		c.delete(sig, tpl)
	}
}

// OnDelete registers fn to run with every program the cache deletes.
func (c *Cache) OnDelete(fn func(Program)) {
	c.onDelete = append(c.onDelete, fn)
}

func (c *Cache) delete(sig string, tpl *Template) {
	c.compiler.Delete(tpl.Program)
	delete(c.templates, sig)
	for _, fn := range c.onDelete {
		fn(tpl.Program)
	}
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Templates = len(c.templates)
	return s
}

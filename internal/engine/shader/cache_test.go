package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mmd-viewer/internal/engine/material"
)

type fakeCompiler struct {
	next     Program
	compiled []string
	deleted  []Program
	fail     map[string]error
	panicOn  string
}

func (f *fakeCompiler) Compile(src Source) (Program, error) {
	if src.Name == f.panicOn {
		panic("driver crashed")
	}
	if err := f.fail[src.Name]; err != nil {
		return 0, err
	}
	f.next++
	f.compiled = append(f.compiled, src.Name)
	return f.next, nil
}

func (f *fakeCompiler) Delete(p Program) {
	f.deleted = append(f.deleted, p)
}

func TestInstanceSharesTemplate(t *testing.T) {
	fc := &fakeCompiler{}
	c := NewCache(fc, nil)

	a, err := c.Instance(material.Face)
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	b, err := c.Instance(material.Face)
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}

	if len(fc.compiled) != 1 {
		t.Errorf("compiled %d programs, want 1", len(fc.compiled))
	}
	if a.Program() != b.Program() {
		t.Errorf("instances use programs %d and %d", a.Program(), b.Program())
	}

	stats := c.Stats()
	if stats.Templates != 1 || stats.Compiles != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestInstanceParamsDoNotAlias(t *testing.T) {
	c := NewCache(&fakeCompiler{}, nil)
	a, _ := c.Instance(material.Body)
	b, _ := c.Instance(material.Body)

	a.Params.SetFloat("uShadowDarkness", 0.9)

	if v, _ := b.Params.Float("uShadowDarkness"); v != 0.35 {
		t.Errorf("other instance shadow darkness = %v, want default 0.35", v)
	}
	tpl, _ := c.Template(BodySource().Signature())
	if v, _ := tpl.Source.Defaults.Float("uShadowDarkness"); v != 0.35 {
		t.Errorf("template default changed to %v", v)
	}
}

func TestCategoriesGetDistinctTemplates(t *testing.T) {
	fc := &fakeCompiler{}
	c := NewCache(fc, nil)
	for _, cat := range material.Categories {
		if _, err := c.Instance(cat); err != nil {
			t.Fatalf("Instance(%s): %v", cat, err)
		}
	}
	if got := c.Stats().Templates; got != 3 {
		t.Errorf("templates = %d, want 3", got)
	}
}

func TestReleaseAndPurge(t *testing.T) {
	fc := &fakeCompiler{}
	c := NewCache(fc, nil)

	a, _ := c.Instance(material.Hair)
	b, _ := c.Instance(material.Hair)
	tpl, _ := c.Template(HairSource().Signature())

	a.Release()
	a.Release()
	if tpl.Refs() != 1 {
		t.Fatalf("refs = %d after double release, want 1", tpl.Refs())
	}
	if n := c.Purge(); n != 0 {
		t.Errorf("purged %d templates with live references", n)
	}

	b.Release()
	if n := c.Purge(); n != 1 {
		t.Errorf("purged %d templates, want 1", n)
	}
	if len(fc.deleted) != 1 || fc.deleted[0] != tpl.Program {
		t.Errorf("deleted = %v, want [%d]", fc.deleted, tpl.Program)
	}
}

func TestDeleteHookSeesPurgedAndClearedPrograms(t *testing.T) {
	fc := &fakeCompiler{}
	c := NewCache(fc, nil)
	var forgotten []Program
	c.OnDelete(func(p Program) { forgotten = append(forgotten, p) })

	hair, _ := c.Instance(material.Hair)
	face, _ := c.Instance(material.Face)
	hair.Release()

	c.Purge()
	if len(forgotten) != 1 || forgotten[0] != hair.Program() {
		t.Fatalf("forgotten after purge = %v, want [%d]", forgotten, hair.Program())
	}

	c.Clear()
	if len(forgotten) != 2 || forgotten[1] != face.Program() {
		t.Errorf("forgotten after clear = %v, want second %d", forgotten, face.Program())
	}
}

func TestCompileFailureIsReported(t *testing.T) {
	fc := &fakeCompiler{fail: map[string]error{"face": errors.New("syntax error")}}
	c := NewCache(fc, nil)

	if _, err := c.Instance(material.Face); err == nil {
		t.Fatal("expected error for failing face program")
	}
	if _, err := c.Instance(material.Hair); err != nil {
		t.Errorf("hair program failed: %v", err)
	}
	if c.Stats().Failures != 1 {
		t.Errorf("failures = %d, want 1", c.Stats().Failures)
	}
}

func TestCompilerPanicBecomesError(t *testing.T) {
	c := NewCache(&fakeCompiler{panicOn: "body"}, nil)
	_, err := c.Instance(material.Body)
	if err == nil || !strings.Contains(err.Error(), "panic") {
		t.Errorf("err = %v, want compiler panic", err)
	}
}

func TestFallback(t *testing.T) {
	c := NewCache(&fakeCompiler{}, nil)
	inst, err := c.Fallback(material.Face)
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if !inst.IsFallback || inst.Program() == 0 {
		t.Errorf("fallback instance = %+v", inst)
	}
	if inst.Category != material.Face {
		t.Errorf("category = %s, want face", inst.Category)
	}
}

func TestFallbackFailureKeepsParams(t *testing.T) {
	fc := &fakeCompiler{fail: map[string]error{"fallback": errors.New("no driver")}}
	c := NewCache(fc, nil)

	inst, err := c.Fallback(material.Body)
	if err == nil {
		t.Fatal("expected fallback error")
	}
	if inst == nil || inst.Program() != 0 {
		t.Fatalf("instance = %+v, want program 0", inst)
	}
	if _, ok := inst.Params.Float("uKeyLightIntensity"); !ok {
		t.Error("fallback params missing")
	}
	inst.Release()
}

func TestUnknownCategory(t *testing.T) {
	c := NewCacheWithSources(&fakeCompiler{}, map[material.Category]Source{}, FallbackSource(), nil)
	if _, err := c.Instance(material.Face); !errors.Is(err, ErrNoSource) {
		t.Errorf("err = %v, want ErrNoSource", err)
	}
}

func TestSignature(t *testing.T) {
	a := Source{Vertex: "abc", Fragment: "de", Defines: []string{"B", "A"}}
	b := Source{Vertex: "xyz", Fragment: "fg", Defines: []string{"A", "B"}}
	if a.Signature() != b.Signature() {
		t.Errorf("signatures differ: %q vs %q", a.Signature(), b.Signature())
	}
	if a.Defines[0] != "B" {
		t.Error("Signature reordered the source defines")
	}
	c := Source{Vertex: "abc", Fragment: "de", Defines: []string{"A"}}
	if a.Signature() == c.Signature() {
		t.Error("different define sets share a signature")
	}
}

func TestParams(t *testing.T) {
	p := NewParams().DeclareFloat("uA", 1).DeclareVec3("uB", mgl32.Vec3{1, 2, 3})

	if p.SetFloat("uMissing", 2) {
		t.Error("SetFloat accepted an undeclared uniform")
	}
	if !p.SetBool("uA", false) {
		t.Error("SetBool rejected a declared uniform")
	}
	if v, _ := p.Float("uA"); v != 0 {
		t.Errorf("uA = %v, want 0", v)
	}
	if got := p.Vec3Names(); len(got) != 1 || got[0] != "uB" {
		t.Errorf("Vec3Names = %v", got)
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d, want 2", p.Len())
	}
}

func TestInject(t *testing.T) {
	got := inject("#version 410 core\nvoid main() {}\n", []string{"TOON_FACE"})
	want := "#version 410 core\n#define TOON_FACE\nvoid main() {}\n"
	if got != want {
		t.Errorf("inject =\n%q\nwant\n%q", got, want)
	}
}

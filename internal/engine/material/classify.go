// Package material sorts surface materials into shading categories.
package material

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category is the shading category of a material.
type Category uint8

const (
	Body Category = iota
	Face
	Hair
)

func (c Category) String() string {
	switch c {
	case Face:
		return "face"
	case Hair:
		return "hair"
	case Body:
		return "body"
	}
	return "unknown"
}

// Categories lists every category in a stable order.
var Categories = []Category{Face, Hair, Body}

// Keyword tables, compared against the case-folded material name.
var (
	// bodyKeywords force Body even when a face keyword also matches, so
	// skin-textured torso materials never reach the face program.
	bodyKeywords = []string{"body", "torso", "体", "胴", "身体", "chest", "skin_body"}

	faceKeywords = []string{"face", "顔", "facial", "head_skin", "肌", "skin", "eye", "目", "mouth", "口", "brow", "眉"}

	hairKeywords = []string{"hair", "髪", "bang", "前髪", "後髪", "ponytail", "tail_hair", "ahoge"}
)

// Classify returns the category for a material name. It is a pure function
// of the name.
func Classify(name string) Category {
	folded := cases.Fold().String(name)
	switch {
	case containsAny(folded, bodyKeywords):
		return Body
	case containsAny(folded, faceKeywords):
		return Face
	case containsAny(folded, hairKeywords):
		return Hair
	default:
		return Body
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Classification is the immutable result of classifying one material.
type Classification struct {
	Category   Category
	SourceName string
}

// Key addresses one material slot of one surface.
type Key struct {
	Surface  int
	Material int
}

// Registry caches classifications for the lifetime of a character instance.
// Once a key has been classified its result never changes.
type Registry struct {
	entries map[Key]Classification
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]Classification)}
}

// Classify classifies the material at key, or returns the cached result
// when the key was already classified.
func (r *Registry) Classify(key Key, name string) Classification {
	if c, ok := r.entries[key]; ok {
		return c
	}
	c := Classification{Category: Classify(name), SourceName: name}
	r.entries[key] = c
	return c
}

// Get returns the cached classification for key.
func (r *Registry) Get(key Key) (Classification, bool) {
	c, ok := r.entries[key]
	return c, ok
}

// Len returns the number of classified materials.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Count returns how many materials fall into each category.
func (r *Registry) Count() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range r.entries {
		counts[c.Category]++
	}
	return counts
}

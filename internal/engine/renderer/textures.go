package renderer

import (
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/engine/texture"
)

// Textures uploads image files once per path. A path that failed to load
// maps to 0 and is not retried.
type Textures struct {
	ids map[string]uint32
	log *zap.Logger
}

// NewTextures creates an empty texture cache.
func NewTextures(log *zap.Logger) *Textures {
	return &Textures{ids: make(map[string]uint32), log: log}
}

// Get returns the GL texture for path, loading it on first use.
func (t *Textures) Get(path string) uint32 {
	if path == "" {
		return 0
	}
	if id, ok := t.ids[path]; ok {
		return id
	}
	img, err := texture.Load(path)
	if err != nil {
		t.log.Warn("texture load failed", zap.String("path", path), zap.Error(err))
		t.ids[path] = 0
		return 0
	}
	id := upload(img)
	t.ids[path] = id
	return id
}

// Clear deletes every uploaded texture.
func (t *Textures) Clear() {
	for path, id := range t.ids {
		if id != 0 {
			gl.DeleteTextures(1, &id)
		}
		delete(t.ids, path)
	}
}

func upload(img *image.RGBA) uint32 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

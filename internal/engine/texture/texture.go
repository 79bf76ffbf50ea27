// Package texture decodes model texture files.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

// Load reads and decodes the texture at path.
func Load(path string) (*image.RGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	return Decode(path, raw)
}

// Decode decodes texture data. The decoder is chosen by the extension of
// name; sphere maps (.sph, .spa) are bitmaps.
func Decode(name string, data []byte) (*image.RGBA, error) {
	r := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".tga":
		img, err = tga.Decode(r)
	case ".bmp", ".sph", ".spa":
		img, err = bmp.Decode(r)
	default:
		img, err = decodeAny(r)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", name, err)
	}
	return ToRGBA(img), nil
}

func decodeAny(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// ToRGBA converts any image to RGBA with its origin at (0, 0).
func ToRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

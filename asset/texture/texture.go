package texture

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/achilleasa/raygun/asset"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("texture: unsupported image format")

// A texture image converted to 8-bit RGBA.
type Texture struct {
	Name  string
	Image *image.RGBA
}

// Create a new texture from a Resource. Any format registered with the image
// package (png, jpeg, bmp, tiff, webp) is accepted.
func New(res *asset.Resource) (*Texture, error) {
	src, format, err := image.Decode(res)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, res.Path())
		}
		return nil, fmt.Errorf("texture: could not decode %s: %w", res.Path(), err)
	}

	tex := FromImage(res.Name(), src)
	if tex.Width() == 0 || tex.Height() == 0 {
		return nil, fmt.Errorf("texture: %s (%s) has zero size", res.Path(), format)
	}
	return tex, nil
}

// FromImage wraps an already decoded image. Non-RGBA images are converted and
// re-based so that the top-left pixel is at (0, 0).
func FromImage(name string, src image.Image) *Texture {
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		bounds := src.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, src, bounds.Min, draw.Src)
	}
	return &Texture{Name: name, Image: rgba}
}

func (t *Texture) Width() int {
	return t.Image.Rect.Dx()
}

func (t *Texture) Height() int {
	return t.Image.Rect.Dy()
}

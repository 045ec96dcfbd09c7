package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/achilleasa/raygun/asset"
	"golang.org/x/image/bmp"
)

func TestPngTexture(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	src.Set(1, 2, color.NRGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	tex, err := New(asset.NewResourceFromStream("crate.png", &buf))
	if err != nil {
		t.Fatal(err)
	}

	if tex.Width() != 2 || tex.Height() != 3 {
		t.Fatalf("expected tex dims to be 2x3; got %dx%d", tex.Width(), tex.Height())
	}
	if tex.Name != "crate.png" {
		t.Fatalf("expected name crate.png; got %q", tex.Name)
	}
	if got := tex.Image.RGBAAt(1, 2); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("expected red pixel at (1,2); got %v", got)
	}
}

func TestBmpTexture(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	tex, err := New(asset.NewResourceFromStream("wall.bmp", &buf))
	if err != nil {
		t.Fatal(err)
	}
	if tex.Width() != 4 || tex.Height() != 4 {
		t.Fatalf("expected tex dims to be 4x4; got %dx%d", tex.Width(), tex.Height())
	}
}

func TestUnsupportedTexture(t *testing.T) {
	_, err := New(asset.NewResourceFromStream("notes.txt", strings.NewReader("not an image")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat; got %v", err)
	}
}

func TestFromImageRebase(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 12, 12))
	src.Set(10, 10, color.RGBA{G: 255, A: 255})

	tex := FromImage("sub", src)
	if tex.Image.Rect.Min != (image.Point{}) {
		t.Fatalf("expected rebased image; got bounds %v", tex.Image.Rect)
	}
	if got := tex.Image.RGBAAt(0, 0); got.G != 255 {
		t.Fatalf("expected green pixel at origin; got %v", got)
	}
}

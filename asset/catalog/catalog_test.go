package catalog

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/raygun/asset/model"
	"github.com/achilleasa/raygun/asset/texture"
	"github.com/achilleasa/raygun/types"
)

func writePng(t *testing.T, file string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadModelWithTexture(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "sign.obj"), []byte("mtllib sign.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nusemtl sign\nf 1/1 2/2 3/3\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "sign.mtl"), []byte("newmtl sign\nKd 1 1 1\nmap_Kd sign.png\n"), 0o644)
	writePng(t, filepath.Join(dir, "sign.png"), 8, 8)

	c := New()
	name, err := c.LoadModel(filepath.Join(dir, "sign.obj"))
	if err != nil {
		t.Fatal(err)
	}
	if name != "sign" {
		t.Fatalf("expected model name sign; got %q", name)
	}

	if _, err := c.Model(name); !errors.Is(err, ErrNotFinalized) {
		t.Fatalf("expected ErrNotFinalized; got %v", err)
	}
	if err := c.Finalize(16, 16); err != nil {
		t.Fatal(err)
	}

	m, err := c.Model(name)
	if err != nil {
		t.Fatal(err)
	}
	// An 8x8 texture at the atlas origin: local (1, 0) maps to (0.5, 0.5).
	if m.Faces[0].UV[1] != (types.Vec2{0.5, 0.5}) {
		t.Fatalf("expected uvs to be rewritten into atlas space; got %v", m.Faces[0].UV)
	}
	if c.Atlas().Image.RGBAAt(0, 0).R != 255 {
		t.Fatal("expected texture to be blitted into the atlas")
	}

	if err := c.Finalize(16, 16); !errors.Is(err, ErrFinalized) {
		t.Fatalf("expected ErrFinalized; got %v", err)
	}
}

func TestMissingTexture(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "sign.obj"), []byte("mtllib sign.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl sign\nf 1 2 3\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "sign.mtl"), []byte("newmtl sign\nmap_Kd nowhere.png\n"), 0o644)

	_, err := New().LoadModel(filepath.Join(dir, "sign.obj"))
	if !errors.Is(err, ErrUnknownTexture) {
		t.Fatalf("expected ErrUnknownTexture; got %v", err)
	}
}

func TestUnknownTextureOnFinalize(t *testing.T) {
	mat := model.DefaultMaterial()
	mat.Texture = "ghost"

	c := New()
	c.AddModel("wall", &model.Model{Name: "wall", Material: mat, Faces: []model.Face{{}}})
	if err := c.Finalize(8, 8); !errors.Is(err, ErrUnknownTexture) {
		t.Fatalf("expected ErrUnknownTexture; got %v", err)
	}
}

func TestModelLookup(t *testing.T) {
	c := New()
	c.AddTexture(texture.FromImage("unused", image.NewRGBA(image.Rect(0, 0, 2, 2))))
	if err := c.AddModel("box", &model.Model{Name: "box", Material: model.DefaultMaterial()}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddModel("box", &model.Model{}); !errors.Is(err, ErrDuplicateModel) {
		t.Fatalf("expected ErrDuplicateModel; got %v", err)
	}
	if err := c.Finalize(4, 4); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Model("crate"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel; got %v", err)
	}
	if names := c.ModelNames(); len(names) != 1 || names[0] != "box" {
		t.Fatalf("unexpected model names %v", names)
	}
}

package model

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/raygun/asset"
	"github.com/achilleasa/raygun/types"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestWavefrontQuad(t *testing.T) {
	payload := `
# unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
o floor
f 1/1 2/2 3/3 4/4
`
	mdl, err := Read(asset.NewResourceFromStream("floor.obj", strings.NewReader(payload)))
	if err != nil {
		t.Fatal(err)
	}

	if len(mdl.Faces) != 2 {
		t.Fatalf("expected quad to be split into 2 faces; got %d", len(mdl.Faces))
	}
	if mdl.Name != "floor" {
		t.Fatalf("expected model name floor; got %q", mdl.Name)
	}
	if mdl.Faces[1].Vertices[2] != (types.Vec3{0, 1, 0}) || mdl.Faces[1].UV[1] != (types.Vec2{1, 1}) {
		t.Fatalf("unexpected second face %+v", mdl.Faces[1])
	}
	if mdl.Material.Alpha != 1 || mdl.Material.Texture != "" {
		t.Fatalf("expected default material; got %+v", mdl.Material)
	}

	bbox := mdl.BBox()
	if bbox[0] != (types.Vec3{}) || bbox[1] != (types.Vec3{1, 1, 0}) {
		t.Fatalf("unexpected bbox %v", bbox)
	}
}

func TestWavefrontMaterialLibrary(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fence.obj": `
mtllib fence.mtl
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
usemtl wire
f 1/1 2/2 3/3
f -3/-3 -2/-2 -1/-1
`,
		"fence.mtl": `
newmtl wire
Kd 0.5 0.25 1
Ks 1 1 1
refl 0.5
Tr 0.25
map_Kd -blendu on textures/wire.png
uv_transparent
uv_divisor 2 4
`,
	})

	mdl, err := ReadFile(filepath.Join(dir, "fence.obj"))
	if err != nil {
		t.Fatal(err)
	}

	mat := mdl.Material
	if mat.Name != "wire" || mat.Color != (types.Vec3{0.5, 0.25, 1}) || mat.ReflectionColor != (types.Vec3{1, 1, 1}) {
		t.Fatalf("unexpected material colors %+v", mat)
	}
	if mat.Reflectivity != 0.5 || mat.Alpha != 0.75 {
		t.Fatalf("expected reflectivity 0.5 and alpha 0.75; got %v and %v", mat.Reflectivity, mat.Alpha)
	}
	if mat.Texture != "wire.png" || mat.TexturePath != "textures/wire.png" {
		t.Fatalf("unexpected texture reference %q (%q)", mat.Texture, mat.TexturePath)
	}
	if !mat.UVTransparency || mat.UVDivisor[0] != 2 || mat.UVDivisor[1] != 4 {
		t.Fatalf("unexpected uv flags %+v", mat)
	}
	if !mat.Surface().Textured {
		t.Fatal("expected surface to be textured")
	}

	tris := mdl.Triangles(types.Translate4(types.Vec3{0, 0, 5}), 3)
	if len(tris) != 2 || tris[0].Material != 3 || tris[0].Vertices[1] != (types.Vec3{1, 0, 5}) || !tris[0].UVTransparency {
		t.Fatalf("unexpected triangles %+v", tris)
	}
}

func TestWavefrontAssetErrors(t *testing.T) {
	specs := []struct {
		name   string
		obj    string
		expErr error
	}{
		{
			"two meshes",
			"v 0 0 0\nv 1 0 0\nv 0 1 0\no a\nf 1 2 3\no b\nf 1 2 3\n",
			ErrMultipleMeshes,
		},
		{
			"two materials",
			"mtllib lib.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\nusemtl blue\nf 1 2 3\n",
			ErrMultipleMaterials,
		},
		{
			"no faces",
			"v 0 0 0\n",
			ErrNoGeometry,
		},
	}

	for specIndex, spec := range specs {
		dir := writeFiles(t, map[string]string{
			"model.obj": spec.obj,
			"lib.mtl":   "newmtl red\nKd 1 0 0\nnewmtl blue\nKd 0 0 1\n",
		})
		_, err := ReadFile(filepath.Join(dir, "model.obj"))
		if !errors.Is(err, spec.expErr) {
			t.Fatalf("[spec %d: %s] expected error %v; got %v", specIndex, spec.name, spec.expErr, err)
		}
	}
}

func TestWavefrontEmptyGroupIsNotAMesh(t *testing.T) {
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\ng empty\no real\nf 1 2 3\n"
	if _, err := Read(asset.NewResourceFromStream("m.obj", strings.NewReader(obj))); err != nil {
		t.Fatalf("expected groups without faces to be ignored; got %v", err)
	}
}

func TestUnsupportedModelFormat(t *testing.T) {
	_, err := Read(asset.NewResourceFromStream("scene.fbx", strings.NewReader("")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat; got %v", err)
	}
}

func TestGltfTriangle(t *testing.T) {
	var buf bytes.Buffer
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 1} {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(f))
	}
	data := base64.StdEncoding.EncodeToString(buf.Bytes())

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": 60, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 24}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC2"}
  ],
  "materials": [{
    "name": "leaves",
    "alphaMode": "MASK",
    "pbrMetallicRoughness": {"baseColorFactor": [0, 1, 0, 1], "metallicFactor": 0.25}
  }],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0, "TEXCOORD_0": 1}, "material": 0}]}]
}`, data)

	dir := writeFiles(t, map[string]string{"leaf.gltf": doc})
	mdl, err := ReadFile(filepath.Join(dir, "leaf.gltf"))
	if err != nil {
		t.Fatal(err)
	}

	if len(mdl.Faces) != 1 {
		t.Fatalf("expected 1 face; got %d", len(mdl.Faces))
	}
	if mdl.Faces[0].Vertices[1] != (types.Vec3{1, 0, 0}) {
		t.Fatalf("unexpected vertex %v", mdl.Faces[0].Vertices[1])
	}
	// v is flipped to the bottom-left origin convention.
	if mdl.Faces[0].UV[2] != (types.Vec2{0, 0}) || mdl.Faces[0].UV[0] != (types.Vec2{0, 1}) {
		t.Fatalf("unexpected uvs %v", mdl.Faces[0].UV)
	}
	if mdl.Material.Color != (types.Vec3{0, 1, 0}) || !mdl.Material.UVTransparency || mdl.Material.Reflectivity != 0.25 {
		t.Fatalf("unexpected material %+v", mdl.Material)
	}
}

func TestSupported(t *testing.T) {
	specs := []struct {
		path string
		exp  bool
	}{
		{"crate.obj", true},
		{"models/Fence.GLB", true},
		{"https://example.com/assets/lamp.gltf", true},
		{"brick.png", false},
		{"noext", false},
	}

	for specIndex, spec := range specs {
		if got := Supported(spec.path); got != spec.exp {
			t.Fatalf("[spec %d] expected Supported(%q) to be %t; got %t", specIndex, spec.path, spec.exp, got)
		}
	}
}

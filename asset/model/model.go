package model

import (
	"errors"

	"github.com/achilleasa/raygun/asset/texture"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

var (
	ErrMultipleMaterials = errors.New("model: more than one material in use")
	ErrMultipleMeshes    = errors.New("model: more than one mesh defined")
	ErrNoGeometry        = errors.New("model: no triangles defined")
	ErrUnsupportedFormat = errors.New("model: unsupported file format")
)

// Face is a model-space triangle with per-vertex texture coordinates.
type Face struct {
	Vertices [3]types.Vec3
	UV       [3]types.Vec2
}

// Material holds the surface properties shared by all faces of a model.
type Material struct {
	Name string

	Color types.Vec3

	// Diffuse texture name; empty if untextured.
	Texture string

	// Location of the texture relative to the model file. Empty for
	// textures embedded in the model.
	TexturePath string

	ReflectionColor types.Vec3
	Reflectivity    float32

	Alpha          float32
	UVTransparency bool
	UVDivisor      scene.UVDivisor
}

// DefaultMaterial is assigned to faces that do not reference a material.
func DefaultMaterial() *Material {
	return &Material{
		Color:     types.Vec3{0.7, 0.7, 0.7},
		Alpha:     1,
		UVDivisor: scene.UVDivisor{1, 1},
	}
}

// Surface returns the part of the material stored in the material table.
func (m *Material) Surface() scene.Material {
	return scene.Material{
		Color:           m.Color,
		Textured:        m.Texture != "",
		ReflectionColor: m.ReflectionColor,
		Reflectivity:    m.Reflectivity,
	}
}

// Model is a single mesh with a single material.
type Model struct {
	Name     string
	Faces    []Face
	Material *Material

	// Textures embedded in the model file.
	Textures []*texture.Texture
}

// BBox returns the model-space bounds of all faces.
func (m *Model) BBox() [2]types.Vec3 {
	if len(m.Faces) == 0 {
		return [2]types.Vec3{}
	}
	bbox := [2]types.Vec3{m.Faces[0].Vertices[0], m.Faces[0].Vertices[0]}
	for _, f := range m.Faces {
		for _, v := range f.Vertices {
			bbox[0] = types.MinVec3(bbox[0], v)
			bbox[1] = types.MaxVec3(bbox[1], v)
		}
	}
	return bbox
}

// Triangles returns the faces transformed by m as kernel triangles using the
// supplied material slot. The per-triangle flags come from the model material.
func (m *Model) Triangles(transform types.Mat4, material scene.MaterialID) []scene.Triangle {
	mat := m.Material
	if mat == nil {
		mat = DefaultMaterial()
	}

	out := make([]scene.Triangle, len(m.Faces))
	for i, f := range m.Faces {
		out[i] = scene.Triangle{
			Vertices:       f.Vertices,
			Material:       material,
			Alpha:          mat.Alpha,
			UVDivisor:      mat.UVDivisor.Normalized(),
			UVTransparency: mat.UVTransparency,
		}.Transform(transform)
	}
	return out
}

// Mappings returns the texture coordinates of every face.
func (m *Model) Mappings() []scene.TriangleMapping {
	out := make([]scene.TriangleMapping, len(m.Faces))
	for i, f := range m.Faces {
		out[i] = scene.TriangleMapping{UV: f.UV}
	}
	return out
}

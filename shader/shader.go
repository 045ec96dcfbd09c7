// Package shader holds the GLSL sources of the raytracing pass.
package shader

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/achilleasa/raygun/bvh"
	"github.com/achilleasa/raygun/kernel"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/store"
)

// The GLSL version every stage is compiled with.
const Version = "#version 330 core"

// Uniform block names and the binding points they are attached to.
var Blocks = []Block{
	{"Camera", 0, kernel.CameraBlockVec4s},
	{"StaticTriangles", 1, store.MaxStaticTriangles * scene.TriangleVec4s},
	{"StaticMappings", 2, store.MappingVec4s(store.MaxStaticTriangles)},
	{"DynamicTriangles", 3, store.MaxDynamicTriangles * scene.TriangleVec4s},
	{"DynamicMappings", 4, store.MappingVec4s(store.MaxDynamicTriangles)},
	{"Materials", 5, store.MaxMaterials * scene.MaterialVec4s},
	{"Lights", 6, store.LightVec4s},
	{"Index", 7, bvh.IndexVec4s},
}

// The name of the atlas sampler uniform.
const AtlasSampler = "atlas"

// Block describes a uniform block of the fragment shader.
type Block struct {
	Name    string
	Binding uint32
	Vec4s   int
}

// Bytes returns the block size.
func (b Block) Bytes() int {
	return b.Vec4s * 16
}

// BlockByName looks up a uniform block.
func BlockByName(name string) (Block, bool) {
	for _, b := range Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

//go:embed fullscreen.vert
var vertexSource string

//go:embed raytrace.frag
var fragmentSource string

// Vertex returns the full-screen triangle vertex shader.
func Vertex() string {
	return Version + "\n" + vertexSource
}

// Fragment returns the raytracing fragment shader with its buffer sizes and
// constants defined.
func Fragment() string {
	var sb strings.Builder
	sb.WriteString(Version + "\n")
	for _, def := range Defines() {
		fmt.Fprintf(&sb, "#define %s %s\n", def[0], def[1])
	}
	sb.WriteString(fragmentSource)
	return sb.String()
}

// Defines returns the preprocessor definitions prepended to the fragment shader.
func Defines() [][2]string {
	size := func(name string) string {
		b, _ := BlockByName(name)
		return fmt.Sprint(b.Vec4s)
	}
	return [][2]string{
		{"CAMERA_VEC4S", size("Camera")},
		{"STATIC_TRIANGLE_VEC4S", size("StaticTriangles")},
		{"STATIC_MAPPING_VEC4S", size("StaticMappings")},
		{"DYNAMIC_TRIANGLE_VEC4S", size("DynamicTriangles")},
		{"DYNAMIC_MAPPING_VEC4S", size("DynamicMappings")},
		{"MATERIAL_VEC4S", size("Materials")},
		{"LIGHT_VEC4S", size("Lights")},
		{"INDEX_VEC4S", size("Index")},
		{"MAX_INDEX_NODES", fmt.Sprint(bvh.MaxIndexNodes)},
		{"SURFACE_EPSILON", glslFloat(kernel.SurfaceEpsilon)},
		{"DET_EPSILON", glslFloat(scene.DetEpsilon)},
		{"U_EPSILON", glslFloat(scene.UEpsilon)},
		{"INFINITY", "1e30"},
		{"BACKGROUND", fmt.Sprintf("vec3(%s, %s, %s)", glslFloat(kernel.Background[0]), glslFloat(kernel.Background[1]), glslFloat(kernel.Background[2]))},
	}
}

func glslFloat(v float32) string {
	s := fmt.Sprint(v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

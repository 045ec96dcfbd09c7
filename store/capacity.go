package store

import (
	"errors"

	"github.com/achilleasa/raygun/scene"
)

const (
	// Size of a single uniform binding.
	UniformBlockBytes = 64 * 1024

	vec4Bytes = 16

	// Static triangles fill one uniform binding.
	MaxStaticTriangles  = UniformBlockBytes / (scene.TriangleVec4s * vec4Bytes)
	MaxDynamicTriangles = 64
	MaxMaterials        = 16
	MaxLights           = 16
)

var (
	ErrStaticTrianglesExhausted  = errors.New("store: static triangle capacity exhausted")
	ErrDynamicTrianglesExhausted = errors.New("store: dynamic triangle capacity exhausted")
	ErrMaterialsExhausted        = errors.New("store: material capacity exhausted")
	ErrLightsExhausted           = errors.New("store: light capacity exhausted")
	ErrInvalidTriangleID         = errors.New("store: invalid triangle id")
)

// MappingVec4s returns the number of 4-vectors needed to pack the UV
// mappings of capacity triangles.
func MappingVec4s(capacity int) int {
	return (capacity + 1) / 2 * 3
}

// LightVec4s is the size of the packed light table: a header followed by
// the light records.
const LightVec4s = 1 + MaxLights*scene.LightVec4s

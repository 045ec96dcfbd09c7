package kernel

import (
	"image"

	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/store"
	"github.com/achilleasa/raygun/types"
)

// The camera block holds the encoded camera followed by one frame info vector.
const CameraBlockVec4s = scene.CameraVec4s + 1

// FrameInfo describes which parts of the scene buffers are populated.
type FrameInfo struct {
	// False when no static triangles exist; the index must not be walked.
	HasStaticIndex bool

	// Slots to scan; one past the highest occupied slot.
	StaticSlots  int
	DynamicSlots int
}

// Encode packs the info as (hasStaticIndex, staticSlots, dynamicSlots, 0).
func (fi FrameInfo) Encode() types.Vec4 {
	var hasIndex float32
	if fi.HasStaticIndex {
		hasIndex = 1
	}
	return types.Vec4{hasIndex, float32(fi.StaticSlots), float32(fi.DynamicSlots), 0}
}

// DecodeFrameInfo unpacks a frame info vector.
func DecodeFrameInfo(v types.Vec4) FrameInfo {
	return FrameInfo{
		HasStaticIndex: v[0] > 0.5,
		StaticSlots:    int(v[1]),
		DynamicSlots:   int(v[2]),
	}
}

// Buffers mirrors the uniform blocks and the atlas texture bound to the
// fragment shader.
type Buffers struct {
	Camera           []types.Vec4
	StaticTriangles  []types.Vec4
	StaticMappings   []types.Vec4
	DynamicTriangles []types.Vec4
	DynamicMappings  []types.Vec4
	Materials        []types.Vec4
	Lights           []types.Vec4
	Index            []types.Vec4

	Atlas *image.RGBA
}

// Info decodes the frame info vector of the camera block.
func (b *Buffers) Info() FrameInfo {
	return DecodeFrameInfo(b.Camera[scene.CameraVec4s])
}

// CameraState decodes the camera block.
func (b *Buffers) CameraState() *scene.Camera {
	var enc [scene.CameraVec4s]types.Vec4
	copy(enc[:], b.Camera)
	return scene.DecodeCamera(enc)
}

func (b *Buffers) triangle(kind scene.Provenance, index int) (scene.Triangle, bool) {
	src := b.StaticTriangles
	if kind == scene.Dynamic {
		src = b.DynamicTriangles
	}
	var enc [scene.TriangleVec4s]types.Vec4
	copy(enc[:], src[index*scene.TriangleVec4s:])
	return scene.DecodeTriangle(enc)
}

func (b *Buffers) mapping(kind scene.Provenance, index int) scene.TriangleMapping {
	if kind == scene.Dynamic {
		return store.UnpackMapping(b.DynamicMappings, index)
	}
	return store.UnpackMapping(b.StaticMappings, index)
}

func (b *Buffers) material(id scene.MaterialID) scene.Material {
	var enc [scene.MaterialVec4s]types.Vec4
	copy(enc[:], b.Materials[int(id)*scene.MaterialVec4s:])
	return scene.DecodeMaterial(enc)
}

func (b *Buffers) lightCount() int {
	return int(b.Lights[0][0])
}

func (b *Buffers) light(index int) scene.Light {
	var enc [scene.LightVec4s]types.Vec4
	copy(enc[:], b.Lights[1+index*scene.LightVec4s:])
	return scene.DecodeLight(enc)
}

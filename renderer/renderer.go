package renderer

import (
	"image"

	"github.com/achilleasa/raygun/shader"
	"github.com/achilleasa/raygun/types"
)

type Renderer interface {
	// Render frame.
	Render() error

	// Release GPU resources.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// Backend abstracts the GPU. The driver is its only caller and never calls
// it concurrently.
type Backend interface {
	// Replace the contents of a uniform block.
	UploadBlock(block shader.Block, data []types.Vec4) error

	// Replace the atlas texture.
	UploadAtlas(atlas *image.RGBA) error

	// Run the raytracing pass into the intermediate texture. A lost or
	// outdated surface is reported as ErrSurfaceLost.
	Draw(width, height uint32) error

	Close()
}

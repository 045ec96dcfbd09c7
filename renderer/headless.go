package renderer

import (
	"image"

	"github.com/achilleasa/raygun/shader"
	"github.com/achilleasa/raygun/types"
)

// HeadlessBackend accepts uploads without a GPU. The driver keeps its own
// copy of the uploaded buffers, so a headless driver can still be probed
// through the kernel package.
type HeadlessBackend struct {
	// Bytes received so far.
	UploadedBytes int
}

func (b *HeadlessBackend) UploadBlock(block shader.Block, data []types.Vec4) error {
	b.UploadedBytes += len(data) * 16
	return nil
}

func (b *HeadlessBackend) UploadAtlas(atlas *image.RGBA) error {
	b.UploadedBytes += len(atlas.Pix)
	return nil
}

func (b *HeadlessBackend) Draw(width, height uint32) error {
	return nil
}

func (b *HeadlessBackend) Close() {}

package renderer

import (
	"math"

	"github.com/achilleasa/raygun/scene"
)

type Options struct {
	// Raytraced frame dims. Scaling to the window happens outside the renderer.
	FrameW uint32
	FrameH uint32

	// Vertical field of view in radians.
	FOV float32

	// Distance from the camera origin to the image plane.
	FocalDistance float32

	// Atlas dims.
	AtlasW uint32
	AtlasH uint32

	// Window pixels per frame pixel.
	WindowScale float32
}

// DefaultOptions returns the options used when no flags are specified.
func DefaultOptions() Options {
	return Options{
		FrameW:        320,
		FrameH:        200,
		FOV:           math.Pi / 2,
		FocalDistance: 1,
		AtlasW:        1024,
		AtlasH:        1024,
		WindowScale:   3,
	}
}

// Viewport returns the camera viewport for the frame.
func (o Options) Viewport() scene.Viewport {
	return scene.Viewport{
		Width:  float32(o.FrameW),
		Height: float32(o.FrameH),
		FOV:    o.FOV,
	}
}

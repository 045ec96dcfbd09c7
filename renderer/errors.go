package renderer

import "errors"

var (
	ErrSurfaceLost           = errors.New("renderer: surface lost")
	ErrCameraNotDefined      = errors.New("renderer: no camera defined")
	ErrCatalogNotFinalized   = errors.New("renderer: asset catalog not finalized")
	ErrShaderCompile         = errors.New("renderer: shader compilation failed")
	ErrFramebufferIncomplete = errors.New("renderer: framebuffer incomplete")
)

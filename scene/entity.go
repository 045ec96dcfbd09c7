package scene

import "github.com/achilleasa/raygun/types"

// EntityID is an opaque handle owned by the game layer.
type EntityID uint32

// Renderable describes an entity that contributes triangles to the scene.
type Renderable struct {
	Entity EntityID

	// Name of the model in the asset catalog.
	Model string

	// Model to world transform.
	Transform types.Mat4

	// Replaces the model material when set.
	Material *Material

	// Dynamic renderables are scanned linearly and may change every frame.
	Dynamic bool
}

// LightSource is a light as reported by the game layer.
type LightSource struct {
	Light
	Enabled bool
}

// Changes collects the renderable updates observed since the previous frame.
type Changes struct {
	Added   []Renderable
	Changed []Renderable
	Removed []EntityID
}

// Empty returns true if there are no pending changes.
func (c *Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
}

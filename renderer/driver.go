package renderer

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/raygun/asset/catalog"
	"github.com/achilleasa/raygun/asset/model"
	"github.com/achilleasa/raygun/bvh"
	"github.com/achilleasa/raygun/kernel"
	"github.com/achilleasa/raygun/log"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/shader"
	"github.com/achilleasa/raygun/store"
	"github.com/achilleasa/raygun/types"
)

// The slots held by a renderable entity.
type entityState struct {
	model     *model.Model
	dynamic   bool
	triangles []scene.TriangleID
}

var _ Renderer = (*Driver)(nil)

// Driver keeps the CPU mirrors of the scene buffers in sync with the game
// world and submits one raytracing pass per frame.
type Driver struct {
	logger  log.Logger
	backend Backend
	catalog *catalog.Catalog
	options Options

	tables   *store.Tables
	entities map[scene.EntityID]*entityState
	camera   *scene.Camera

	index       *bvh.Index
	indexNodes  int
	indexDirty  bool
	indexLoaded bool

	// The buffers as last uploaded.
	uploaded   kernel.Buffers
	firstFrame bool

	stats FrameStats
}

// NewDriver uploads the atlas of a finalized catalog and returns a driver
// with empty scene tables.
func NewDriver(backend Backend, cat *catalog.Catalog, opts Options) (*Driver, error) {
	if cat.Atlas() == nil {
		return nil, ErrCatalogNotFinalized
	}
	if err := backend.UploadAtlas(cat.Atlas().Image); err != nil {
		return nil, err
	}

	return &Driver{
		logger:     log.New("render driver"),
		backend:    backend,
		catalog:    cat,
		options:    opts,
		tables:     store.NewTables(),
		entities:   make(map[scene.EntityID]*entityState),
		index:      &bvh.Index{},
		firstFrame: true,
		uploaded:   kernel.Buffers{Atlas: cat.Atlas().Image},
	}, nil
}

// Tables exposes the scene tables.
func (d *Driver) Tables() *store.Tables {
	return d.tables
}

// Sync applies entity changes in a fixed order: removals, additions, then
// in-place updates. The geometry index is rebuilt if any static slot changed.
// Capacity errors are fatal for the frame.
func (d *Driver) Sync(changes scene.Changes) error {
	start := time.Now()

	removed := make(map[scene.EntityID]bool, len(changes.Removed))
	for _, id := range changes.Removed {
		removed[id] = true
		if _, exists := d.entities[id]; !exists {
			d.logger.Warningf("ignoring removal of unknown entity %d", id)
			continue
		}
		d.remove(id)
	}

	for _, r := range changes.Added {
		if _, exists := d.entities[r.Entity]; exists {
			d.logger.Warningf("entity %d added twice; replacing it", r.Entity)
			d.remove(r.Entity)
		}
		if err := d.add(r); err != nil {
			return err
		}
	}

	for _, r := range changes.Changed {
		if removed[r.Entity] {
			continue
		}
		if err := d.update(r); err != nil {
			return err
		}
	}
	d.stats.SyncTime = time.Since(start)

	if d.indexDirty {
		if err := d.rebuildIndex(); err != nil {
			return err
		}
	}
	return nil
}

// SetLights replaces the light table with the enabled lights.
func (d *Driver) SetLights(lights []scene.LightSource) error {
	d.tables.Lights.Reset()
	for _, l := range lights {
		if !l.Enabled {
			continue
		}
		if err := d.tables.Lights.Push(l.Light); err != nil {
			return err
		}
	}
	return nil
}

// SetCamera selects the camera used for the following frames.
func (d *Driver) SetCamera(cam *scene.Camera) {
	d.camera = cam
	if cam != nil {
		cam.SetViewport(d.options.Viewport())
	}
}

// Camera returns the active camera.
func (d *Driver) Camera() *scene.Camera {
	return d.camera
}

// Render uploads the buffers that changed since the previous frame and runs
// the raytracing pass. A lost surface drops the frame without an error.
func (d *Driver) Render() error {
	if d.camera == nil {
		return ErrCameraNotDefined
	}

	start := time.Now()
	uploadBytes, err := d.upload()
	if err != nil {
		return err
	}
	d.stats.UploadBytes = uploadBytes
	d.stats.UploadTime = time.Since(start)

	start = time.Now()
	err = d.backend.Draw(d.options.FrameW, d.options.FrameH)
	d.stats.RenderTime = time.Since(start)
	switch {
	case errors.Is(err, ErrSurfaceLost):
		d.stats.DroppedFrames++
		d.logger.Debugf("dropping frame: %v", err)
		return nil
	case err != nil:
		return err
	}

	d.stats.Frames++
	return nil
}

// Frame runs a full frame: entity sync, lights, camera and render.
func (d *Driver) Frame(changes scene.Changes, lights []scene.LightSource, cam *scene.Camera) error {
	if err := d.Sync(changes); err != nil {
		return err
	}
	if err := d.SetLights(lights); err != nil {
		return err
	}
	if cam != d.camera {
		d.SetCamera(cam)
	}
	return d.Render()
}

// Stats returns the statistics of the last frame.
func (d *Driver) Stats() FrameStats {
	s := d.stats
	s.IndexNodes = d.indexNodes
	s.StaticTriangles = d.tables.StaticTriangles.Len()
	s.DynamicTriangles = d.tables.DynamicTriangles.Len()
	s.Materials = d.tables.Materials.Len()
	s.Lights = d.tables.Lights.Len()
	return s
}

// Buffers returns the scene buffers as last uploaded to the GPU.
func (d *Driver) Buffers() *kernel.Buffers {
	b := d.uploaded
	return &b
}

func (d *Driver) Close() {
	d.backend.Close()
}

func (d *Driver) add(r scene.Renderable) error {
	mdl, err := d.catalog.Model(r.Model)
	if err != nil {
		return fmt.Errorf("renderer: entity %d: %w", r.Entity, err)
	}

	matID, err := d.tables.Materials.Alloc(r.Entity, surfaceOf(r, mdl))
	if err != nil {
		return fmt.Errorf("renderer: entity %d: %w", r.Entity, err)
	}

	kind := scene.Static
	if r.Dynamic {
		kind = scene.Dynamic
	}
	triangles := d.tables.Triangles(kind)
	mappings := d.tables.Mappings(kind)

	state := &entityState{model: mdl, dynamic: r.Dynamic}
	uvs := mdl.Mappings()
	for faceIndex, tri := range mdl.Triangles(r.Transform, matID) {
		id, err := triangles.Alloc(tri)
		if err != nil {
			// Leave the tables as they were before this entity.
			d.entities[r.Entity] = state
			d.remove(r.Entity)
			return fmt.Errorf("renderer: entity %d: %w", r.Entity, err)
		}
		mappings.Set(id.Index, uvs[faceIndex])
		state.triangles = append(state.triangles, id)
	}

	if kind == scene.Static {
		d.indexDirty = true
	}
	d.entities[r.Entity] = state
	return nil
}

func (d *Driver) update(r scene.Renderable) error {
	state, exists := d.entities[r.Entity]
	if !exists {
		return d.add(r)
	}

	// Static geometry and provenance changes go through the allocator so the
	// index is rebuilt.
	if !state.dynamic || !r.Dynamic || state.model.Name != r.Model {
		d.remove(r.Entity)
		return d.add(r)
	}

	matID, err := d.tables.Materials.Alloc(r.Entity, surfaceOf(r, state.model))
	if err != nil {
		return fmt.Errorf("renderer: entity %d: %w", r.Entity, err)
	}
	for faceIndex, tri := range state.model.Triangles(r.Transform, matID) {
		if err := d.tables.DynamicTriangles.Set(state.triangles[faceIndex], tri); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) remove(id scene.EntityID) {
	state := d.entities[id]
	for _, triID := range state.triangles {
		if err := d.tables.Triangles(triID.Kind).Free(triID); err != nil {
			d.logger.Warningf("entity %d: %v", id, err)
		}
		d.tables.Mappings(triID.Kind).Clear(triID.Index)
		if triID.Kind == scene.Static {
			d.indexDirty = true
		}
	}
	d.tables.Materials.Free(id)
	delete(d.entities, id)
}

func (d *Driver) rebuildIndex() error {
	index, stats, err := BuildIndex(d.tables.StaticTriangles)
	if err != nil {
		return err
	}

	d.index = index
	d.indexNodes = stats.Nodes
	d.indexDirty = false
	d.indexLoaded = false
	d.stats.IndexTime = stats.BuildTime
	d.logger.Infof("built geometry index with %d nodes for %d triangles in %d ms", stats.Nodes, stats.Triangles, stats.BuildTime.Nanoseconds()/1e6)
	if stats.Skipped > 0 {
		d.logger.Warningf("left %d static triangles with non-finite vertices out of the geometry index", stats.Skipped)
	}
	return nil
}

func (d *Driver) frameInfo() kernel.FrameInfo {
	return kernel.FrameInfo{
		HasStaticIndex: d.indexNodes > 0,
		StaticSlots:    d.tables.StaticTriangles.HighWater(),
		DynamicSlots:   d.tables.DynamicTriangles.HighWater(),
	}
}

type dirtyTracker interface {
	Dirty() bool
	ClearDirty()
}

// Upload every buffer that changed since the previous frame.
func (d *Driver) upload() (int, error) {
	uploadBytes := 0
	send := func(name string, data []types.Vec4, target *[]types.Vec4) error {
		block, _ := shader.BlockByName(name)
		if err := d.backend.UploadBlock(block, data); err != nil {
			return fmt.Errorf("renderer: upload %s: %w", name, err)
		}
		*target = data
		uploadBytes += len(data) * 16
		return nil
	}

	tables := []struct {
		name   string
		state  dirtyTracker
		pack   func() []types.Vec4
		target *[]types.Vec4
	}{
		{"StaticTriangles", d.tables.StaticTriangles, d.tables.StaticTriangles.Pack, &d.uploaded.StaticTriangles},
		{"StaticMappings", d.tables.StaticMappings, d.tables.StaticMappings.Pack, &d.uploaded.StaticMappings},
		{"DynamicTriangles", d.tables.DynamicTriangles, d.tables.DynamicTriangles.Pack, &d.uploaded.DynamicTriangles},
		{"DynamicMappings", d.tables.DynamicMappings, d.tables.DynamicMappings.Pack, &d.uploaded.DynamicMappings},
		{"Materials", d.tables.Materials, d.tables.Materials.Pack, &d.uploaded.Materials},
	}
	for _, t := range tables {
		if !d.firstFrame && !t.state.Dirty() {
			continue
		}
		if err := send(t.name, t.pack(), t.target); err != nil {
			return uploadBytes, err
		}
		t.state.ClearDirty()
	}

	// The light table is rebuilt every frame.
	if err := send("Lights", d.tables.Lights.Pack(), &d.uploaded.Lights); err != nil {
		return uploadBytes, err
	}

	if !d.indexLoaded {
		if err := send("Index", d.index.Vec4s(), &d.uploaded.Index); err != nil {
			return uploadBytes, err
		}
		d.indexLoaded = true
	}

	enc := d.camera.Encode()
	cameraBlock := append(enc[:], d.frameInfo().Encode())
	if d.firstFrame || d.camera.Dirty() || !sameVec4s(cameraBlock, d.uploaded.Camera) {
		if err := send("Camera", cameraBlock, &d.uploaded.Camera); err != nil {
			return uploadBytes, err
		}
		d.camera.ClearDirty()
	}

	d.firstFrame = false
	return uploadBytes, nil
}

// The material stored for an entity: its override or the model material.
func surfaceOf(r scene.Renderable, mdl *model.Model) scene.Material {
	if r.Material != nil {
		return *r.Material
	}
	if mdl.Material == nil {
		return model.DefaultMaterial().Surface()
	}
	return mdl.Material.Surface()
}

func sameVec4s(a, b []types.Vec4) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

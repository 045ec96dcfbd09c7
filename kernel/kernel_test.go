package kernel

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/achilleasa/raygun/bvh"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/store"
	"github.com/achilleasa/raygun/types"
)

type fixture struct {
	t      *testing.T
	tables *store.Tables
	camera *scene.Camera
	atlas  *image.RGBA
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t:      t,
		tables: store.NewTables(),
		camera: scene.NewCamera(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, types.Vec3{0, 1, 0}, scene.Viewport{Width: 64, Height: 64, FOV: math.Pi / 2}, 1),
	}
}

func (f *fixture) material(owner scene.EntityID, m scene.Material) scene.MaterialID {
	id, err := f.tables.Materials.Alloc(owner, m)
	if err != nil {
		f.t.Fatal(err)
	}
	return id
}

func (f *fixture) add(kind scene.Provenance, tri scene.Triangle, uv [3]types.Vec2) scene.TriangleID {
	if tri.Alpha == 0 {
		tri.Alpha = 1
	}
	id, err := f.tables.Triangles(kind).Alloc(tri)
	if err != nil {
		f.t.Fatal(err)
	}
	f.tables.Mappings(kind).Set(id.Index, scene.TriangleMapping{UV: uv})
	return id
}

func (f *fixture) light(pos types.Vec3) {
	if err := f.tables.Lights.Push(scene.Light{Position: pos, Color: types.Vec3{1, 1, 1}, Intensity: 1}); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) buffers() *Buffers {
	var volumes []bvh.BoundedVolume
	var slots []uint32
	f.tables.StaticTriangles.Each(func(id scene.TriangleID, tri scene.Triangle) {
		volumes = append(volumes, tri)
		slots = append(slots, id.Index)
	})

	index := &bvh.Index{}
	if len(volumes) > 0 {
		var err error
		index, err = bvh.Serialize(bvh.Linearize(bvh.Build(volumes)), func(item int) uint32 { return slots[item] })
		if err != nil {
			f.t.Fatal(err)
		}
	}

	cam := f.camera.Encode()
	info := FrameInfo{
		HasStaticIndex: len(volumes) > 0,
		StaticSlots:    f.tables.StaticTriangles.HighWater(),
		DynamicSlots:   f.tables.DynamicTriangles.HighWater(),
	}
	return &Buffers{
		Camera:           append(cam[:], info.Encode()),
		StaticTriangles:  f.tables.StaticTriangles.Pack(),
		StaticMappings:   f.tables.StaticMappings.Pack(),
		DynamicTriangles: f.tables.DynamicTriangles.Pack(),
		DynamicMappings:  f.tables.DynamicMappings.Pack(),
		Materials:        f.tables.Materials.Pack(),
		Lights:           f.tables.Lights.Pack(),
		Index:            index.Vec4s(),
		Atlas:            f.atlas,
	}
}

// A triangle covering the view centre at depth z.
func facingTriangle(z float32, mat scene.MaterialID) scene.Triangle {
	return scene.Triangle{
		Vertices: [3]types.Vec3{{-1, -1, z}, {1, -1, z}, {0, 1, z}},
		Material: mat,
	}
}

var center = types.Vec2{32, 32}

func approxColor(a, b types.Vec3, eps float32) bool {
	for i := range a {
		if d := a[i] - b[i]; d > eps || d < -eps {
			return false
		}
	}
	return true
}

func TestMissIsOpaqueBlack(t *testing.T) {
	f := newFixture(t)
	f.light(types.Vec3{0, 5, 0})

	if got := Shade(f.buffers(), center); got != (types.Vec4{0, 0, 0, 1}) {
		t.Fatalf("expected (0,0,0,1); got %v", got)
	}
}

func TestDirectLighting(t *testing.T) {
	specs := []struct {
		kind scene.Provenance
	}{
		{scene.Static},
		{scene.Dynamic},
	}

	for specIndex, spec := range specs {
		f := newFixture(t)
		mat := f.material(1, scene.Material{Color: types.Vec3{1, 0, 0}})
		id := f.add(spec.kind, facingTriangle(-5, mat), [3]types.Vec2{})
		f.light(types.Vec3{0, 0, 0})
		b := f.buffers()

		isect, ok := Trace(b, PrimaryRay(b, center), infinity)
		if !ok || isect.Triangle != id {
			t.Fatalf("[spec %d] expected to hit %s; got %v (%v)", specIndex, id, isect.Triangle, ok)
		}
		if math.Abs(float64(isect.Hit.T-5)) > 1e-4 {
			t.Fatalf("[spec %d] expected t = 5; got %f", specIndex, isect.Hit.T)
		}

		got := Shade(b, center)
		if !approxColor(got.Vec3(), types.Vec3{1, 0, 0}, 1e-4) || got[3] != 1 {
			t.Fatalf("[spec %d] expected lit red pixel; got %v", specIndex, got)
		}
	}
}

func TestShadowAndOcclusion(t *testing.T) {
	f := newFixture(t)
	mat := f.material(1, scene.Material{Color: types.Vec3{1, 1, 1}})
	f.add(scene.Static, facingTriangle(-5, mat), [3]types.Vec2{})
	// Blocker between the lit surface and the light.
	f.add(scene.Dynamic, scene.Triangle{Vertices: [3]types.Vec3{{-1, -1, -2}, {0, 1, -2}, {1, -1, -2}}, Material: mat}, [3]types.Vec2{})
	f.light(types.Vec3{0, 0, 0})
	b := f.buffers()

	ray := scene.Ray{Origin: types.Vec3{0, 0, -4.99}, Dir: types.Vec3{0, 0, 1}}
	if !Occluded(b, ray, 4.99) {
		t.Fatal("expected shadow ray to be occluded")
	}
	if Occluded(b, ray, 2.9) {
		t.Fatal("expected hits beyond the light distance to be ignored")
	}

	// The camera sees the blocker, whose back faces the light.
	isect, _ := Trace(b, PrimaryRay(b, center), infinity)
	if isect.Triangle.Kind != scene.Dynamic {
		t.Fatalf("expected the nearer dynamic triangle to win; got %s", isect.Triangle)
	}
}

func TestUVTransparency(t *testing.T) {
	f := newFixture(t)
	f.atlas = image.NewRGBA(image.Rect(0, 0, 2, 1))
	f.atlas.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 0})
	f.atlas.SetRGBA(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	wall := f.material(1, scene.Material{Color: types.Vec3{0, 0, 1}})
	f.add(scene.Static, facingTriangle(-6, wall), [3]types.Vec2{})

	glass := f.material(2, scene.Material{Color: types.Vec3{1, 1, 1}, Textured: true})
	tri := facingTriangle(-3, glass)
	tri.UVTransparency = true

	// Left texel (alpha 0) everywhere.
	hole := f.add(scene.Dynamic, tri, [3]types.Vec2{{0.1, 0.5}, {0.1, 0.5}, {0.1, 0.5}})
	b := f.buffers()
	isect, _ := Trace(b, PrimaryRay(b, center), infinity)
	if isect.Triangle.Kind != scene.Static {
		t.Fatalf("expected ray to pass through the transparent texel; hit %s", isect.Triangle)
	}

	// Right texel (alpha 255) everywhere.
	f.tables.DynamicMappings.Set(hole.Index, scene.TriangleMapping{UV: [3]types.Vec2{{0.9, 0.5}, {0.9, 0.5}, {0.9, 0.5}}})
	b = f.buffers()
	isect, _ = Trace(b, PrimaryRay(b, center), infinity)
	if isect.Triangle != hole {
		t.Fatalf("expected ray to stop at the opaque texel; hit %s", isect.Triangle)
	}
}

func TestAlphaBlend(t *testing.T) {
	f := newFixture(t)
	red := f.material(1, scene.Material{Color: types.Vec3{1, 0, 0}})
	blue := f.material(2, scene.Material{Color: types.Vec3{0, 0, 1}})
	f.add(scene.Static, facingTriangle(-6, blue), [3]types.Vec2{})

	front := facingTriangle(-3, red)
	front.Alpha = 0.25
	f.add(scene.Dynamic, front, [3]types.Vec2{})

	// Alpha does not affect occlusion so the back triangle is in shadow.
	f.light(types.Vec3{0, 0, 0})
	b := f.buffers()

	got := Shade(b, center).Vec3()
	frontLit := types.Vec3{1, 0, 0}
	if !approxColor(got, frontLit.Mul(0.25), 1e-3) {
		t.Fatalf("expected blend of lit front and shadowed back; got %v", got)
	}
}

func TestReflection(t *testing.T) {
	f := newFixture(t)
	mirror := f.material(1, scene.Material{ReflectionColor: types.Vec3{1, 1, 1}, Reflectivity: 1})
	green := f.material(2, scene.Material{Color: types.Vec3{0, 1, 0}})

	// A mirror facing the camera reflects rays straight back to a green
	// triangle behind the camera.
	f.add(scene.Static, facingTriangle(-5, mirror), [3]types.Vec2{})
	f.add(scene.Static, scene.Triangle{Vertices: [3]types.Vec3{{-1, -1, 2}, {0, 1, 2}, {1, -1, 2}}, Material: green}, [3]types.Vec2{})
	f.light(types.Vec3{0, 0, 0})
	b := f.buffers()

	direct := Radiance(b, scene.Ray{Origin: types.Vec3{0, 0, 0}, Dir: types.Vec3{0, 0, 1}})
	got := Shade(b, center).Vec3()
	if direct[1] <= 0 || !approxColor(got, direct, direct[1]*0.01) {
		t.Fatalf("expected mirror to show %v; got %v", direct, got)
	}
}

func TestSampleDivisor(t *testing.T) {
	atlas := image.NewRGBA(image.Rect(0, 0, 4, 4))
	atlas.SetRGBA(2, 2, color.RGBA{R: 255, A: 255})
	b := &Buffers{Atlas: atlas}

	uv := types.Vec2{3.5 / 4, 3.5 / 4}
	if got := b.sample(uv, scene.UVDivisor{1, 1}); got[0] != 0 {
		t.Fatalf("expected texel (3,3) to be black; got %v", got)
	}
	if got := b.sample(uv, scene.UVDivisor{2, 2}); got != (types.Vec4{1, 0, 0, 1}) {
		t.Fatalf("expected a 2x2 divisor to snap to texel (2,2); got %v", got)
	}
	if got := b.sample(types.Vec2{-1, 2}, scene.UVDivisor{}); got[3] != 0 {
		t.Fatalf("expected out of range uvs to clamp to texel (0,3); got %v", got)
	}
}

func TestFrameInfoEncoding(t *testing.T) {
	info := FrameInfo{HasStaticIndex: true, StaticSlots: 12, DynamicSlots: 3}
	if got := DecodeFrameInfo(info.Encode()); got != info {
		t.Fatalf("expected %+v; got %+v", info, got)
	}
}

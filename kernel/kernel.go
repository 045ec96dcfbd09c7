// Package kernel evaluates the raytracing fragment shader on the CPU using the
// same packed buffers that are uploaded to the GPU. It is used for probing
// single pixels, for hit-scan queries and for verifying buffer contents.
package kernel

import (
	"math"

	"github.com/achilleasa/raygun/bvh"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

// SurfaceEpsilon is the distance a hit point is moved back along the ray
// before casting secondary rays.
const SurfaceEpsilon float32 = 0.01

// Background is the colour of pixels whose primary ray hits nothing.
var Background = types.Vec3{}

var infinity = float32(math.Inf(1))

// Intersection describes the closest hit along a ray.
type Intersection struct {
	Triangle scene.TriangleID
	Hit      scene.Hit
	Point    types.Vec3

	// The decoded triangle record.
	Record scene.Triangle
}

// Trace returns the closest hit along r nearer than tMax. Triangles with UV
// transparency only count where the atlas alpha exceeds 0.5.
func Trace(b *Buffers, r scene.Ray, tMax float32) (Intersection, bool) {
	var best Intersection
	found := false
	bestT := tMax

	test := func(kind scene.Provenance, index int, limit float32) bool {
		tri, ok := b.triangle(kind, index)
		if !ok {
			return false
		}
		hit, ok := scene.Intersect(r, tri.Vertices)
		if !ok || !(hit.T < limit) || !b.opaqueAt(kind, index, tri, hit) {
			return false
		}
		best = Intersection{
			Triangle: scene.TriangleID{Kind: kind, Index: uint32(index)},
			Hit:      hit,
			Point:    r.At(hit.T),
			Record:   tri,
		}
		bestT = hit.T
		found = true
		return true
	}

	info := b.Info()
	for index := 0; index < info.DynamicSlots; index++ {
		test(scene.Dynamic, index, bestT)
	}

	if info.HasStaticIndex {
		bvh.Traverse(b.Index, r.Origin, r.Dir, bestT, func(triangle uint32, limit float32) (float32, bool) {
			if test(scene.Static, int(triangle), limit) {
				return bestT, false
			}
			return limit, false
		})
	}

	return best, found
}

// Occluded returns true if any surface lies along r strictly nearer than dist.
func Occluded(b *Buffers, r scene.Ray, dist float32) bool {
	test := func(kind scene.Provenance, index int) bool {
		tri, ok := b.triangle(kind, index)
		if !ok {
			return false
		}
		hit, ok := scene.Intersect(r, tri.Vertices)
		return ok && hit.T < dist && b.opaqueAt(kind, index, tri, hit)
	}

	info := b.Info()
	for index := 0; index < info.DynamicSlots; index++ {
		if test(scene.Dynamic, index) {
			return true
		}
	}

	occluded := false
	if info.HasStaticIndex {
		bvh.Traverse(b.Index, r.Origin, r.Dir, dist, func(triangle uint32, limit float32) (float32, bool) {
			occluded = test(scene.Static, int(triangle))
			return limit, occluded
		})
	}
	return occluded
}

// PrimaryRay returns the camera ray through a pixel given in frame
// coordinates with (0, 0) at the bottom-left corner.
func PrimaryRay(b *Buffers, pixel types.Vec2) scene.Ray {
	return b.CameraState().Ray(pixel)
}

// Shade evaluates the fragment shader for a pixel. Use pixel centres
// (x + 0.5, y + 0.5) to match the GPU output.
func Shade(b *Buffers, pixel types.Vec2) types.Vec4 {
	return Radiance(b, PrimaryRay(b, pixel)).Vec4(1)
}

// Radiance shades a ray with one level of reflection and transparency.
func Radiance(b *Buffers, r scene.Ray) types.Vec3 {
	isect, ok := Trace(b, r, infinity)
	if !ok {
		return Background
	}

	mat := b.material(isect.Record.Material)
	color := directLight(b, r, isect, mat)

	if mat.Reflectivity > 0 {
		n := facingNormal(isect.Record, r.Dir)
		reflected := scene.Ray{
			Origin: isect.Point.Sub(r.Dir.Mul(SurfaceEpsilon)),
			Dir:    r.Dir.Reflect(n).Normalize(),
		}
		color = color.Add(simpleRadiance(b, reflected).MulVec(mat.ReflectionColor).Mul(mat.Reflectivity))
	}

	if alpha := isect.Record.Alpha; alpha < 1 {
		behind := scene.Ray{
			Origin: r.At(isect.Hit.T + SurfaceEpsilon),
			Dir:    r.Dir,
		}
		color = color.Mul(alpha).Add(simpleRadiance(b, behind).Mul(1 - alpha))
	}

	return color
}

// simpleRadiance is Radiance without reflection and transparency.
func simpleRadiance(b *Buffers, r scene.Ray) types.Vec3 {
	isect, ok := Trace(b, r, infinity)
	if !ok {
		return Background
	}
	return directLight(b, r, isect, b.material(isect.Record.Material))
}

func directLight(b *Buffers, r scene.Ray, isect Intersection, mat scene.Material) types.Vec3 {
	base := mat.Color
	if mat.Textured {
		uv := b.mapping(isect.Triangle.Kind, int(isect.Triangle.Index)).Interpolate(isect.Hit.U, isect.Hit.V)
		base = base.MulVec(b.sample(uv, isect.Record.UVDivisor).Vec3())
	}

	n := facingNormal(isect.Record, r.Dir)
	point := isect.Point.Sub(r.Dir.Mul(SurfaceEpsilon))

	var color types.Vec3
	for index := 0; index < b.lightCount(); index++ {
		l := b.light(index)
		toLight := l.Position.Sub(point)
		dist := toLight.Len()
		dir := toLight.Normalize()

		cos := n.Dot(dir)
		if cos <= 0 {
			continue
		}
		if Occluded(b, scene.Ray{Origin: point, Dir: dir}, dist) {
			continue
		}
		color = color.Add(base.MulVec(l.Color).Mul(l.Intensity * cos))
	}
	return color
}

// The geometric normal flipped to face the incoming ray.
func facingNormal(tri scene.Triangle, dir types.Vec3) types.Vec3 {
	n := tri.Normal()
	if n.Dot(dir) > 0 {
		return n.Mul(-1)
	}
	return n
}

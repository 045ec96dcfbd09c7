package bvh

import (
	"math"

	"github.com/achilleasa/raygun/types"
)

// BBox is an axis-aligned bounding box. The zero value is undefined and
// becomes defined on the first call to Grow.
type BBox struct {
	Min types.Vec3
	Max types.Vec3

	defined bool
}

// Create a bounding box from a pair of corners.
func NewBBox(corners [2]types.Vec3) BBox {
	return BBox{Min: corners[0], Max: corners[1], defined: true}
}

// Grow extends the box to include p.
func (b *BBox) Grow(p types.Vec3) {
	if !b.defined {
		b.Min, b.Max, b.defined = p, p, true
		return
	}
	b.Min = types.MinVec3(b.Min, p)
	b.Max = types.MaxVec3(b.Max, p)
}

// GrowBBox extends the box to include another box given as (min, max).
func (b *BBox) GrowBBox(other [2]types.Vec3) {
	b.Grow(other[0])
	b.Grow(other[1])
}

// Extent returns max - min, or a zero vector for undefined boxes.
func (b BBox) Extent() types.Vec3 {
	if !b.defined {
		return types.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Area returns the surface area; undefined and degenerate boxes have zero area.
func (b BBox) Area() float32 {
	e := b.Extent()
	return 2 * (e[0]*e[1] + e[1]*e[2] + e[2]*e[0])
}

// SlabTest reports whether the ray enters the box before tMax and the box is
// not entirely behind the origin. Axes producing NaN (ray parallel to and
// touching a slab) do not constrain the interval.
func SlabTest(min, max, origin, invDir types.Vec3, tMax float32) bool {
	tNear := float32(math.Inf(-1))
	tFar := float32(math.Inf(1))

	for axis := 0; axis < 3; axis++ {
		t1 := (min[axis] - origin[axis]) * invDir[axis]
		t2 := (max[axis] - origin[axis]) * invDir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
		}
		if t2 < tFar {
			tFar = t2
		}
	}

	return tNear <= tFar && tFar >= 0 && tNear < tMax
}

// InvDir returns the component-wise reciprocal of a ray direction.
func InvDir(dir types.Vec3) types.Vec3 {
	return types.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
}

package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/raygun/types"
)

// The number of 4-vectors used to encode a triangle.
const TriangleVec4s = 3

// The provenance of a triangle id.
type Provenance uint8

const (
	// Static triangles are addressed by the geometry index.
	Static Provenance = iota

	// Dynamic triangles are scanned linearly.
	Dynamic
)

func (p Provenance) String() string {
	if p == Dynamic {
		return "dynamic"
	}
	return "static"
}

// TriangleID identifies a slot in the static or the dynamic triangle table.
type TriangleID struct {
	Kind  Provenance
	Index uint32
}

func (id TriangleID) String() string {
	return fmt.Sprintf("%s#%d", id.Kind, id.Index)
}

// The slot index of a material in the material table.
type MaterialID uint8

// UVDivisor holds the per-axis texel block size used when sampling the atlas.
// A zero component is treated as 1.
type UVDivisor [2]uint8

// Normalized returns a copy with zero components replaced by 1.
func (d UVDivisor) Normalized() UVDivisor {
	for axis := range d {
		if d[axis] == 0 {
			d[axis] = 1
		}
	}
	return d
}

// Triangle is a world-space triangle as stored in the triangle tables.
type Triangle struct {
	Vertices [3]types.Vec3

	Material MaterialID

	// Coverage in [0, 1]; values below 1 blend with whatever lies behind.
	Alpha float32

	UVDivisor UVDivisor

	// When set, texels with alpha <= 0.5 are not considered hits.
	UVTransparency bool
}

// BBox returns the triangle bounds.
func (t Triangle) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(t.Vertices[0], types.MinVec3(t.Vertices[1], t.Vertices[2])),
		types.MaxVec3(t.Vertices[0], types.MaxVec3(t.Vertices[1], t.Vertices[2])),
	}
}

// Center returns the triangle centroid.
func (t Triangle) Center() types.Vec3 {
	return t.Vertices[0].Add(t.Vertices[1]).Add(t.Vertices[2]).Mul(1.0 / 3.0)
}

// Normal returns the unit face normal; degenerate triangles yield a zero vector.
func (t Triangle) Normal() types.Vec3 {
	e1 := t.Vertices[1].Sub(t.Vertices[0])
	e2 := t.Vertices[2].Sub(t.Vertices[0])
	return e1.Cross(e2).Normalize()
}

// IsFinite reports whether every vertex coordinate is finite.
func (t Triangle) IsFinite() bool {
	for _, v := range t.Vertices {
		if !v.IsFinite() {
			return false
		}
	}
	return true
}

// Transform returns a copy of the triangle with its vertices transformed by m.
func (t Triangle) Transform(m types.Mat4) Triangle {
	for index, v := range t.Vertices {
		t.Vertices[index] = m.TransformPoint(v)
	}
	return t
}

// Encode packs the triangle into three 4-vectors:
//
//	d0 = (v0, ±(material + 1))   negative when UV transparency is on
//	d1 = (v1, alpha)
//	d2 = (v2, bits(divU << 24 | divV << 16))
func (t Triangle) Encode() [TriangleVec4s]types.Vec4 {
	matField := float32(t.Material) + 1
	if t.UVTransparency {
		matField = -matField
	}

	div := t.UVDivisor.Normalized()
	divBits := uint32(div[0])<<24 | uint32(div[1])<<16

	return [TriangleVec4s]types.Vec4{
		t.Vertices[0].Vec4(matField),
		t.Vertices[1].Vec4(t.Alpha),
		t.Vertices[2].Vec4(math.Float32frombits(divBits)),
	}
}

// DecodeTriangle unpacks a triangle record. It returns false for empty slots.
func DecodeTriangle(d [TriangleVec4s]types.Vec4) (Triangle, bool) {
	matField := d[0][3]
	if matField == 0 {
		return Triangle{}, false
	}

	t := Triangle{
		Vertices:       [3]types.Vec3{d[0].Vec3(), d[1].Vec3(), d[2].Vec3()},
		Alpha:          d[1][3],
		UVTransparency: matField < 0,
	}

	if matField < 0 {
		matField = -matField
	}
	t.Material = MaterialID(matField - 1)

	divBits := math.Float32bits(d[2][3])
	t.UVDivisor = UVDivisor{uint8(divBits >> 24), uint8(divBits >> 16)}
	return t, true
}

// TriangleMapping holds the atlas-space texture coordinates of a triangle's vertices.
type TriangleMapping struct {
	UV [3]types.Vec2
}

// Interpolate returns the texture coordinate at barycentric (u, v).
func (m TriangleMapping) Interpolate(u, v float32) types.Vec2 {
	w := 1 - u - v
	return m.UV[0].Mul(w).Add(m.UV[1].Mul(u)).Add(m.UV[2].Mul(v))
}

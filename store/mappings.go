package store

import (
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

// Mappings holds per-triangle UV mappings, index-parallel to a triangle table.
type Mappings struct {
	slots []scene.TriangleMapping
	dirty bool
}

// Create a mapping table for capacity triangles.
func NewMappings(capacity int) *Mappings {
	return &Mappings{slots: make([]scene.TriangleMapping, capacity)}
}

func (s *Mappings) Cap() int {
	return len(s.slots)
}

func (s *Mappings) Dirty() bool {
	return s.dirty
}

func (s *Mappings) ClearDirty() {
	s.dirty = false
}

func (s *Mappings) Set(index uint32, m scene.TriangleMapping) {
	s.slots[index] = m
	s.dirty = true
}

func (s *Mappings) Clear(index uint32) {
	s.Set(index, scene.TriangleMapping{})
}

// Pack encodes the table, two mappings per three 4-vectors:
//
//	even i: [3k] = (uv0, uv1), [3k+1].xy = uv2
//	odd i:  [3k+1].zw = uv0,   [3k+2] = (uv1, uv2)
//
// where k = i / 2.
func (s *Mappings) Pack() []types.Vec4 {
	out := make([]types.Vec4, MappingVec4s(len(s.slots)))
	for index, m := range s.slots {
		base := index / 2 * 3
		uv := m.UV
		if index%2 == 0 {
			out[base] = types.Vec4{uv[0][0], uv[0][1], uv[1][0], uv[1][1]}
			out[base+1][0], out[base+1][1] = uv[2][0], uv[2][1]
		} else {
			out[base+1][2], out[base+1][3] = uv[0][0], uv[0][1]
			out[base+2] = types.Vec4{uv[1][0], uv[1][1], uv[2][0], uv[2][1]}
		}
	}
	return out
}

// UnpackMapping reads the mapping of triangle index from a packed table.
func UnpackMapping(packed []types.Vec4, index int) scene.TriangleMapping {
	base := index / 2 * 3
	var m scene.TriangleMapping
	if index%2 == 0 {
		a, b := packed[base], packed[base+1]
		m.UV = [3]types.Vec2{{a[0], a[1]}, {a[2], a[3]}, {b[0], b[1]}}
	} else {
		a, b := packed[base+1], packed[base+2]
		m.UV = [3]types.Vec2{{a[2], a[3]}, {b[0], b[1]}, {b[2], b[3]}}
	}
	return m
}

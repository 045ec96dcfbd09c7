package store

import (
	"fmt"

	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

// Triangles is a fixed-capacity triangle table. Slots are allocated by linear
// scan for the first free entry and stay stable until freed.
type Triangles struct {
	kind      scene.Provenance
	slots     []scene.Triangle
	used      []bool
	count     int
	exhausted error

	// Set by any mutation; cleared after the table is uploaded.
	dirty bool
}

// Create a table for triangles addressed by the geometry index.
func NewStaticTriangles() *Triangles {
	return newTriangles(scene.Static, MaxStaticTriangles, ErrStaticTrianglesExhausted)
}

// Create a table for linearly scanned triangles.
func NewDynamicTriangles() *Triangles {
	return newTriangles(scene.Dynamic, MaxDynamicTriangles, ErrDynamicTrianglesExhausted)
}

func newTriangles(kind scene.Provenance, capacity int, exhausted error) *Triangles {
	return &Triangles{
		kind:      kind,
		slots:     make([]scene.Triangle, capacity),
		used:      make([]bool, capacity),
		exhausted: exhausted,
	}
}

// Len returns the number of occupied slots.
func (s *Triangles) Len() int {
	return s.count
}

// HighWater returns one past the highest occupied slot index.
func (s *Triangles) HighWater() int {
	for index := len(s.used) - 1; index >= 0; index-- {
		if s.used[index] {
			return index + 1
		}
	}
	return 0
}

func (s *Triangles) Cap() int {
	return len(s.slots)
}

func (s *Triangles) Dirty() bool {
	return s.dirty
}

func (s *Triangles) ClearDirty() {
	s.dirty = false
}

// Alloc stores tri in the first free slot. A full table is left untouched.
func (s *Triangles) Alloc(tri scene.Triangle) (scene.TriangleID, error) {
	for index, used := range s.used {
		if used {
			continue
		}

		s.slots[index] = tri
		s.used[index] = true
		s.count++
		s.dirty = true
		return scene.TriangleID{Kind: s.kind, Index: uint32(index)}, nil
	}

	return scene.TriangleID{}, fmt.Errorf("%w (%d slots)", s.exhausted, len(s.slots))
}

// Set overwrites an occupied slot in place.
func (s *Triangles) Set(id scene.TriangleID, tri scene.Triangle) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.slots[id.Index] = tri
	s.dirty = true
	return nil
}

// Get returns the triangle stored at id.
func (s *Triangles) Get(id scene.TriangleID) (scene.Triangle, bool) {
	if s.check(id) != nil {
		return scene.Triangle{}, false
	}
	return s.slots[id.Index], true
}

// Free zeroes a slot and makes it available for allocation.
func (s *Triangles) Free(id scene.TriangleID) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.slots[id.Index] = scene.Triangle{}
	s.used[id.Index] = false
	s.count--
	s.dirty = true
	return nil
}

// Each invokes fn for every occupied slot in slot order.
func (s *Triangles) Each(fn func(id scene.TriangleID, tri scene.Triangle)) {
	for index, used := range s.used {
		if used {
			fn(scene.TriangleID{Kind: s.kind, Index: uint32(index)}, s.slots[index])
		}
	}
}

// Pack encodes the whole table, three 4-vectors per slot; free slots are zero.
func (s *Triangles) Pack() []types.Vec4 {
	out := make([]types.Vec4, len(s.slots)*scene.TriangleVec4s)
	for index, used := range s.used {
		if !used {
			continue
		}
		enc := s.slots[index].Encode()
		copy(out[index*scene.TriangleVec4s:], enc[:])
	}
	return out
}

func (s *Triangles) check(id scene.TriangleID) error {
	if id.Kind != s.kind || int(id.Index) >= len(s.slots) || !s.used[id.Index] {
		return fmt.Errorf("%w: %s", ErrInvalidTriangleID, id)
	}
	return nil
}

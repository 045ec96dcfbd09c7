package store

import (
	"fmt"
	"sort"

	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

type materialSlot struct {
	material scene.Material
	owners   map[scene.EntityID]struct{}

	// The owner that released the slot last; it gets the slot back first.
	lastOwner    scene.EntityID
	hasLastOwner bool
}

func (s *materialSlot) empty() bool {
	return len(s.owners) == 0
}

// Materials is a fixed-capacity material table deduplicated by value. Each
// slot records the set of entities that requested it; an entity owns at most
// one slot at a time.
type Materials struct {
	slots [MaxMaterials]materialSlot
	dirty bool
}

func NewMaterials() *Materials {
	s := &Materials{}
	for index := range s.slots {
		s.slots[index].owners = make(map[scene.EntityID]struct{})
	}
	return s
}

func (s *Materials) Dirty() bool {
	return s.dirty
}

func (s *Materials) ClearDirty() {
	s.dirty = false
}

// Len returns the number of occupied slots.
func (s *Materials) Len() int {
	count := 0
	for index := range s.slots {
		if !s.slots[index].empty() {
			count++
		}
	}
	return count
}

// Alloc assigns material m to owner and returns its slot:
//
//  1. an occupied slot holding an identical material gains owner;
//  2. otherwise a slot held by owner alone is overwritten in place;
//  3. otherwise the first empty slot is used, preferring one owner released.
//
// On failure the table is left untouched.
func (s *Materials) Alloc(owner scene.EntityID, m scene.Material) (scene.MaterialID, error) {
	current, hasCurrent := s.slotOf(owner)

	for index := range s.slots {
		slot := &s.slots[index]
		if slot.empty() || slot.material != m {
			continue
		}
		if hasCurrent && current != index {
			s.release(current, owner)
		}
		slot.owners[owner] = struct{}{}
		return scene.MaterialID(index), nil
	}

	if hasCurrent && len(s.slots[current].owners) == 1 {
		s.slots[current].material = m
		s.dirty = true
		return scene.MaterialID(current), nil
	}

	target := -1
	for index := range s.slots {
		slot := &s.slots[index]
		if !slot.empty() {
			continue
		}
		if slot.hasLastOwner && slot.lastOwner == owner {
			target = index
			break
		}
		if target == -1 {
			target = index
		}
	}
	if target == -1 {
		return 0, fmt.Errorf("%w (%d slots)", ErrMaterialsExhausted, MaxMaterials)
	}

	if hasCurrent {
		s.release(current, owner)
	}
	slot := &s.slots[target]
	slot.material = m
	slot.owners[owner] = struct{}{}
	slot.hasLastOwner = false
	s.dirty = true
	return scene.MaterialID(target), nil
}

// Free drops owner from the slot it holds. A slot without owners becomes empty.
func (s *Materials) Free(owner scene.EntityID) {
	if index, ok := s.slotOf(owner); ok {
		s.release(index, owner)
	}
}

// Get returns the material in an occupied slot.
func (s *Materials) Get(id scene.MaterialID) (scene.Material, bool) {
	if int(id) >= len(s.slots) || s.slots[id].empty() {
		return scene.Material{}, false
	}
	return s.slots[id].material, true
}

// Owners returns the sorted owner set of a slot.
func (s *Materials) Owners(id scene.MaterialID) []scene.EntityID {
	if int(id) >= len(s.slots) {
		return nil
	}
	owners := make([]scene.EntityID, 0, len(s.slots[id].owners))
	for owner := range s.slots[id].owners {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// Pack encodes the table, two 4-vectors per slot; empty slots are zero.
func (s *Materials) Pack() []types.Vec4 {
	out := make([]types.Vec4, MaxMaterials*scene.MaterialVec4s)
	for index := range s.slots {
		if s.slots[index].empty() {
			continue
		}
		enc := s.slots[index].material.Encode()
		copy(out[index*scene.MaterialVec4s:], enc[:])
	}
	return out
}

func (s *Materials) slotOf(owner scene.EntityID) (int, bool) {
	for index := range s.slots {
		if _, ok := s.slots[index].owners[owner]; ok {
			return index, true
		}
	}
	return 0, false
}

func (s *Materials) release(index int, owner scene.EntityID) {
	slot := &s.slots[index]
	delete(slot.owners, owner)
	if slot.empty() {
		slot.material = scene.Material{}
		slot.lastOwner = owner
		slot.hasLastOwner = true
		s.dirty = true
	}
}

package bvh

import (
	"errors"
	"fmt"

	"github.com/achilleasa/raygun/types"
)

const (
	// The serialized index occupies exactly this many 4-vectors.
	IndexVec4s = 4096

	// Each node takes two 4-vectors.
	MaxIndexNodes = IndexVec4s / 2
)

var ErrIndexTooLarge = errors.New("bvh: geometry index exceeds capacity")

// Index is the serialized form of a linear tree, laid out as pairs of
// 4-vectors:
//
//	leaf:     (0, 0, 0, triangle id) / (0, 0, 0, next)
//	internal: (bbox min, hit)        / (bbox max, miss)
//
// Pointers hold node id * 2 so they address the first 4-vector of a node.
type Index [IndexVec4s]types.Vec4

// Serialize packs a linear tree. The triangleID callback maps work list items
// to the triangle ids stored in leaves.
func Serialize(lt *LinearTree, triangleID func(item int) uint32) (*Index, error) {
	if len(lt.Nodes) > MaxIndexNodes {
		return nil, fmt.Errorf("%w: %d nodes; max %d", ErrIndexTooLarge, len(lt.Nodes), MaxIndexNodes)
	}

	idx := &Index{}
	for id, node := range lt.Nodes {
		if node.Leaf {
			idx[2*id] = types.Vec4{0, 0, 0, float32(triangleID(node.Item))}
			idx[2*id+1] = types.Vec4{0, 0, 0, float32(2 * node.Next)}
			continue
		}
		idx[2*id] = node.BBox.Min.Vec4(float32(2 * node.Hit))
		idx[2*id+1] = node.BBox.Max.Vec4(float32(2 * node.Miss))
	}
	return idx, nil
}

// IsLeaf reports whether the node whose first 4-vector lives at cursor is a leaf.
func (idx *Index) IsLeaf(cursor int) bool {
	return idx[cursor].Vec3() == idx[cursor+1].Vec3()
}

// Vec4s returns the index contents as a slice.
func (idx *Index) Vec4s() []types.Vec4 {
	return idx[:]
}

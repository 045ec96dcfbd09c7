package bvh

import "github.com/achilleasa/raygun/types"

// LeafVisitor is invoked for every leaf reached during traversal with the
// stored triangle id and the current best distance. It returns the updated
// best distance and whether traversal should stop.
type LeafVisitor func(triangle uint32, best float32) (newBest float32, stop bool)

// Traverse walks a serialized index the way the shading kernel does: a single
// cursor, two 4-vector reads per step, no stack. Internal nodes whose boxes
// the ray enters before the current best distance are descended into.
func Traverse(index []types.Vec4, origin, dir types.Vec3, tMax float32, visit LeafVisitor) {
	invDir := InvDir(dir)
	best := tMax

	cursor := 0
	for steps := 0; steps <= MaxIndexNodes; steps++ {
		v1, v2 := index[cursor], index[cursor+1]

		if v1.Vec3() == v2.Vec3() {
			var stop bool
			best, stop = visit(uint32(v1[3]), best)
			if stop {
				return
			}
			cursor = int(v2[3])
		} else if SlabTest(v1.Vec3(), v2.Vec3(), origin, invDir, best) {
			cursor = int(v1[3])
		} else {
			cursor = int(v2[3])
		}

		if cursor == 0 {
			return
		}
	}
}

package bvh

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

func TestSingleTriangleLeaf(t *testing.T) {
	tris := randomTriangles(1, 1)
	root := Build(volumes(tris))
	if !root.IsLeaf() || len(root.Items) != 1 {
		t.Fatalf("expected a single leaf with one item; got %+v", root)
	}

	if Build(nil) != nil {
		t.Fatal("expected nil tree for an empty work list")
	}
}

func TestSplitsSeparatedClusters(t *testing.T) {
	centers := []types.Vec3{{-10, 0, -10}, {10, 0, -10}, {-10, 0, 10}, {10, 0, 10}}
	tris := make([]scene.Triangle, 0)
	for _, c := range centers {
		tris = append(tris, scene.Triangle{Vertices: [3]types.Vec3{
			c.Add(types.Vec3{-1, 0, -1}),
			c.Add(types.Vec3{1, 0, -1}),
			c.Add(types.Vec3{0, 1, 1}),
		}})
	}

	root := Build(volumes(tris))
	leafs := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			leafs++
			if len(n.Items) != 1 {
				t.Fatalf("expected each leaf to hold one triangle; got %d", len(n.Items))
			}
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(root)

	if leafs != 4 {
		t.Fatalf("expected 4 leafs; got %d", leafs)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	tris := randomTriangles(200, 7)
	a, _ := Serialize(Linearize(Build(volumes(tris))), identityID)
	b, _ := Serialize(Linearize(Build(volumes(tris))), identityID)
	if *a != *b {
		t.Fatal("expected two builds over the same input to serialize identically")
	}
}

func TestLeafIffEqualBounds(t *testing.T) {
	tris := randomTriangles(300, 1)
	lt := Linearize(Build(volumes(tris)))
	idx, err := Serialize(lt, identityID)
	if err != nil {
		t.Fatal(err)
	}

	for id, node := range lt.Nodes {
		if got := idx.IsLeaf(2 * id); got != node.Leaf {
			t.Fatalf("[node %d] expected leaf = %t; got %t", id, node.Leaf, got)
		}
	}
}

func TestLeafChainTerminates(t *testing.T) {
	tris := randomTriangles(300, 2)
	lt := Linearize(Build(volumes(tris)))
	idx, err := Serialize(lt, identityID)
	if err != nil {
		t.Fatal(err)
	}

	// Following "next" from each leaf, and "miss" from each internal node,
	// must reach the 0 sentinel without revisiting a node.
	for id := range lt.Nodes {
		visited := make(map[int]bool)
		cursor := 2 * id
		for cursor != 0 || len(visited) == 0 {
			if visited[cursor] {
				t.Fatalf("[node %d] cycle detected at cursor %d", id, cursor)
			}
			visited[cursor] = true
			if cursor%2 != 0 {
				t.Fatalf("[node %d] expected even cursor; got %d", id, cursor)
			}
			cursor = int(idx[cursor+1][3])
		}
	}

	// Every triangle appears in exactly one leaf.
	seen := make(map[int]int)
	for _, node := range lt.Nodes {
		if node.Leaf {
			seen[node.Item]++
		}
	}
	for item := range tris {
		if seen[item] != 1 {
			t.Fatalf("expected item %d to appear in exactly one leaf; got %d", item, seen[item])
		}
	}
}

func TestTraverseMatchesBruteForce(t *testing.T) {
	tris := randomTriangles(400, 3)
	idx, err := Serialize(Linearize(Build(volumes(tris))), identityID)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 2000; i++ {
		ray := scene.Ray{
			Origin: types.Vec3{rng.Float32()*30 - 15, rng.Float32()*30 - 15, rng.Float32()*30 - 15},
			Dir:    types.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}.Normalize(),
		}

		expID, expT := bruteForce(tris, ray)
		gotID, gotT := traverseClosest(idx, tris, ray)

		if (expID < 0) != (gotID < 0) {
			t.Fatalf("[ray %d] expected hit triangle %d; got %d", i, expID, gotID)
		}
		if expID >= 0 && math.Abs(float64(expT-gotT)) > 1e-4 {
			t.Fatalf("[ray %d] expected t = %f (triangle %d); got t = %f (triangle %d)", i, expT, expID, gotT, gotID)
		}
	}
}

func TestCentroidRecall(t *testing.T) {
	tris := randomTriangles(400, 4)
	idx, err := Serialize(Linearize(Build(volumes(tris))), identityID)
	if err != nil {
		t.Fatal(err)
	}

	for id, tri := range tris {
		normal := tri.Normal()
		if normal == (types.Vec3{}) {
			continue
		}
		ray := scene.Ray{Origin: tri.Center().Add(normal.Mul(5)), Dir: normal.Mul(-1)}

		found := false
		Traverse(idx.Vec4s(), ray.Origin, ray.Dir, float32(math.Inf(1)), func(triangle uint32, best float32) (float32, bool) {
			if int(triangle) == id {
				if _, ok := scene.Intersect(ray, tris[triangle].Vertices); ok {
					found = true
					return best, true
				}
			}
			return best, false
		})

		if !found {
			t.Fatalf("expected traversal towards the centroid of triangle %d to reach it", id)
		}
	}
}

func TestIndexTooLarge(t *testing.T) {
	lt := &LinearTree{}
	for i := 0; i <= MaxIndexNodes; i++ {
		lt.AddLeaf(i)
	}

	if _, err := Serialize(lt, identityID); !errors.Is(err, ErrIndexTooLarge) {
		t.Fatalf("expected ErrIndexTooLarge; got %v", err)
	}
}

func identityID(item int) uint32 {
	return uint32(item)
}

func volumes(tris []scene.Triangle) []BoundedVolume {
	out := make([]BoundedVolume, len(tris))
	for i, tri := range tris {
		out[i] = tri
	}
	return out
}

func randomTriangles(count int, seed int64) []scene.Triangle {
	rng := rand.New(rand.NewSource(seed))
	tris := make([]scene.Triangle, count)
	for i := range tris {
		c := types.Vec3{rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32()*20 - 10}
		for v := 0; v < 3; v++ {
			tris[i].Vertices[v] = c.Add(types.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1})
		}
	}
	return tris
}

func bruteForce(tris []scene.Triangle, ray scene.Ray) (int, float32) {
	bestID, bestT := -1, float32(math.Inf(1))
	for id, tri := range tris {
		if hit, ok := scene.Intersect(ray, tri.Vertices); ok && hit.T < bestT {
			bestID, bestT = id, hit.T
		}
	}
	return bestID, bestT
}

func traverseClosest(idx *Index, tris []scene.Triangle, ray scene.Ray) (int, float32) {
	bestID, bestT := -1, float32(math.Inf(1))
	Traverse(idx.Vec4s(), ray.Origin, ray.Dir, bestT, func(triangle uint32, best float32) (float32, bool) {
		if hit, ok := scene.Intersect(ray, tris[triangle].Vertices); ok && hit.T < best {
			bestID, bestT = int(triangle), hit.T
			return hit.T, false
		}
		return best, false
	})
	return bestID, bestT
}

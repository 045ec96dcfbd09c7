package bvh

import (
	"math"
	"time"

	"github.com/achilleasa/raygun/log"
	"github.com/achilleasa/raygun/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Split costs are never reported below this value.
const minSplitCost float32 = 1.0

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic = surfaceAreaHeuristic{}
)

// The BoundedVolume interface is implemented by all primitives that can
// be partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() [2]types.Vec3
	Center() types.Vec3
}

// A split scoring strategy.
type ScoreStrategy interface {
	// Calculate a score for splitting workList at splitPoint along a particular Axis.
	ScoreSplit(workList []BoundedVolume, splitAxis Axis, splitPoint float32) (leftCount, rightCount int, score float32)

	// Calculate a score for keeping all items in workList in a single leaf.
	ScorePartition(workList []BoundedVolume) (score float32)
}

// Node is a node of the binary tree produced by Build. Leaves have no
// children and reference their items by index into the original work list.
type Node struct {
	BBox BBox

	Left  *Node
	Right *Node

	Items []int
}

// IsLeaf returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
	found                 bool
}

type stats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type builder struct {
	logger log.Logger

	// The work list items; nodes reference them by index.
	items []BoundedVolume

	// A channel for receiving per-axis score results.
	scoreChan chan splitScore

	// The split scoring strategy to use.
	scoreStrategy ScoreStrategy

	stats stats
}

// Build constructs a BVH over workList using the surface area heuristic.
// It returns nil if workList is empty.
//
// For every node, each item centroid is evaluated as a split position along
// X, then Y, then Z. The node is split at the best candidate if its score is
// strictly lower than the score of keeping the node as a leaf; ties resolve
// to the first candidate in scan order. Items whose centroid lies below the
// split position go to the left child.
func Build(workList []BoundedVolume) *Node {
	return BuildWithStrategy(workList, SurfaceAreaHeuristic)
}

// BuildWithStrategy constructs a BVH using a custom split scoring strategy.
func BuildWithStrategy(workList []BoundedVolume, scoreStrategy ScoreStrategy) *Node {
	if len(workList) == 0 {
		return nil
	}

	b := &builder{
		logger:        log.New("bvh builder"),
		items:         workList,
		scoreChan:     make(chan splitScore, 3),
		scoreStrategy: scoreStrategy,
	}

	indices := make([]int, len(workList))
	for index := range indices {
		indices[index] = index
	}

	start := time.Now()
	root := b.partition(indices, 0)
	b.logger.Debugf(
		"BVH tree build time: %d ms, items: %d, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		len(workList), b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)
	return root
}

func (b *builder) volumes(indices []int) []BoundedVolume {
	out := make([]BoundedVolume, len(indices))
	for i, index := range indices {
		out[i] = b.items[index]
	}
	return out
}

// Partition the items referenced by indices and return the subtree root.
func (b *builder) partition(indices []int, depth int) *Node {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}
	b.stats.nodes++

	node := &Node{}
	workList := b.volumes(indices)
	for _, item := range workList {
		node.BBox.GrowBBox(item.BBox())
	}

	if len(workList) == 1 {
		return b.createLeaf(node, indices)
	}

	// Score each axis in parallel; each goroutine reports the first best
	// candidate along its axis.
	for axis := XAxis; axis <= ZAxis; axis++ {
		go func(axis Axis) {
			best := splitScore{axis: axis}
			for _, item := range workList {
				splitPoint := item.Center()[axis]
				lCount, rCount, score := b.scoreStrategy.ScoreSplit(workList, axis, splitPoint)
				if !best.found || score < best.score {
					best = splitScore{
						axis:       axis,
						splitPoint: splitPoint,
						leftCount:  lCount,
						rightCount: rCount,
						score:      score,
						found:      true,
					}
				}
			}
			b.scoreChan <- best
		}(axis)
	}

	var perAxis [3]splitScore
	for pending := 3; pending > 0; pending-- {
		candidate := <-b.scoreChan
		perAxis[candidate.axis] = candidate
	}

	// Reduce in X, Y, Z order so the first axis wins ties.
	var bestSplit *splitScore
	for axis := range perAxis {
		if bestSplit == nil || perAxis[axis].score < bestSplit.score {
			bestSplit = &perAxis[axis]
		}
	}

	if !(bestSplit.score < b.scoreStrategy.ScorePartition(workList)) {
		return b.createLeaf(node, indices)
	}

	left := make([]int, 0, bestSplit.leftCount)
	right := make([]int, 0, bestSplit.rightCount)
	for i, item := range workList {
		if item.Center()[bestSplit.axis] < bestSplit.splitPoint {
			left = append(left, indices[i])
		} else {
			right = append(right, indices[i])
		}
	}

	node.Left = b.partition(left, depth+1)
	node.Right = b.partition(right, depth+1)
	return node
}

func (b *builder) createLeaf(node *Node, indices []int) *Node {
	node.Items = indices
	b.stats.leafs++
	return node
}

// A score implementation that uses surface area heuristic for calculating split scores.
type surfaceAreaHeuristic struct{}

// Score a BVH split based on the surface area heuristic (lower is better):
//
// max(1, left count * left BBOX area + right count * right BBOX area)
//
// Empty partitions contribute nothing to the score.
func (h surfaceAreaHeuristic) ScoreSplit(workList []BoundedVolume, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	var left, right BBox
	for _, item := range workList {
		if item.Center()[axis] < splitPoint {
			leftCount++
			left.GrowBBox(item.BBox())
		} else {
			rightCount++
			right.GrowBBox(item.BBox())
		}
	}

	score = float32(leftCount)*left.Area() + float32(rightCount)*right.Area()
	if score < minSplitCost {
		score = minSplitCost
	}
	return leftCount, rightCount, score
}

// Calculate score for a partitioned workList using formula:
// count * BBOX area
//
// If the workList is empty, then this method returns the worst possible
// score (MaxFloat32).
func (h surfaceAreaHeuristic) ScorePartition(workList []BoundedVolume) (score float32) {
	if len(workList) == 0 {
		return math.MaxFloat32
	}

	var bbox BBox
	for _, item := range workList {
		bbox.GrowBBox(item.BBox())
	}
	return float32(len(workList)) * bbox.Area()
}

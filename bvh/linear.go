package bvh

// LinearNode is a node of a linearized tree. Pointers are node ids; a
// pointer of 0 terminates traversal, which works because the root (id 0) is
// never a jump target.
type LinearNode struct {
	Leaf bool

	// Internal nodes only.
	BBox BBox
	Hit  int
	Miss int

	// Leaf nodes only. Item indexes the work list passed to Build.
	Item int
	Next int
}

// LinearTree is the stackless form of a BVH. Every leaf holds exactly one
// item and threads into the node that follows it in traversal order.
type LinearTree struct {
	Nodes []LinearNode
}

// Linearize flattens a tree produced by Build. A nil root produces an empty tree.
func Linearize(root *Node) *LinearTree {
	lt := &LinearTree{}
	if root != nil {
		lt.linearize(root, 0)
	}
	return lt
}

// AddLeaf appends a leaf node and returns its id.
func (lt *LinearTree) AddLeaf(item int) int {
	lt.Nodes = append(lt.Nodes, LinearNode{Leaf: true, Item: item})
	return len(lt.Nodes) - 1
}

// AddInternal appends an internal node and returns its id.
func (lt *LinearTree) AddInternal(bbox BBox) int {
	lt.Nodes = append(lt.Nodes, LinearNode{BBox: bbox})
	return len(lt.Nodes) - 1
}

// Emit the subtree rooted at node. The backtrack pointer is where traversal
// continues once the subtree is exhausted or skipped.
func (lt *LinearTree) linearize(node *Node, backtrack int) int {
	if node.IsLeaf() {
		ids := make([]int, len(node.Items))
		for i, item := range node.Items {
			ids[i] = lt.AddLeaf(item)
		}
		for i := 0; i < len(ids)-1; i++ {
			lt.Nodes[ids[i]].Next = ids[i+1]
		}
		lt.Nodes[ids[len(ids)-1]].Next = backtrack
		return ids[0]
	}

	id := lt.AddInternal(node.BBox)
	rightID := lt.linearize(node.Right, backtrack)
	leftID := lt.linearize(node.Left, rightID)
	lt.Nodes[id].Hit = leftID
	lt.Nodes[id].Miss = backtrack
	return id
}

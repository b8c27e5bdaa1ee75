// pkg/quadtree/quadtree.go
package quadtree

import (
	"github.com/opd-ai/betaframework/pkg/entity"
	"github.com/opd-ai/betaframework/pkg/physics"
)

// Index classifies a rectangle against a node
type Index int

const (
	// NoFit means the rectangle does not intersect the node.
	NoFit Index = iota
	// PartialFit means the rectangle is not inside a single quadrant.
	PartialFit
	TopLeft
	TopRight
	BottomLeft
	BottomRight
)

// String returns the name of the index
func (i Index) String() string {
	switch i {
	case NoFit:
		return "nofit"
	case PartialFit:
		return "partial"
	case TopLeft:
		return "topleft"
	case TopRight:
		return "topright"
	case BottomLeft:
		return "bottomleft"
	case BottomRight:
		return "bottomright"
	default:
		return "unknown"
	}
}

// Hit is a ray cast result
type Hit struct {
	Entity *entity.Entity
	T      float64
}

// Node is a quadtree node. A leaf stores entities; an internal node has
// exactly four children and stores nothing itself.
type Node struct {
	bounds   physics.BoundingRectangle
	depth    int
	capacity int
	objects  []*entity.Entity
	rects    []physics.BoundingRectangle
	children [4]*Node
	split    bool
}

// New creates a leaf covering bounds. depth is the remaining split budget;
// a node with depth 0 never splits.
func New(bounds physics.BoundingRectangle, depth, capacity int) *Node {
	if depth < 0 {
		depth = 0
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Node{
		bounds:   bounds,
		depth:    depth,
		capacity: capacity,
	}
}

// Bounds returns the region covered by the node
func (n *Node) Bounds() physics.BoundingRectangle {
	return n.bounds
}

// IsLeaf reports whether the node has not been split
func (n *Node) IsLeaf() bool {
	return !n.split
}

// Children returns the four children of an internal node in TopLeft,
// TopRight, BottomLeft, BottomRight order. Leaves return nil.
func (n *Node) Children() []*Node {
	if !n.split {
		return nil
	}
	return n.children[:]
}

// Objects returns the entities stored at this node
func (n *Node) Objects() []*entity.Entity {
	return n.objects
}

// Depth returns the number of levels below this node.
func (n *Node) Depth() int {
	if !n.split {
		return 0
	}
	deepest := 0
	for _, child := range n.children {
		if d := child.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Count returns the number of stored entity references in the subtree.
// Entities stored in several leaves are counted once per leaf.
func (n *Node) Count() int {
	if !n.split {
		return len(n.objects)
	}
	total := 0
	for _, child := range n.children {
		total += child.Count()
	}
	return total
}

// GetIndex classifies rect against the node's quadrants (y up).
func (n *Node) GetIndex(rect physics.BoundingRectangle) Index {
	if !physics.RectangleRectangleIntersection(n.bounds, rect) {
		return NoFit
	}
	if !n.bounds.ContainsRectangle(rect) {
		return PartialFit
	}

	cx, cy := n.bounds.Center.X, n.bounds.Center.Y
	left := rect.Right() < cx
	right := rect.Left() > cx
	top := rect.Bottom() > cy
	bottom := rect.Top() < cy

	switch {
	case top && left:
		return TopLeft
	case top && right:
		return TopRight
	case bottom && left:
		return BottomLeft
	case bottom && right:
		return BottomRight
	default:
		return PartialFit
	}
}

// Insert adds e by its current bounds. Entities outside the node are
// dropped.
func (n *Node) Insert(e *entity.Entity) {
	n.insert(e, e.Bounds())
}

// InsertRect adds e under rect instead of its bounds, for example the
// region swept by the entity during the last step.
func (n *Node) InsertRect(e *entity.Entity, rect physics.BoundingRectangle) {
	n.insert(e, rect)
}

func (n *Node) insert(e *entity.Entity, rect physics.BoundingRectangle) {
	index := n.GetIndex(rect)
	if index == NoFit {
		return
	}

	if !n.split {
		if len(n.objects) < n.capacity || n.depth == 0 {
			n.objects = append(n.objects, e)
			n.rects = append(n.rects, rect)
			return
		}
		n.Split()
	}

	if index == PartialFit {
		for _, child := range n.children {
			child.insert(e, rect)
		}
		return
	}
	n.child(index).insert(e, rect)
}

// Split turns a leaf into an internal node and redistributes its entities.
// Nodes without split budget are left unchanged.
func (n *Node) Split() {
	if n.split || n.depth == 0 {
		return
	}

	half := n.bounds.Extents.Scale(0.5)
	c := n.bounds.Center
	quadrant := func(dx, dy float64) *Node {
		center := physics.Vector2D{X: c.X + dx*half.X, Y: c.Y + dy*half.Y}
		return New(physics.NewBoundingRectangle(center, half), n.depth-1, n.capacity)
	}
	n.children = [4]*Node{
		quadrant(-1, 1),
		quadrant(1, 1),
		quadrant(-1, -1),
		quadrant(1, -1),
	}
	n.split = true

	objects, rects := n.objects, n.rects
	n.objects, n.rects = nil, nil
	for i, e := range objects {
		n.insert(e, rects[i])
	}
}

func (n *Node) child(index Index) *Node {
	return n.children[index-TopLeft]
}

// RetrieveNearby returns the candidates that may touch e, e included. The
// result may contain duplicates. Nodes that e's bounds do not reach are
// skipped.
func (n *Node) RetrieveNearby(e *entity.Entity) []*entity.Entity {
	return n.retrieve(e.Bounds(), nil)
}

// Retrieve returns the entities stored in the leaves rect reaches, with
// possible duplicates.
func (n *Node) Retrieve(rect physics.BoundingRectangle) []*entity.Entity {
	return n.retrieve(rect, nil)
}

func (n *Node) retrieve(rect physics.BoundingRectangle, out []*entity.Entity) []*entity.Entity {
	index := n.GetIndex(rect)
	if index == NoFit {
		return out
	}
	if !n.split {
		return append(out, n.objects...)
	}

	switch index {
	case PartialFit:
		for _, child := range n.children {
			out = child.retrieve(rect, out)
		}
		return out
	default:
		return n.child(index).retrieve(rect, out)
	}
}

// CastRay tests the ray segment against the colliders of the entities in
// the leaves the ray's bounds reach. Entities named exclude are skipped
// when exclude is not empty. An entity stored in several leaves may be
// reported more than once.
func (n *Node) CastRay(ray physics.LineSegment, exclude string) []Hit {
	return n.castRay(ray, ray.Bounds(), exclude, nil)
}

func (n *Node) castRay(ray physics.LineSegment, rect physics.BoundingRectangle, exclude string, out []Hit) []Hit {
	index := n.GetIndex(rect)
	if index == NoFit {
		return out
	}
	if !n.split {
		for _, e := range n.objects {
			c := e.Collider()
			if c == nil || (exclude != "" && e.Name() == exclude) {
				continue
			}
			if t, ok := c.IsIntersectingWith(ray); ok {
				out = append(out, Hit{Entity: e, T: t})
			}
		}
		return out
	}

	switch index {
	case PartialFit:
		for _, child := range n.children {
			out = child.castRay(ray, rect, exclude, out)
		}
		return out
	default:
		return n.child(index).castRay(ray, rect, exclude, out)
	}
}

// Clear drops all entities and children.
func (n *Node) Clear() {
	n.objects = nil
	n.rects = nil
	n.children = [4]*Node{}
	n.split = false
}

// Walk visits the node and its descendants depth first. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, level int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, level int) bool, level int) {
	if !fn(n, level) || !n.split {
		return
	}
	for _, child := range n.children {
		child.walk(fn, level+1)
	}
}

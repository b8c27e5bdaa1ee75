// Package collider implements the narrow-phase collision shapes attached to
// entities: circles, rectangles, line chains and tilemaps. Every shape pair is
// implemented exactly once in Check, so collision tests are symmetric.
package collider

import (
	"github.com/opd-ai/betaframework/pkg/physics"
)

// Kind identifies the shape of a collider. The declaration order is the
// canonical pair order used by Check.
type Kind int

const (
	Circle Kind = iota
	Rectangle
	Line
	Tilemap
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case Circle:
		return "circle"
	case Rectangle:
		return "rectangle"
	case Line:
		return "line"
	case Tilemap:
		return "tilemap"
	default:
		return "unknown"
	}
}

// Body is the entity a collider is attached to.
type Body interface {
	ID() uint64
	Name() string
	Transform() *physics.Transform
	// RigidBody returns nil for static bodies.
	RigidBody() *physics.RigidBody
}

// TileGrid is the read-only tile resource backing a tilemap collider.
// A cell value of 0 is empty, anything greater is solid.
type TileGrid interface {
	CellValue(col, row int) int
	Bounds() (minCol, maxCol, minRow, maxRow int)
}

// Collider is a shape attached to at most one Body.
type Collider struct {
	kind  Kind
	owner Body

	radius   float64
	extents  physics.Vector2D
	segments []physics.LineSegment
	reflect  bool
	grid     TileGrid

	contacts Contacts
}

// NewCircle creates a circle collider with a radius in world units.
func NewCircle(radius float64) *Collider {
	return &Collider{kind: Circle, radius: radius}
}

// NewRectangle creates an axis-aligned rectangle collider from half-extents
// in world units.
func NewRectangle(extents physics.Vector2D) *Collider {
	return &Collider{kind: Rectangle, extents: extents.Abs()}
}

// NewLine creates a line-chain collider from local-space segments. With
// reflect set, circles that sweep into a segment bounce off it.
func NewLine(reflect bool, segments ...physics.LineSegment) *Collider {
	c := &Collider{kind: Line, reflect: reflect}
	for _, s := range segments {
		c.AddSegment(s.Start, s.End)
	}
	return c
}

// NewTilemap creates a tilemap collider over grid. The owner's transform maps
// tile space (columns right, rows down, cells centered on integers) to world
// space.
func NewTilemap(grid TileGrid) *Collider {
	return &Collider{kind: Tilemap, grid: grid}
}

// Attach binds the collider to its owner. Called by the entity when the
// collider is set.
func (c *Collider) Attach(owner Body) {
	c.owner = owner
	c.contacts.Reset()
}

// Kind returns the shape kind
func (c *Collider) Kind() Kind { return c.kind }

// Owner returns the body the collider is attached to, or nil.
func (c *Collider) Owner() Body { return c.owner }

// Radius returns the circle radius
func (c *Collider) Radius() float64 { return c.radius }

// SetRadius changes the circle radius
func (c *Collider) SetRadius(radius float64) { c.radius = radius }

// Extents returns the rectangle half-extents
func (c *Collider) Extents() physics.Vector2D { return c.extents }

// SetExtents changes the rectangle half-extents
func (c *Collider) SetExtents(extents physics.Vector2D) { c.extents = extents.Abs() }

// Reflects reports whether a line collider bounces circles.
func (c *Collider) Reflects() bool { return c.reflect }

// SetReflection toggles reflection for a line collider.
func (c *Collider) SetReflection(reflect bool) { c.reflect = reflect }

// Grid returns the tile grid of a tilemap collider.
func (c *Collider) Grid() TileGrid { return c.grid }

// Contacts returns the contact bookkeeping for this collider.
func (c *Collider) Contacts() *Contacts { return &c.contacts }

// AddSegment appends a local-space segment to a line collider.
func (c *Collider) AddSegment(start, end physics.Vector2D) {
	c.segments = append(c.segments, physics.NewLineSegment(start, end))
}

// Segments returns the local-space segments of a line collider.
func (c *Collider) Segments() []physics.LineSegment {
	return c.segments
}

// WorldSegments returns the segments transformed by the owner's matrix.
func (c *Collider) WorldSegments() []physics.LineSegment {
	if c.owner == nil {
		return nil
	}
	m := c.owner.Transform().Matrix()
	world := make([]physics.LineSegment, len(c.segments))
	for i, s := range c.segments {
		world[i] = physics.NewLineSegment(
			physics.TransformPoint(m, s.Start),
			physics.TransformPoint(m, s.End),
		)
	}
	return world
}

// Bounds returns the world-space bounding rectangle of the collider.
func (c *Collider) Bounds() physics.BoundingRectangle {
	if c.owner == nil {
		return physics.BoundingRectangle{}
	}
	center := c.owner.Transform().Translation()

	switch c.kind {
	case Circle:
		return c.worldCircle().Bounds()
	case Rectangle:
		return physics.BoundingRectangle{Center: center, Extents: c.extents}
	case Line:
		segments := c.WorldSegments()
		if len(segments) == 0 {
			return physics.BoundingRectangle{Center: center}
		}
		bounds := segments[0].Bounds()
		for _, s := range segments[1:] {
			bounds = bounds.Union(s.Bounds())
		}
		return bounds
	case Tilemap:
		return c.tilemapBounds()
	}
	return physics.BoundingRectangle{Center: center}
}

func (c *Collider) worldCircle() physics.Circle {
	return physics.Circle{Center: c.owner.Transform().Translation(), Radius: c.radius}
}

func (c *Collider) worldRectangle() physics.BoundingRectangle {
	return physics.BoundingRectangle{Center: c.owner.Transform().Translation(), Extents: c.extents}
}

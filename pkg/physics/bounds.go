// pkg/physics/bounds.go
package physics

import "math"

// BoundingRectangle is an axis-aligned rectangle described by its center
// and half-extents. The Y axis points up.
type BoundingRectangle struct {
	Center  Vector2D
	Extents Vector2D
}

// NewBoundingRectangle creates a rectangle from a center and half-extents.
func NewBoundingRectangle(center, extents Vector2D) BoundingRectangle {
	return BoundingRectangle{Center: center, Extents: extents.Abs()}
}

// NewBoundingRectangleFromPoints returns the smallest rectangle containing
// both points.
func NewBoundingRectangleFromPoints(a, b Vector2D) BoundingRectangle {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return BoundingRectangle{
		Center:  Vector2D{X: (minX + maxX) / 2, Y: (minY + maxY) / 2},
		Extents: Vector2D{X: (maxX - minX) / 2, Y: (maxY - minY) / 2},
	}
}

// Left returns the x coordinate of the left edge
func (r BoundingRectangle) Left() float64 { return r.Center.X - r.Extents.X }

// Right returns the x coordinate of the right edge
func (r BoundingRectangle) Right() float64 { return r.Center.X + r.Extents.X }

// Top returns the y coordinate of the top edge
func (r BoundingRectangle) Top() float64 { return r.Center.Y + r.Extents.Y }

// Bottom returns the y coordinate of the bottom edge
func (r BoundingRectangle) Bottom() float64 { return r.Center.Y - r.Extents.Y }

// Min returns the bottom-left corner.
func (r BoundingRectangle) Min() Vector2D { return r.Center.Sub(r.Extents) }

// Max returns the top-right corner.
func (r BoundingRectangle) Max() Vector2D { return r.Center.Add(r.Extents) }

// Width returns the full width of the rectangle.
func (r BoundingRectangle) Width() float64 { return r.Extents.X * 2 }

// Height returns the full height of the rectangle.
func (r BoundingRectangle) Height() float64 { return r.Extents.Y * 2 }

// Contains reports whether the point lies inside the rectangle (edges included).
func (r BoundingRectangle) Contains(point Vector2D) bool {
	return point.X >= r.Left() && point.X <= r.Right() &&
		point.Y >= r.Bottom() && point.Y <= r.Top()
}

// ContainsRectangle reports whether other lies entirely inside r.
func (r BoundingRectangle) ContainsRectangle(other BoundingRectangle) bool {
	return other.Left() >= r.Left() && other.Right() <= r.Right() &&
		other.Bottom() >= r.Bottom() && other.Top() <= r.Top()
}

// Union returns the smallest rectangle containing both r and other.
func (r BoundingRectangle) Union(other BoundingRectangle) BoundingRectangle {
	minX := math.Min(r.Left(), other.Left())
	maxX := math.Max(r.Right(), other.Right())
	minY := math.Min(r.Bottom(), other.Bottom())
	maxY := math.Max(r.Top(), other.Top())
	return NewBoundingRectangleFromPoints(Vector2D{X: minX, Y: minY}, Vector2D{X: maxX, Y: maxY})
}

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Bounds returns the axis-aligned square enclosing the circle.
func (c Circle) Bounds() BoundingRectangle {
	return BoundingRectangle{Center: c.Center, Extents: Vector2D{X: c.Radius, Y: c.Radius}}
}

// Collides checks if two circles are colliding
func (c Circle) Collides(other Circle) bool {
	return CircleCircleIntersection(c, other)
}

// LineSegment is a directed segment with a cached unit normal. The normal
// is the clockwise perpendicular of the direction.
type LineSegment struct {
	Start  Vector2D
	End    Vector2D
	Normal Vector2D
}

// NewLineSegment creates a segment and derives its normal.
func NewLineSegment(start, end Vector2D) LineSegment {
	return LineSegment{
		Start:  start,
		End:    end,
		Normal: end.Sub(start).Perpendicular().Normalize(),
	}
}

// Direction returns End - Start.
func (s LineSegment) Direction() Vector2D {
	return s.End.Sub(s.Start)
}

// Length returns the length of the segment
func (s LineSegment) Length() float64 {
	return s.Direction().Length()
}

// PointAt returns the point at parameter t along the segment.
func (s LineSegment) PointAt(t float64) Vector2D {
	return s.Start.Add(s.Direction().Scale(t))
}

// Bounds returns the rectangle enclosing the segment.
func (s LineSegment) Bounds() BoundingRectangle {
	return NewBoundingRectangleFromPoints(s.Start, s.End)
}

// ClosestPoint returns the point on the segment nearest to p.
func (s LineSegment) ClosestPoint(p Vector2D) Vector2D {
	dir := s.Direction()
	lengthSq := dir.LengthSquared()
	if lengthSq < Epsilon {
		return s.Start
	}
	t := p.Sub(s.Start).Dot(dir) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return s.Start.Add(dir.Scale(t))
}

// pkg/physics/intersection.go
package physics

import "math"

// RectangleRectangleIntersection reports whether two rectangles overlap.
// Touching edges count as intersecting.
func RectangleRectangleIntersection(a, b BoundingRectangle) bool {
	return a.Left() <= b.Right() && b.Left() <= a.Right() &&
		a.Bottom() <= b.Top() && b.Bottom() <= a.Top()
}

// RectangleCircleIntersection reports whether a rectangle and a circle overlap.
func RectangleCircleIntersection(r BoundingRectangle, c Circle) bool {
	closest := Vector2D{
		X: math.Max(r.Left(), math.Min(c.Center.X, r.Right())),
		Y: math.Max(r.Bottom(), math.Min(c.Center.Y, r.Top())),
	}
	return closest.DistanceSquared(c.Center) <= c.Radius*c.Radius
}

// CircleCircleIntersection reports whether two circles overlap.
func CircleCircleIntersection(a, b Circle) bool {
	radii := a.Radius + b.Radius
	return a.Center.DistanceSquared(b.Center) <= radii*radii
}

// CircleLineIntersection reports whether a circle touches a segment.
func CircleLineIntersection(c Circle, s LineSegment) bool {
	return s.ClosestPoint(c.Center).DistanceSquared(c.Center) <= c.Radius*c.Radius
}

// RectangleLineIntersection reports whether a segment touches a rectangle.
func RectangleLineIntersection(r BoundingRectangle, s LineSegment) bool {
	_, ok := RayRectangleIntersection(s, r)
	return ok
}

// LineLineIntersection intersects a ray segment with another segment. It
// returns the parameter t along the ray and the intersection point. Parallel
// segments never intersect.
func LineLineIntersection(ray, segment LineSegment) (float64, Vector2D, bool) {
	r := ray.Direction()
	s := segment.Direction()

	denom := r.Cross(s)
	if math.Abs(denom) < Epsilon {
		return 0, Vector2D{}, false
	}

	qp := segment.Start.Sub(ray.Start)
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, Vector2D{}, false
	}

	return t, ray.PointAt(t), true
}

// MovingCircleLineIntersection sweeps a circle of the given radius along
// sweep and returns the first t in [0,1] at which it touches the static
// segment, along with the circle center at that moment.
func MovingCircleLineIntersection(static, sweep LineSegment, radius float64) (float64, Vector2D, bool) {
	dir := sweep.Direction()
	normal := static.Normal

	// No movement or movement parallel to the line
	approach := normal.Dot(dir)
	if math.Abs(approach) < Epsilon {
		return 0, Vector2D{}, false
	}

	side := normal.Dot(sweep.Start.Sub(static.Start))
	if side*approach > 0 {
		// Moving away from the line
		return 0, Vector2D{}, false
	}

	offset := normal.Scale(radius)
	if side < 0 {
		offset = offset.Scale(-1)
	}
	shifted := LineSegment{
		Start:  static.Start.Add(offset),
		End:    static.End.Add(offset),
		Normal: normal,
	}

	return LineLineIntersection(sweep, shifted)
}

// MovingCircleLineReflection reflects a sweep that hit a static segment at
// intersection. It returns the new circle center and velocity; the speed is
// preserved.
func MovingCircleLineReflection(static, sweep LineSegment, intersection, velocity Vector2D) (Vector2D, Vector2D) {
	incident := sweep.End.Sub(intersection)
	reflected := incident.Reflect(static.Normal)
	position := intersection.Add(reflected)

	if reflected.LengthSquared() < Epsilon {
		return position, velocity.Reflect(static.Normal)
	}
	return position, reflected.Normalize().Scale(velocity.Length())
}

// RayCircleIntersection returns the first t in [0,1] at which the ray
// enters the circle. A ray starting inside the circle hits at t = 0.
func RayCircleIntersection(ray LineSegment, c Circle) (float64, bool) {
	d := ray.Direction()
	f := ray.Start.Sub(c.Center)

	cc := f.LengthSquared() - c.Radius*c.Radius
	if cc <= 0 {
		return 0, true
	}

	a := d.LengthSquared()
	if a < Epsilon {
		return 0, false
	}
	b := 2 * f.Dot(d)

	discriminant := b*b - 4*a*cc
	if discriminant < 0 {
		return 0, false
	}

	t := (-b - math.Sqrt(discriminant)) / (2 * a)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// RayRectangleIntersection returns the first t in [0,1] at which the ray
// enters the rectangle. A ray starting inside the rectangle hits at t = 0.
func RayRectangleIntersection(ray LineSegment, r BoundingRectangle) (float64, bool) {
	d := ray.Direction()
	tMin, tMax := 0.0, 1.0

	axes := [2]struct{ start, dir, min, max float64 }{
		{ray.Start.X, d.X, r.Left(), r.Right()},
		{ray.Start.Y, d.Y, r.Bottom(), r.Top()},
	}

	for _, axis := range axes {
		if math.Abs(axis.dir) < Epsilon {
			if axis.start < axis.min || axis.start > axis.max {
				return 0, false
			}
			continue
		}

		t1 := (axis.min - axis.start) / axis.dir
		t2 := (axis.max - axis.start) / axis.dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

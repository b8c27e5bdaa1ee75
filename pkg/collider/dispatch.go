// pkg/collider/dispatch.go
package collider

import (
	"math"

	"github.com/opd-ai/betaframework/pkg/physics"
)

// MapCollision records which sides of an object's rectangle hit solid tiles.
type MapCollision struct {
	Bottom bool
	Top    bool
	Left   bool
	Right  bool
}

// Any reports whether any side collided.
func (m MapCollision) Any() bool {
	return m.Bottom || m.Top || m.Left || m.Right
}

// Contact is the result of a narrow-phase test.
type Contact struct {
	Colliding bool
	// Map is set when one of the colliders is a tilemap.
	Map *MapCollision
}

type pair struct {
	first, second Kind
}

// Check runs the narrow-phase test between a and b. The pair is reordered so
// that first.Kind() <= second.Kind(); each ordered pair has exactly one case.
// Tilemap and reflecting line colliders resolve the collision immediately.
func Check(a, b *Collider) Contact {
	if a == nil || b == nil || a == b || a.owner == nil || b.owner == nil {
		return Contact{}
	}

	first, second := a, b
	if second.kind < first.kind {
		first, second = second, first
	}

	switch (pair{first.kind, second.kind}) {
	case pair{Circle, Circle}:
		return overlap(physics.CircleCircleIntersection(first.worldCircle(), second.worldCircle()))
	case pair{Circle, Rectangle}:
		return overlap(physics.RectangleCircleIntersection(second.worldRectangle(), first.worldCircle()))
	case pair{Circle, Line}:
		return overlap(lineCircle(second, first))
	case pair{Circle, Tilemap}:
		return tilemapCheck(second, first)
	case pair{Rectangle, Rectangle}:
		return overlap(physics.RectangleRectangleIntersection(first.worldRectangle(), second.worldRectangle()))
	case pair{Rectangle, Line}:
		return overlap(lineRectangle(second, first))
	case pair{Rectangle, Tilemap}:
		return tilemapCheck(second, first)
	case pair{Line, Line}:
		return overlap(lineLine(first, second))
	case pair{Line, Tilemap}:
		return tilemapCheck(second, first)
	case pair{Tilemap, Tilemap}:
		return Contact{}
	}
	return Contact{}
}

// IsCollidingWith reports whether c and other collide.
func (c *Collider) IsCollidingWith(other *Collider) bool {
	return Check(c, other).Colliding
}

func overlap(colliding bool) Contact {
	return Contact{Colliding: colliding}
}

// lineCircle sweeps the circle from its previous position to its current one
// against every segment. The earliest hit wins and, for reflecting lines,
// bounces the circle.
func lineCircle(line, circle *Collider) bool {
	shape := circle.worldCircle()
	body := circle.owner.RigidBody()

	start := shape.Center
	if body != nil {
		start = body.OldTranslation
	}
	sweep := physics.NewLineSegment(start, shape.Center)
	segments := line.WorldSegments()

	bestT := math.Inf(1)
	var bestSegment physics.LineSegment
	var bestPoint physics.Vector2D
	for _, segment := range segments {
		t, point, ok := physics.MovingCircleLineIntersection(segment, sweep, shape.Radius)
		if ok && t < bestT {
			bestT, bestSegment, bestPoint = t, segment, point
		}
	}

	if !math.IsInf(bestT, 1) {
		if line.reflect && body != nil {
			position, velocity := physics.MovingCircleLineReflection(bestSegment, sweep, bestPoint, body.Velocity)
			circle.owner.Transform().SetTranslation(position)
			body.Velocity = velocity
			body.OldTranslation = bestPoint
		}
		return true
	}

	for _, segment := range segments {
		if physics.CircleLineIntersection(shape, segment) {
			return true
		}
	}
	return false
}

func lineRectangle(line, rectangle *Collider) bool {
	bounds := rectangle.worldRectangle()
	for _, segment := range line.WorldSegments() {
		if physics.RectangleLineIntersection(bounds, segment) {
			return true
		}
	}
	return false
}

func lineLine(a, b *Collider) bool {
	other := b.WorldSegments()
	for _, sa := range a.WorldSegments() {
		for _, sb := range other {
			if _, _, ok := physics.LineLineIntersection(sa, sb); ok {
				return true
			}
		}
	}
	return false
}

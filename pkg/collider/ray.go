// pkg/collider/ray.go
package collider

import (
	"math"

	"github.com/opd-ai/betaframework/pkg/physics"
)

// IsIntersectingWith tests a ray segment against the collider and returns
// the first hit parameter t in [0,1].
func (c *Collider) IsIntersectingWith(ray physics.LineSegment) (float64, bool) {
	if c.owner == nil {
		return 0, false
	}

	switch c.kind {
	case Circle:
		return physics.RayCircleIntersection(ray, c.worldCircle())
	case Rectangle:
		return physics.RayRectangleIntersection(ray, c.worldRectangle())
	case Line:
		best := math.Inf(1)
		for _, segment := range c.WorldSegments() {
			if t, _, ok := physics.LineLineIntersection(ray, segment); ok && t < best {
				best = t
			}
		}
		if math.IsInf(best, 1) {
			return 0, false
		}
		return best, true
	case Tilemap:
		return c.tilemapRay(ray)
	}
	return 0, false
}

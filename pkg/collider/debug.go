// pkg/collider/debug.go
package collider

import (
	"github.com/opd-ai/betaframework/pkg/physics"
)

// normalLength is the world length of the normal ticks drawn for lines.
const normalLength = 0.25

// DebugDrawer receives world-space primitives for collider visualisation.
type DebugDrawer interface {
	DrawCircle(center physics.Vector2D, radius float64)
	DrawRectangle(rect physics.BoundingRectangle)
	DrawLine(start, end physics.Vector2D)
}

// DebugDraw draws the collider outline. Line colliders also draw a normal
// tick at each segment midpoint; tilemaps draw every solid cell.
func (c *Collider) DebugDraw(d DebugDrawer) {
	if c.owner == nil || d == nil {
		return
	}

	switch c.kind {
	case Circle:
		shape := c.worldCircle()
		d.DrawCircle(shape.Center, shape.Radius)
	case Rectangle:
		d.DrawRectangle(c.worldRectangle())
	case Line:
		for _, s := range c.WorldSegments() {
			d.DrawLine(s.Start, s.End)
			mid := s.PointAt(0.5)
			d.DrawLine(mid, mid.Add(s.Normal.Scale(normalLength*s.Length())))
		}
	case Tilemap:
		if c.grid == nil {
			return
		}
		minCol, maxCol, minRow, maxRow := c.grid.Bounds()
		for row := minRow; row <= maxRow; row++ {
			for col := minCol; col <= maxCol; col++ {
				if c.grid.CellValue(col, row) > 0 {
					d.DrawRectangle(c.CellBounds(col, row))
				}
			}
		}
	}
}

// pkg/collider/tilemap.go
package collider

import (
	"math"

	"github.com/opd-ai/betaframework/pkg/physics"
)

// Side names one side of an axis-aligned rectangle.
type Side int

const (
	SideBottom Side = iota
	SideTop
	SideLeft
	SideRight
)

// hotspotInset places the two probes of a side at this fraction of the
// half-extent from the rectangle center, along the side.
const hotspotInset = 2.0 / 3.0

// tilemapCheck probes each side of other's bounding rectangle against the
// grid and immediately pushes other out of any solid tile it penetrates.
// Lines are probed by the bounds of their world segments.
func tilemapCheck(tilemap, other *Collider) Contact {
	rect := other.Bounds()
	collision := tilemap.Probe(rect)
	if !collision.Any() {
		return Contact{}
	}

	tilemap.resolve(rect, other.owner, collision)
	return Contact{Colliding: true, Map: &collision}
}

// Probe reports which sides of rect overlap solid tiles. It does not move
// anything.
func (c *Collider) Probe(rect physics.BoundingRectangle) MapCollision {
	if c.kind != Tilemap || c.grid == nil || c.owner == nil {
		return MapCollision{}
	}
	return MapCollision{
		Bottom: c.IsSideColliding(rect, SideBottom),
		Top:    c.IsSideColliding(rect, SideTop),
		Left:   c.IsSideColliding(rect, SideLeft),
		Right:  c.IsSideColliding(rect, SideRight),
	}
}

// Hotspots returns the two probe points for a side of rect.
func Hotspots(rect physics.BoundingRectangle, side Side) (physics.Vector2D, physics.Vector2D) {
	dx := rect.Extents.X * hotspotInset
	dy := rect.Extents.Y * hotspotInset

	switch side {
	case SideBottom:
		return physics.Vector2D{X: rect.Center.X + dx, Y: rect.Bottom()},
			physics.Vector2D{X: rect.Center.X - dx, Y: rect.Bottom()}
	case SideTop:
		return physics.Vector2D{X: rect.Center.X + dx, Y: rect.Top()},
			physics.Vector2D{X: rect.Center.X - dx, Y: rect.Top()}
	case SideLeft:
		return physics.Vector2D{X: rect.Left(), Y: rect.Center.Y + dy},
			physics.Vector2D{X: rect.Left(), Y: rect.Center.Y - dy}
	default:
		return physics.Vector2D{X: rect.Right(), Y: rect.Center.Y + dy},
			physics.Vector2D{X: rect.Right(), Y: rect.Center.Y - dy}
	}
}

// IsSideColliding reports whether either hotspot of the side lies in a
// solid cell.
func (c *Collider) IsSideColliding(rect physics.BoundingRectangle, side Side) bool {
	a, b := Hotspots(rect, side)
	return c.IsCollidingAtPosition(a) || c.IsCollidingAtPosition(b)
}

// IsCollidingAtPosition reports whether the world point lies in a solid cell.
func (c *Collider) IsCollidingAtPosition(point physics.Vector2D) bool {
	col, row := c.WorldToCell(point)
	return c.grid.CellValue(col, row) > 0
}

// WorldToCell returns the column and row containing a world point.
func (c *Collider) WorldToCell(point physics.Vector2D) (int, int) {
	tile := c.worldToTile(point)
	return int(math.Floor(tile.X)), int(math.Floor(tile.Y))
}

// CellBounds returns the world rectangle covered by a cell.
func (c *Collider) CellBounds(col, row int) physics.BoundingRectangle {
	a := c.tileToWorld(physics.Vector2D{X: float64(col), Y: float64(row)})
	b := c.tileToWorld(physics.Vector2D{X: float64(col + 1), Y: float64(row + 1)})
	return physics.NewBoundingRectangleFromPoints(a, b)
}

// worldToTile maps world space to continuous tile space, where cell (c, r)
// spans [c, c+1) x [r, r+1).
func (c *Collider) worldToTile(point physics.Vector2D) physics.Vector2D {
	local := c.owner.Transform().WorldToLocal(point)
	return physics.Vector2D{X: local.X + 0.5, Y: -local.Y + 0.5}
}

func (c *Collider) tileToWorld(tile physics.Vector2D) physics.Vector2D {
	local := physics.Vector2D{X: tile.X - 0.5, Y: -(tile.Y - 0.5)}
	return c.owner.Transform().LocalToWorld(local)
}

// NextTileBoundary returns the world coordinate of the tile boundary that
// pushes the given side out of the tile it penetrates. position is any point
// on that side.
func (c *Collider) NextTileBoundary(side Side, position physics.Vector2D) float64 {
	tile := c.worldToTile(position)

	switch side {
	case SideBottom:
		tile.Y = math.Floor(tile.Y)
	case SideTop:
		tile.Y = math.Ceil(tile.Y)
	case SideLeft:
		tile.X = math.Ceil(tile.X)
	case SideRight:
		tile.X = math.Floor(tile.X)
	}

	world := c.tileToWorld(tile)
	if side == SideBottom || side == SideTop {
		return world.Y
	}
	return world.X
}

// resolve nudges body out along each penetrated axis and zeroes its
// velocity on that axis.
func (c *Collider) resolve(rect physics.BoundingRectangle, body Body, collision MapCollision) {
	transform := body.Transform()
	rigidBody := body.RigidBody()

	if collision.Bottom || collision.Top {
		var nudge float64
		if collision.Bottom {
			edge := physics.Vector2D{X: rect.Center.X, Y: rect.Bottom()}
			nudge = c.NextTileBoundary(SideBottom, edge) - rect.Bottom()
		} else {
			edge := physics.Vector2D{X: rect.Center.X, Y: rect.Top()}
			nudge = c.NextTileBoundary(SideTop, edge) - rect.Top()
		}
		transform.Translate(physics.Vector2D{Y: nudge})
		if rigidBody != nil {
			rigidBody.Velocity.Y = 0
		}
	}

	if collision.Left || collision.Right {
		var nudge float64
		if collision.Left {
			edge := physics.Vector2D{X: rect.Left(), Y: rect.Center.Y}
			nudge = c.NextTileBoundary(SideLeft, edge) - rect.Left()
		} else {
			edge := physics.Vector2D{X: rect.Right(), Y: rect.Center.Y}
			nudge = c.NextTileBoundary(SideRight, edge) - rect.Right()
		}
		transform.Translate(physics.Vector2D{X: nudge})
		if rigidBody != nil {
			rigidBody.Velocity.X = 0
		}
	}
}

func (c *Collider) tilemapBounds() physics.BoundingRectangle {
	if c.grid == nil {
		return physics.BoundingRectangle{Center: c.owner.Transform().Translation()}
	}
	minCol, maxCol, minRow, maxRow := c.grid.Bounds()
	a := c.tileToWorld(physics.Vector2D{X: float64(minCol), Y: float64(minRow)})
	b := c.tileToWorld(physics.Vector2D{X: float64(maxCol + 1), Y: float64(maxRow + 1)})
	return physics.NewBoundingRectangleFromPoints(a, b)
}

// tilemapRay walks the cells crossed by the ray in tile space. The affine
// map preserves the ray parameter, so t is valid in world space.
func (c *Collider) tilemapRay(ray physics.LineSegment) (float64, bool) {
	if c.grid == nil {
		return 0, false
	}
	a := c.worldToTile(ray.Start)
	b := c.worldToTile(ray.End)
	d := b.Sub(a)

	col, row := int(math.Floor(a.X)), int(math.Floor(a.Y))
	if c.grid.CellValue(col, row) > 0 {
		return 0, true
	}

	stepCol, tMaxX, tDeltaX := traversalAxis(a.X, d.X, col)
	stepRow, tMaxY, tDeltaY := traversalAxis(a.Y, d.Y, row)

	steps := absInt(int(math.Floor(b.X))-col) + absInt(int(math.Floor(b.Y))-row)
	for i := 0; i < steps; i++ {
		var t float64
		if tMaxX < tMaxY {
			col += stepCol
			t = tMaxX
			tMaxX += tDeltaX
		} else {
			row += stepRow
			t = tMaxY
			tMaxY += tDeltaY
		}
		if t > 1 {
			break
		}
		if c.grid.CellValue(col, row) > 0 {
			return t, true
		}
	}
	return 0, false
}

func traversalAxis(start, delta float64, cell int) (int, float64, float64) {
	switch {
	case delta > 0:
		return 1, (float64(cell+1) - start) / delta, 1 / delta
	case delta < 0:
		return -1, (float64(cell) - start) / delta, -1 / delta
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

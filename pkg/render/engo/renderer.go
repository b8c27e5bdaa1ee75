// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/physics"
)

var _ collider.DebugDrawer = (*ShapeDrawer)(nil)

// RenderTarget receives the pooled shape entities. *common.RenderSystem
// satisfies it.
type RenderTarget interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

type shapeKind int

const (
	shapeCircle shapeKind = iota
	shapeRectangle
	shapeLine
)

type shapeEntity struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
	kind shapeKind
}

// ShapeDrawer draws debug primitives as engo shape entities. Entities are
// pooled and reused between frames; slots not drawn in a frame are hidden.
type ShapeDrawer struct {
	target RenderTarget
	camera *CameraSystem

	shapes []*shapeEntity
	used   int

	LineColor   color.Color
	LineWidth   float32
	ShapeZIndex float32
}

// NewShapeDrawer creates a drawer adding entities to target and projecting
// through camera.
func NewShapeDrawer(target RenderTarget, camera *CameraSystem) *ShapeDrawer {
	return &ShapeDrawer{
		target:      target,
		camera:      camera,
		LineColor:   color.RGBA{0, 255, 0, 255},
		LineWidth:   1,
		ShapeZIndex: 10,
	}
}

// Begin starts a frame
func (d *ShapeDrawer) Begin() {
	d.used = 0
}

// End hides the slots not used since Begin
func (d *ShapeDrawer) End() {
	for _, s := range d.shapes[d.used:] {
		s.Hidden = true
	}
}

// Visible returns the number of shapes drawn since Begin
func (d *ShapeDrawer) Visible() int {
	return d.used
}

// Pooled returns the number of entities owned by the drawer
func (d *ShapeDrawer) Pooled() int {
	return len(d.shapes)
}

// Release removes every pooled entity from the render target
func (d *ShapeDrawer) Release() {
	for _, s := range d.shapes {
		d.target.Remove(s.BasicEntity)
	}
	d.shapes = nil
	d.used = 0
}

func (d *ShapeDrawer) next(kind shapeKind) *shapeEntity {
	if d.used < len(d.shapes) {
		s := d.shapes[d.used]
		d.used++
		s.kind = kind
		s.Drawable = d.drawable(kind)
		s.Hidden = false
		return s
	}

	s := &shapeEntity{BasicEntity: ecs.NewBasic(), kind: kind}
	s.Drawable = d.drawable(kind)
	s.Color = color.Transparent
	s.SetZIndex(d.ShapeZIndex)
	d.shapes = append(d.shapes, s)
	d.used++
	d.target.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	return s
}

func (d *ShapeDrawer) drawable(kind shapeKind) common.Drawable {
	switch kind {
	case shapeCircle:
		return common.Circle{BorderWidth: d.LineWidth, BorderColor: d.LineColor}
	case shapeRectangle:
		return common.Rectangle{BorderWidth: d.LineWidth, BorderColor: d.LineColor}
	default:
		return common.Rectangle{}
	}
}

// DrawCircle implements collider.DebugDrawer.
func (d *ShapeDrawer) DrawCircle(center physics.Vector2D, radius float64) {
	s := d.next(shapeCircle)
	r := d.camera.ScreenLength(radius)
	c := d.camera.WorldToScreen(center)
	s.Color = color.Transparent
	s.SpaceComponent = common.SpaceComponent{
		Position: engo.Point{X: c.X - r, Y: c.Y - r},
		Width:    2 * r,
		Height:   2 * r,
	}
}

// DrawRectangle implements collider.DebugDrawer.
func (d *ShapeDrawer) DrawRectangle(rect physics.BoundingRectangle) {
	s := d.next(shapeRectangle)
	topLeft := d.camera.WorldToScreen(physics.Vector2D{X: rect.Left(), Y: rect.Top()})
	s.Color = color.Transparent
	s.SpaceComponent = common.SpaceComponent{
		Position: topLeft,
		Width:    d.camera.ScreenLength(rect.Width()),
		Height:   d.camera.ScreenLength(rect.Height()),
	}
}

// DrawLine implements collider.DebugDrawer. A line is a filled rectangle
// rotated about its start point.
func (d *ShapeDrawer) DrawLine(start, end physics.Vector2D) {
	s := d.next(shapeLine)
	s.Color = d.LineColor
	s.SpaceComponent = lineSpace(d.camera.WorldToScreen(start), d.camera.WorldToScreen(end), d.LineWidth)
}

// lineSpace returns the space of a rectangle of the given thickness from a
// to b in screen coordinates. Rotation is in degrees, clockwise on screen.
func lineSpace(a, b engo.Point, thickness float32) common.SpaceComponent {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	return common.SpaceComponent{
		Position: a,
		Width:    float32(math.Hypot(dx, dy)),
		Height:   thickness,
		Rotation: float32(math.Atan2(dy, dx) * 180 / math.Pi),
	}
}

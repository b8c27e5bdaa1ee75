// Package ebiten shows a running world in an ebiten window using vector
// strokes for the debug shapes.
package ebiten

import (
	"context"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/physics"
	"github.com/opd-ai/betaframework/pkg/render"
)

// Canvas receives stroked primitives in screen pixels.
type Canvas interface {
	StrokeLine(x0, y0, x1, y1, width float32, clr color.Color)
	StrokeCircle(cx, cy, r, width float32, clr color.Color)
	StrokeRect(x, y, w, h, width float32, clr color.Color)
}

type imageCanvas struct {
	dst *ebiten.Image
}

func (c imageCanvas) StrokeLine(x0, y0, x1, y1, width float32, clr color.Color) {
	vector.StrokeLine(c.dst, x0, y0, x1, y1, width, clr, true)
}

func (c imageCanvas) StrokeCircle(cx, cy, r, width float32, clr color.Color) {
	vector.StrokeCircle(c.dst, cx, cy, r, width, clr, true)
}

func (c imageCanvas) StrokeRect(x, y, w, h, width float32, clr color.Color) {
	vector.StrokeRect(c.dst, x, y, w, h, width, clr, true)
}

// Projection maps world coordinates to window pixels. Zoom is pixels per
// world unit; world y grows upwards.
type Projection struct {
	Center physics.Vector2D
	Zoom   float64
	Width  int
	Height int
}

// WorldToScreen converts a world position to pixels
func (p Projection) WorldToScreen(v physics.Vector2D) (float32, float32) {
	rel := v.Sub(p.Center).Scale(p.Zoom)
	return float32(rel.X + float64(p.Width)/2), float32(float64(p.Height)/2 - rel.Y)
}

var _ collider.DebugDrawer = (*VectorDrawer)(nil)

// VectorDrawer is a collider.DebugDrawer stroking onto a Canvas.
type VectorDrawer struct {
	canvas Canvas
	proj   Projection

	Color       color.Color
	StrokeWidth float32
}

// NewVectorDrawer creates a drawer for canvas seen through proj
func NewVectorDrawer(canvas Canvas, proj Projection) *VectorDrawer {
	return &VectorDrawer{
		canvas:      canvas,
		proj:        proj,
		Color:       color.RGBA{0, 255, 0, 255},
		StrokeWidth: 1,
	}
}

// DrawCircle implements collider.DebugDrawer.
func (d *VectorDrawer) DrawCircle(center physics.Vector2D, radius float64) {
	x, y := d.proj.WorldToScreen(center)
	d.canvas.StrokeCircle(x, y, float32(radius*d.proj.Zoom), d.StrokeWidth, d.Color)
}

// DrawRectangle implements collider.DebugDrawer.
func (d *VectorDrawer) DrawRectangle(rect physics.BoundingRectangle) {
	x, y := d.proj.WorldToScreen(physics.Vector2D{X: rect.Left(), Y: rect.Top()})
	w := float32(rect.Width() * d.proj.Zoom)
	h := float32(rect.Height() * d.proj.Zoom)
	d.canvas.StrokeRect(x, y, w, h, d.StrokeWidth, d.Color)
}

// DrawLine implements collider.DebugDrawer.
func (d *VectorDrawer) DrawLine(start, end physics.Vector2D) {
	x0, y0 := d.proj.WorldToScreen(start)
	x1, y1 := d.proj.WorldToScreen(end)
	d.canvas.StrokeLine(x0, y0, x1, y1, d.StrokeWidth, d.Color)
}

var keyActions = []struct {
	key    ebiten.Key
	action render.Action
}{
	{ebiten.KeySpace, render.ActionPause},
	{ebiten.KeyP, render.ActionPause},
	{ebiten.KeyN, render.ActionStep},
	{ebiten.KeyC, render.ActionToggleColliders},
	{ebiten.KeyQ, render.ActionToggleQuadtree},
	{ebiten.KeyB, render.ActionToggleBroadPhase},
}

// Colors used by Draw
var (
	QuadtreeColor = color.RGBA{80, 80, 80, 255}
	ColliderColor = color.RGBA{0, 255, 0, 255}
)

// Game implements ebiten.Game for a world.
type Game struct {
	manager *engine.Manager
	logger  *logging.Logger
	proj    Projection
	follow  string

	Controls *render.Controls
}

// NewGame creates a game showing m in a window of width by height pixels.
// follow names the entity kept in the middle of the view and may be empty.
func NewGame(m *engine.Manager, logger *logging.Logger, width, height int, follow string) *Game {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Game{
		manager:  m,
		logger:   logger.Component("ebiten"),
		proj:     Projection{Zoom: 10, Width: width, Height: height},
		follow:   follow,
		Controls: render.NewControls(m),
	}
}

// Projection returns the current view
func (g *Game) Projection() Projection {
	return g.proj
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	for _, k := range keyActions {
		if inpututil.IsKeyJustPressed(k.key) {
			g.Controls.Apply(k.action)
		}
	}
	if ebiten.IsKeyPressed(ebiten.KeyI) {
		g.proj.Zoom = min(g.proj.Zoom*1.02, 100)
	}
	if ebiten.IsKeyPressed(ebiten.KeyO) {
		g.proj.Zoom = max(g.proj.Zoom*0.98, 1)
	}
	g.advance(1 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) advance(dt float64) {
	g.Controls.Advance(g.manager, dt)
	if g.follow == "" {
		return
	}
	if e := g.manager.FindByName(g.follow); e != nil {
		g.proj.Center = e.Translation()
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	g.drawTo(imageCanvas{dst: screen})

	s := g.manager.GetStats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s  entities %d  steps %d  clamped %d  paused %t",
		g.manager.Config().Name, s.Entities, s.Steps, s.Clamped, g.Controls.Paused))
}

func (g *Game) drawTo(c Canvas) {
	d := NewVectorDrawer(c, g.proj)
	if g.Controls.DrawQuadtree {
		d.Color = QuadtreeColor
		g.manager.DrawQuadtree(d)
	}
	if g.Controls.DrawColliders {
		d.Color = ColliderColor
		g.manager.DrawColliders(d)
	}
}

// Layout implements ebiten.Game.
func (g *Game) Layout(int, int) (int, int) {
	return g.proj.Width, g.proj.Height
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run(title string) error {
	ebiten.SetWindowSize(g.proj.Width, g.proj.Height)
	ebiten.SetWindowTitle(title)
	g.logger.Info(context.Background(), "Opening window",
		"title", title,
		"width", g.proj.Width,
		"height", g.proj.Height,
	)
	return ebiten.RunGame(g)
}

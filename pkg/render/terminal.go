// pkg/render/terminal.go
package render

import (
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/physics"
)

// Glyphs used for the terminal debug view
const (
	glyphCircle = 'o'
	glyphCorner = '+'
	glyphHoriz  = '-'
	glyphVert   = '|'
	glyphLine   = '*'
	glyphEmpty  = ' '
)

// Styles used by DrawWorld
var (
	ColliderStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	QuadtreeStyle = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
)

type terminalCell struct {
	ch    rune
	style tcell.Style
}

// TerminalRenderer rasterises debug shapes into a character buffer and
// presents it on a tcell screen. One cell covers scale world units; world
// y grows upwards, screen rows grow downwards.
type TerminalRenderer struct {
	width     int
	height    int
	buffer    [][]terminalCell
	scale     float64
	centerPos physics.Vector2D
	style     tcell.Style
}

// NewTerminalRenderer creates a new terminal renderer with the specified dimensions
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	if scale <= 0 {
		scale = 1
	}
	r := &TerminalRenderer{scale: scale, style: tcell.StyleDefault}
	r.Resize(width, height)
	return r
}

// Resize reallocates the buffer, for example after a terminal resize event.
func (r *TerminalRenderer) Resize(width, height int) {
	r.width, r.height = max(width, 0), max(height, 0)
	r.buffer = make([][]terminalCell, r.height)
	for i := range r.buffer {
		r.buffer[i] = make([]terminalCell, r.width)
	}
	r.Clear()
}

// Size returns the buffer size in cells
func (r *TerminalRenderer) Size() (int, int) {
	return r.width, r.height
}

// SetCenter sets the world position shown at the middle of the view
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// SetScale sets how many world units one cell covers
func (r *TerminalRenderer) SetScale(scale float64) {
	if scale > 0 {
		r.scale = scale
	}
}

// Scale returns how many world units one cell covers
func (r *TerminalRenderer) Scale() float64 {
	return r.scale
}

// SetStyle sets the style of subsequently drawn cells
func (r *TerminalRenderer) SetStyle(style tcell.Style) {
	r.style = style
}

// worldToScreen converts world coordinates to cell coordinates
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	x := (pos.X-r.centerPos.X)/r.scale + float64(r.width)/2
	y := float64(r.height)/2 - (pos.Y-r.centerPos.Y)/r.scale
	return int(math.Floor(x)), int(math.Floor(y))
}

// Clear blanks the buffer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = terminalCell{ch: glyphEmpty, style: tcell.StyleDefault}
		}
	}
}

func (r *TerminalRenderer) plot(x, y int, ch rune) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	r.buffer[y][x] = terminalCell{ch: ch, style: r.style}
}

// Text writes s from cell (x, y) rightwards, clipped to the buffer
func (r *TerminalRenderer) Text(x, y int, s string) {
	for _, ch := range s {
		r.plot(x, y, ch)
		x++
	}
}

// Cell returns the glyph at a cell, or 0 outside the buffer
func (r *TerminalRenderer) Cell(x, y int) rune {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return 0
	}
	return r.buffer[y][x].ch
}

// DrawCircle plots the outline of a circle
func (r *TerminalRenderer) DrawCircle(center physics.Vector2D, radius float64) {
	cells := radius / r.scale
	samples := max(8, int(math.Ceil(2*math.Pi*cells*2)))
	for i := 0; i < samples; i++ {
		p := center.Add(physics.FromAngle(2*math.Pi*float64(i)/float64(samples), radius))
		x, y := r.worldToScreen(p)
		r.plot(x, y, glyphCircle)
	}
}

// DrawRectangle plots the outline of an axis-aligned rectangle
func (r *TerminalRenderer) DrawRectangle(rect physics.BoundingRectangle) {
	left, top := r.worldToScreen(physics.Vector2D{X: rect.Left(), Y: rect.Top()})
	right, bottom := r.worldToScreen(physics.Vector2D{X: rect.Right(), Y: rect.Bottom()})

	for x := left + 1; x < right; x++ {
		r.plot(x, top, glyphHoriz)
		r.plot(x, bottom, glyphHoriz)
	}
	for y := top + 1; y < bottom; y++ {
		r.plot(left, y, glyphVert)
		r.plot(right, y, glyphVert)
	}
	r.plot(left, top, glyphCorner)
	r.plot(right, top, glyphCorner)
	r.plot(left, bottom, glyphCorner)
	r.plot(right, bottom, glyphCorner)
}

// DrawLine plots a segment cell by cell
func (r *TerminalRenderer) DrawLine(start, end physics.Vector2D) {
	x0, y0 := r.worldToScreen(start)
	x1, y1 := r.worldToScreen(end)

	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		r.plot(x0, y0, glyphLine)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		r.plot(x, y, glyphLine)
	}
}

// DrawWorld clears the buffer and draws the debug layers of m enabled in
// c, quadtree nodes first. A nil c follows the world configuration.
func (r *TerminalRenderer) DrawWorld(m *engine.Manager, c *Controls) {
	if c == nil {
		c = NewControls(m)
	}
	r.Clear()
	if c.DrawQuadtree {
		r.SetStyle(QuadtreeStyle)
		m.DrawQuadtree(r)
	}
	if c.DrawColliders {
		r.SetStyle(ColliderStyle)
		m.DrawColliders(r)
	}
	r.SetStyle(tcell.StyleDefault)
}

// Present copies the buffer to screen and shows it
func (r *TerminalRenderer) Present(screen tcell.Screen) {
	screen.Clear()
	for y, row := range r.buffer {
		for x, c := range row {
			screen.SetContent(x, y, c.ch, nil, c.style)
		}
	}
	screen.Show()
}

// String returns the buffer as newline separated rows
func (r *TerminalRenderer) String() string {
	var b strings.Builder
	for y, row := range r.buffer {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			b.WriteRune(c.ch)
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

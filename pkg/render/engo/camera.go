// pkg/render/engo/camera.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/betaframework/pkg/physics"
)

// CameraSystem maps world coordinates onto the window. Zoom is measured in
// pixels per world unit. World y grows upwards, screen y grows downwards.
type CameraSystem struct {
	target    physics.Vector2D
	targetSet bool

	zoom    float32
	minZoom float32
	maxZoom float32

	followSpeed float32
	smoothing   bool

	currentPos physics.Vector2D

	viewWidth  float32
	viewHeight float32
}

// NewCameraSystem creates a camera for a viewport of the given size in pixels
func NewCameraSystem(width, height float32) *CameraSystem {
	return &CameraSystem{
		zoom:        10,
		minZoom:     1,
		maxZoom:     100,
		followSpeed: 2,
		smoothing:   true,
		viewWidth:   width,
		viewHeight:  height,
	}
}

// Remove satisfies the ecs.System interface
func (cs *CameraSystem) Remove(ecs.BasicEntity) {}

// Priority runs the camera before the debug drawing system
func (cs *CameraSystem) Priority() int { return 10 }

// Update handles zoom keys and follows the target
func (cs *CameraSystem) Update(dt float32) {
	cs.handleZoomInput()
	cs.Follow(dt)
}

func (cs *CameraSystem) handleZoomInput() {
	if engo.Input == nil {
		return
	}
	if scrollY := engo.Input.Mouse.ScrollY; scrollY != 0 {
		cs.SetZoom(cs.zoom * (1 + scrollY*0.1))
	}
	if engo.Input.Button(ButtonZoomIn).Down() {
		cs.SetZoom(cs.zoom * 1.02)
	}
	if engo.Input.Button(ButtonZoomOut).Down() {
		cs.SetZoom(cs.zoom * 0.98)
	}
	if engo.Input.Button(ButtonResetZoom).JustPressed() {
		cs.SetZoom(10)
	}
}

// Follow moves the camera towards the target, instantly when smoothing is off
func (cs *CameraSystem) Follow(dt float32) {
	if !cs.targetSet {
		return
	}
	if !cs.smoothing {
		cs.currentPos = cs.target
		return
	}
	step := float64(cs.followSpeed * dt)
	if step > 1 {
		step = 1
	}
	cs.currentPos = cs.currentPos.Lerp(cs.target, step)
}

// SetTarget sets the world position the camera follows. The first target
// is adopted immediately.
func (cs *CameraSystem) SetTarget(target physics.Vector2D) {
	first := !cs.targetSet
	cs.target = target
	cs.targetSet = true
	if first || !cs.smoothing {
		cs.currentPos = target
	}
}

// ClearTarget stops following
func (cs *CameraSystem) ClearTarget() {
	cs.targetSet = false
}

// SetZoom sets the zoom, clamped to the zoom limits
func (cs *CameraSystem) SetZoom(zoom float32) {
	cs.zoom = cs.clampZoom(zoom)
}

// Zoom returns the pixels per world unit
func (cs *CameraSystem) Zoom() float32 {
	return cs.zoom
}

func (cs *CameraSystem) clampZoom(zoom float32) float32 {
	return min(max(zoom, cs.minZoom), cs.maxZoom)
}

// SetZoomLimits sets the minimum and maximum zoom
func (cs *CameraSystem) SetZoomLimits(lo, hi float32) {
	cs.minZoom, cs.maxZoom = lo, hi
	cs.zoom = cs.clampZoom(cs.zoom)
}

// EnableSmoothing enables or disables smooth following
func (cs *CameraSystem) EnableSmoothing(enabled bool) {
	cs.smoothing = enabled
}

// SetViewport sets the window size in pixels
func (cs *CameraSystem) SetViewport(width, height float32) {
	cs.viewWidth, cs.viewHeight = width, height
}

// Position returns the world position at the middle of the viewport
func (cs *CameraSystem) Position() physics.Vector2D {
	return cs.currentPos
}

// WorldToScreen converts world coordinates to pixels
func (cs *CameraSystem) WorldToScreen(p physics.Vector2D) engo.Point {
	rel := p.Sub(cs.currentPos).Scale(float64(cs.zoom))
	return engo.Point{
		X: float32(rel.X) + cs.viewWidth/2,
		Y: cs.viewHeight/2 - float32(rel.Y),
	}
}

// ScreenToWorld converts pixels to world coordinates
func (cs *CameraSystem) ScreenToWorld(p engo.Point) physics.Vector2D {
	rel := physics.Vector2D{
		X: float64(p.X - cs.viewWidth/2),
		Y: float64(cs.viewHeight/2 - p.Y),
	}
	return rel.Scale(1 / float64(cs.zoom)).Add(cs.currentPos)
}

// ScreenLength converts a world distance to pixels
func (cs *CameraSystem) ScreenLength(d float64) float32 {
	return float32(d) * cs.zoom
}

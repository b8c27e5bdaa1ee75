// pkg/render/controls.go
package render

import (
	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/engine"
)

// Action is a viewer command triggered by a key
type Action int

const (
	ActionPause Action = iota
	ActionStep
	ActionToggleColliders
	ActionToggleQuadtree
	ActionToggleBroadPhase
)

// Controls is the viewer state changed by input
type Controls struct {
	Paused        bool
	DrawColliders bool
	DrawQuadtree  bool
	UseQuadtree   bool

	pendingSteps int
}

// TakeStep reports whether a single step was requested while paused and
// consumes the request.
func (c *Controls) TakeStep() bool {
	if c.pendingSteps == 0 {
		return false
	}
	c.pendingSteps--
	return true
}

// Apply changes the controls for one action
func (c *Controls) Apply(a Action) {
	switch a {
	case ActionPause:
		c.Paused = !c.Paused
		c.pendingSteps = 0
	case ActionStep:
		if c.Paused {
			c.pendingSteps++
		}
	case ActionToggleColliders:
		c.DrawColliders = !c.DrawColliders
	case ActionToggleQuadtree:
		c.DrawQuadtree = !c.DrawQuadtree
	case ActionToggleBroadPhase:
		c.UseQuadtree = !c.UseQuadtree
	}
}

// NewControls returns controls initialised from the configuration of m
func NewControls(m *engine.Manager) *Controls {
	debug := m.Config().Debug
	return &Controls{
		DrawColliders: debug.DrawColliders,
		DrawQuadtree:  debug.DrawQuadtree,
		UseQuadtree:   m.UsesQuadtree(),
	}
}

// Advance runs one frame of dt seconds on m. While paused only requested
// single steps run.
func (c *Controls) Advance(m *engine.Manager, dt float64) {
	m.SetUseQuadtree(c.UseQuadtree)
	if c.Paused {
		for c.TakeStep() {
			m.Step()
		}
		return
	}
	m.Update(dt)
}

// Draw draws the enabled debug layers of m to d, quadtree nodes first.
func (c *Controls) Draw(m *engine.Manager, d collider.DebugDrawer) {
	if c.DrawQuadtree {
		m.DrawQuadtree(d)
	}
	if c.DrawColliders {
		m.DrawColliders(d)
	}
}

// pkg/render/engo/input.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/betaframework/pkg/render"
)

// Button names registered by SetupInputBindings
const (
	ButtonPause           = "pause"
	ButtonStep            = "step"
	ButtonToggleColliders = "toggleColliders"
	ButtonToggleQuadtree  = "toggleQuadtree"
	ButtonToggleBroad     = "toggleBroadPhase"
	ButtonZoomIn          = "zoomIn"
	ButtonZoomOut         = "zoomOut"
	ButtonResetZoom       = "resetZoom"
)

var actionButtons = []struct {
	button string
	action render.Action
}{
	{ButtonPause, render.ActionPause},
	{ButtonStep, render.ActionStep},
	{ButtonToggleColliders, render.ActionToggleColliders},
	{ButtonToggleQuadtree, render.ActionToggleQuadtree},
	{ButtonToggleBroad, render.ActionToggleBroadPhase},
}

// InputSystem polls the registered buttons and applies them to the controls
type InputSystem struct {
	controls *render.Controls
}

// NewInputSystem creates an input system driving controls
func NewInputSystem(controls *render.Controls) *InputSystem {
	return &InputSystem{controls: controls}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(ecs.BasicEntity) {}

// Priority runs input before the physics system
func (is *InputSystem) Priority() int { return 30 }

// Update applies every button pressed this frame
func (is *InputSystem) Update(float32) {
	if engo.Input == nil {
		return
	}
	for _, b := range actionButtons {
		if engo.Input.Button(b.button).JustPressed() {
			is.controls.Apply(b.action)
		}
	}
}

// SetupInputBindings registers the viewer key bindings
func SetupInputBindings() {
	engo.Input.RegisterButton(ButtonPause, engo.KeySpace, engo.KeyP)
	engo.Input.RegisterButton(ButtonStep, engo.KeyN)
	engo.Input.RegisterButton(ButtonToggleColliders, engo.KeyC)
	engo.Input.RegisterButton(ButtonToggleQuadtree, engo.KeyQ)
	engo.Input.RegisterButton(ButtonToggleBroad, engo.KeyB)
	engo.Input.RegisterButton(ButtonZoomIn, engo.KeyI)
	engo.Input.RegisterButton(ButtonZoomOut, engo.KeyO)
	engo.Input.RegisterButton(ButtonResetZoom, engo.KeyR)
}

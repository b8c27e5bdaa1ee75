// pkg/render/engo/scene.go
package engo

import (
	"context"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/render"
)

// SceneType is returned by DebugScene.Type
const SceneType = "DebugScene"

// PhysicsSystem advances the world with the frame time unless paused.
type PhysicsSystem struct {
	manager  *engine.Manager
	controls *render.Controls
}

// NewPhysicsSystem creates a system stepping m under controls
func NewPhysicsSystem(m *engine.Manager, controls *render.Controls) *PhysicsSystem {
	return &PhysicsSystem{manager: m, controls: controls}
}

// Remove satisfies the ecs.System interface
func (ps *PhysicsSystem) Remove(ecs.BasicEntity) {}

// Priority runs physics after input and before drawing
func (ps *PhysicsSystem) Priority() int { return 20 }

// Update steps the world. While paused only requested single steps run.
func (ps *PhysicsSystem) Update(dt float32) {
	ps.controls.Advance(ps.manager, float64(dt))
}

// DebugDrawSystem redraws colliders and quadtree nodes every frame.
type DebugDrawSystem struct {
	manager  *engine.Manager
	drawer   *ShapeDrawer
	camera   *CameraSystem
	controls *render.Controls

	// Follow names the entity the camera tracks; empty disables tracking.
	Follow string
}

// NewDebugDrawSystem creates a system drawing m through drawer
func NewDebugDrawSystem(m *engine.Manager, drawer *ShapeDrawer, camera *CameraSystem, controls *render.Controls) *DebugDrawSystem {
	return &DebugDrawSystem{manager: m, drawer: drawer, camera: camera, controls: controls}
}

// Remove satisfies the ecs.System interface
func (ds *DebugDrawSystem) Remove(ecs.BasicEntity) {}

// Update rebuilds the shape entities for this frame
func (ds *DebugDrawSystem) Update(float32) {
	if ds.Follow != "" {
		if e := ds.manager.FindByName(ds.Follow); e != nil {
			ds.camera.SetTarget(e.Translation())
		}
	}

	ds.drawer.Begin()
	ds.controls.Draw(ds.manager, ds.drawer)
	ds.drawer.End()
}

// DebugScene shows a running world with engo.
type DebugScene struct {
	manager *engine.Manager
	logger  *logging.Logger

	width, height float32
	follow        string

	Controls *render.Controls

	camera *CameraSystem
	drawer *ShapeDrawer
	bridge *Bridge
}

// NewDebugScene creates a scene for m. follow names the entity the camera
// tracks and may be empty.
func NewDebugScene(m *engine.Manager, logger *logging.Logger, width, height float32, follow string) *DebugScene {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DebugScene{
		manager:  m,
		logger:   logger.Component("engo"),
		width:    width,
		height:   height,
		follow:   follow,
		Controls: render.NewControls(m),
	}
}

// Type implements engo.Scene.
func (scene *DebugScene) Type() string {
	return SceneType
}

// Preload implements engo.Scene. The debug view has no assets.
func (scene *DebugScene) Preload() {}

// Setup implements engo.Scene.
func (scene *DebugScene) Setup(u engo.Updater) {
	w, ok := u.(*ecs.World)
	if !ok {
		scene.logger.Warn(context.Background(), "Unexpected updater type, scene not set up")
		return
	}
	common.SetBackground(color.Black)
	SetupInputBindings()

	renderSystem := &common.RenderSystem{}
	w.AddSystem(renderSystem)

	scene.camera = NewCameraSystem(scene.width, scene.height)
	scene.drawer = NewShapeDrawer(renderSystem, scene.camera)

	draw := NewDebugDrawSystem(scene.manager, scene.drawer, scene.camera, scene.Controls)
	draw.Follow = scene.follow

	w.AddSystem(NewInputSystem(scene.Controls))
	w.AddSystem(NewPhysicsSystem(scene.manager, scene.Controls))
	w.AddSystem(scene.camera)
	w.AddSystem(draw)

	scene.bridge = NewBridge(scene.manager, engo.Mailbox)
	engo.Mailbox.Listen(CollisionMessageType, func(msg engo.Message) {
		if c, ok := msg.(CollisionMessage); ok {
			scene.logger.Debug(context.Background(), "Collision",
				"event", string(c.Event),
				"entity", c.Entity,
				"other", c.Other,
			)
		}
	})

	scene.logger.Info(context.Background(), "Scene set up",
		"world", scene.manager.Config().Name,
		"entities", len(scene.manager.Entities()),
	)
}

// Exit stops forwarding collision events.
func (scene *DebugScene) Exit() {
	if scene.bridge != nil {
		scene.bridge.Close()
		scene.bridge = nil
	}
	if scene.drawer != nil {
		scene.drawer.Release()
	}
}

// Run opens a window and shows the scene until it is closed.
func Run(scene *DebugScene, title string) {
	engo.Run(engo.RunOptions{
		Title:    title,
		Width:    int(scene.width),
		Height:   int(scene.height),
		FPSLimit: 60,
	}, scene)
}

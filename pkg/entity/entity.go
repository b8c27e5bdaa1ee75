// pkg/entity/entity.go
package entity

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/physics"
)

// Entity is a simulated object: an identity, a transform and optional rigid
// body, collider and mover.
type Entity struct {
	ecs.BasicEntity

	name      string
	transform *physics.Transform
	body      *physics.RigidBody
	collider  *collider.Collider
	mover     *Mover
	active    bool
	destroyed bool
}

// NewEntity creates an active entity at position with unit scale
func NewEntity(name string, position physics.Vector2D) *Entity {
	return &Entity{
		BasicEntity: ecs.NewBasic(),
		name:        name,
		transform:   physics.NewTransform(position, physics.Vector2D{X: 1, Y: 1}),
		active:      true,
	}
}

// Name returns the entity's name
func (e *Entity) Name() string {
	return e.name
}

// SetName renames the entity
func (e *Entity) SetName(name string) {
	e.name = name
}

// Transform returns the entity's transform
func (e *Entity) Transform() *physics.Transform {
	return e.transform
}

// RigidBody returns the rigid body, or nil for static entities
func (e *Entity) RigidBody() *physics.RigidBody {
	return e.body
}

// SetRigidBody attaches a rigid body. Its previous translation starts at the
// current one.
func (e *Entity) SetRigidBody(body *physics.RigidBody) {
	if body != nil {
		body.OldTranslation = e.transform.Translation()
	}
	e.body = body
}

// Collider returns the attached collider, or nil
func (e *Entity) Collider() *collider.Collider {
	return e.collider
}

// SetCollider attaches c to the entity, detaching any previous collider.
func (e *Entity) SetCollider(c *collider.Collider) {
	if e.collider != nil {
		e.collider.Attach(nil)
	}
	e.collider = c
	if c != nil {
		c.Attach(e)
	}
}

// Mover returns the attached kinematic mover, or nil
func (e *Entity) Mover() *Mover {
	return e.mover
}

// SetMover attaches a kinematic mover. Entities with a mover are driven by it
// instead of by integration.
func (e *Entity) SetMover(m *Mover) {
	e.mover = m
}

// Active reports whether the entity takes part in the simulation
func (e *Entity) Active() bool {
	return e.active && !e.destroyed
}

// SetActive enables or disables the entity
func (e *Entity) SetActive(active bool) {
	e.active = active
}

// Destroy marks the entity for removal at the end of the current update.
func (e *Entity) Destroy() {
	e.destroyed = true
}

// IsDestroyed reports whether Destroy was called
func (e *Entity) IsDestroyed() bool {
	return e.destroyed
}

// Translation returns the world position
func (e *Entity) Translation() physics.Vector2D {
	return e.transform.Translation()
}

// SetTranslation teleports the entity. The previous translation is reset so
// no sweep is generated across the jump.
func (e *Entity) SetTranslation(position physics.Vector2D) {
	e.transform.SetTranslation(position)
	if e.body != nil {
		e.body.OldTranslation = position
	}
}

// Velocity returns the linear velocity, zero for static entities
func (e *Entity) Velocity() physics.Vector2D {
	if e.body == nil {
		return physics.Vector2D{}
	}
	return e.body.Velocity
}

// SetVelocity sets the linear velocity. It has no effect without a rigid body.
func (e *Entity) SetVelocity(v physics.Vector2D) {
	if e.body != nil {
		e.body.Velocity = v
	}
}

// Bounds returns the collider bounds, or a box of the entity's scale
// centered on its translation.
func (e *Entity) Bounds() physics.BoundingRectangle {
	if e.collider != nil {
		return e.collider.Bounds()
	}
	return physics.NewBoundingRectangle(e.transform.Translation(), e.transform.Scale().Abs().Scale(0.5))
}

// Integrate advances the rigid body by dt. Entities with a mover or without
// a body do not integrate.
func (e *Entity) Integrate(dt float64, gravity physics.Vector2D) {
	if e.body == nil || e.mover != nil {
		return
	}
	e.body.Integrate(e.transform, dt, gravity)
}

// UpdateMover advances the mover by dt and moves the entity to its new
// position. The previous translation and velocity are derived from the
// motion so swept tests see kinematic movement.
func (e *Entity) UpdateMover(dt float64) {
	if e.mover == nil || dt <= 0 {
		return
	}
	old := e.transform.Translation()
	position := e.mover.Update(dt)
	e.transform.SetTranslation(position)

	if e.body != nil {
		e.body.OldTranslation = old
		e.body.Velocity = position.Sub(old).Scale(1 / dt)
	}
}

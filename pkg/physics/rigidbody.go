// pkg/physics/rigidbody.go
package physics

// RigidBody tracks the motion state of a simulated entity.
type RigidBody struct {
	Velocity        Vector2D
	AngularVelocity float64
	Acceleration    Vector2D
	ForceSum        Vector2D
	InverseMass     float64
	GravityScale    float64
	OldTranslation  Vector2D
}

// NewRigidBody creates a body with the given mass. A non-positive mass
// makes the body immune to forces.
func NewRigidBody(mass float64) *RigidBody {
	body := &RigidBody{GravityScale: 1}
	body.SetMass(mass)
	return body
}

// SetMass sets the mass of the body
func (b *RigidBody) SetMass(mass float64) {
	if mass <= 0 {
		b.InverseMass = 0
		return
	}
	b.InverseMass = 1 / mass
}

// Mass returns the mass, or zero for an immovable body.
func (b *RigidBody) Mass() float64 {
	if b.InverseMass == 0 {
		return 0
	}
	return 1 / b.InverseMass
}

// AddForce accumulates a force for the next integration step.
func (b *RigidBody) AddForce(force Vector2D) {
	b.ForceSum = b.ForceSum.Add(force)
}

// Integrate advances the body and its transform by dt using semi-implicit
// Euler. Forces are converted to acceleration once per call and cleared.
func (b *RigidBody) Integrate(t *Transform, dt float64, gravity Vector2D) {
	b.Acceleration = b.ForceSum.Scale(b.InverseMass).Add(gravity.Scale(b.GravityScale))
	b.ForceSum = Vector2D{}

	b.Velocity = b.Velocity.Add(b.Acceleration.Scale(dt))
	b.OldTranslation = t.Translation()
	t.SetTranslation(t.Translation().Add(b.Velocity.Scale(dt)))
	if b.AngularVelocity != 0 {
		t.SetRotation(t.Rotation() + b.AngularVelocity*dt)
	}
}

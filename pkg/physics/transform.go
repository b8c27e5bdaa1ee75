// pkg/physics/transform.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ComputeMatrix builds the world matrix Translate * Rotate * Scale.
func ComputeMatrix(translation Vector2D, rotation float64, scale Vector2D) mgl64.Mat3 {
	return mgl64.Translate2D(translation.X, translation.Y).
		Mul3(mgl64.HomogRotate2D(rotation)).
		Mul3(mgl64.Scale2D(scale.X, scale.Y))
}

// ComputeInverseMatrix builds the inverse of ComputeMatrix. A zero scale on
// an axis maps to an inverse scale of zero on that axis.
func ComputeInverseMatrix(translation Vector2D, rotation float64, scale Vector2D) mgl64.Mat3 {
	return mgl64.Scale2D(inverseScale(scale.X), inverseScale(scale.Y)).
		Mul3(mgl64.HomogRotate2D(-rotation)).
		Mul3(mgl64.Translate2D(-translation.X, -translation.Y))
}

func inverseScale(s float64) float64 {
	if s == 0 {
		return 0
	}
	return 1 / s
}

// TransformPoint applies an affine matrix to a point.
func TransformPoint(m mgl64.Mat3, p Vector2D) Vector2D {
	v := m.Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	return Vector2D{X: v[0], Y: v[1]}
}

// TransformVector applies the linear part of an affine matrix to a vector.
func TransformVector(m mgl64.Mat3, v Vector2D) Vector2D {
	r := m.Mul3x1(mgl64.Vec3{v.X, v.Y, 0})
	return Vector2D{X: r[0], Y: r[1]}
}

// Transform owns an entity's translation, rotation and non-uniform scale.
// Every setter bumps a generation counter; the matrices are recomputed on
// the first read after a change.
type Transform struct {
	translation Vector2D
	rotation    float64
	scale       Vector2D

	generation  uint64
	computedGen uint64
	computed    bool
	matrix      mgl64.Mat3
	inverse     mgl64.Mat3
}

// NewTransform creates a transform with the given translation and scale.
func NewTransform(translation, scale Vector2D) *Transform {
	return &Transform{translation: translation, scale: scale}
}

// Translation returns the world position
func (t *Transform) Translation() Vector2D { return t.translation }

// Rotation returns the rotation in radians
func (t *Transform) Rotation() float64 { return t.rotation }

// Scale returns the scale
func (t *Transform) Scale() Vector2D { return t.scale }

// Generation returns the number of mutations applied so far.
func (t *Transform) Generation() uint64 { return t.generation }

// SetTranslation sets the translation and invalidates the cached matrices.
func (t *Transform) SetTranslation(translation Vector2D) {
	t.translation = translation
	t.generation++
}

// SetRotation sets the rotation and invalidates the cached matrices.
func (t *Transform) SetRotation(rotation float64) {
	t.rotation = math.Remainder(rotation, 2*math.Pi)
	t.generation++
}

// SetScale sets the scale and invalidates the cached matrices.
func (t *Transform) SetScale(scale Vector2D) {
	t.scale = scale
	t.generation++
}

// Translate moves the transform by delta.
func (t *Transform) Translate(delta Vector2D) {
	t.SetTranslation(t.translation.Add(delta))
}

// Matrix returns the world matrix.
func (t *Transform) Matrix() mgl64.Mat3 {
	t.refresh()
	return t.matrix
}

// InverseMatrix returns the inverse of the world matrix.
func (t *Transform) InverseMatrix() mgl64.Mat3 {
	t.refresh()
	return t.inverse
}

// LocalToWorld converts a local-space point to world space.
func (t *Transform) LocalToWorld(p Vector2D) Vector2D {
	return TransformPoint(t.Matrix(), p)
}

// WorldToLocal converts a world-space point to local space.
func (t *Transform) WorldToLocal(p Vector2D) Vector2D {
	return TransformPoint(t.InverseMatrix(), p)
}

func (t *Transform) refresh() {
	if t.computed && t.computedGen == t.generation {
		return
	}
	t.matrix = ComputeMatrix(t.translation, t.rotation, t.scale)
	t.inverse = ComputeInverseMatrix(t.translation, t.rotation, t.scale)
	t.computedGen = t.generation
	t.computed = true
}

// pkg/entity/mover.go
package entity

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/opd-ai/betaframework/pkg/physics"
)

// MoverMode selects what a mover does after reaching its last waypoint
type MoverMode int

const (
	// MoverOnce stops at the last waypoint.
	MoverOnce MoverMode = iota
	// MoverLoop continues from the last waypoint back to the first.
	MoverLoop
	// MoverPingPong walks the waypoints back and forth.
	MoverPingPong
)

// Mover drives an entity along waypoints. Each leg is eased by a gween
// tween over [0, 1]; positions are interpolated in float64.
type Mover struct {
	waypoints []physics.Vector2D
	duration  float64
	easing    ease.TweenFunc
	mode      MoverMode

	from, to int
	step     int
	elapsed  float64
	progress *gween.Tween
	position physics.Vector2D
	done     bool
}

// NewMover creates a mover that spends legDuration seconds on each leg. A nil
// easing function means linear motion.
func NewMover(mode MoverMode, legDuration float64, easing ease.TweenFunc, waypoints ...physics.Vector2D) *Mover {
	if easing == nil {
		easing = ease.Linear
	}
	m := &Mover{
		waypoints: append([]physics.Vector2D(nil), waypoints...),
		duration:  legDuration,
		easing:    easing,
		mode:      mode,
		step:      1,
	}

	if len(m.waypoints) > 0 {
		m.position = m.waypoints[0]
	}
	if len(m.waypoints) < 2 || legDuration <= 0 {
		m.done = true
		return m
	}
	m.startLeg(0, 1)
	return m
}

// Position returns the current position on the path
func (m *Mover) Position() physics.Vector2D {
	return m.position
}

// Done reports whether a MoverOnce path has finished
func (m *Mover) Done() bool {
	return m.done
}

// Leg returns the indices of the waypoints the mover travels between
func (m *Mover) Leg() (int, int) {
	return m.from, m.to
}

// Update advances the mover by dt seconds and returns the new position.
// Time left over when a leg ends carries into the following legs.
func (m *Mover) Update(dt float64) physics.Vector2D {
	if m.done || dt <= 0 {
		return m.position
	}

	m.elapsed += dt
	for m.elapsed >= m.duration {
		m.elapsed -= m.duration
		m.position = m.waypoints[m.to]
		m.advance()
		if m.done {
			m.elapsed = 0
			return m.position
		}
	}

	t, _ := m.progress.Set(float32(m.elapsed))
	m.position = m.waypoints[m.from].Lerp(m.waypoints[m.to], float64(t))
	return m.position
}

func (m *Mover) advance() {
	last := len(m.waypoints) - 1

	switch m.mode {
	case MoverLoop:
		m.startLeg(m.to, (m.to+1)%len(m.waypoints))
	case MoverPingPong:
		next := m.to + m.step
		if next < 0 || next > last {
			m.step = -m.step
			next = m.to + m.step
		}
		m.startLeg(m.to, next)
	default:
		if m.to == last {
			m.done = true
			return
		}
		m.startLeg(m.to, m.to+1)
	}
}

func (m *Mover) startLeg(from, to int) {
	m.from, m.to = from, to
	m.progress = gween.New(0, 1, float32(m.duration), m.easing)
}

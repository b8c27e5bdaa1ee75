// pkg/engine/manager.go
package engine

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/config"
	"github.com/opd-ai/betaframework/pkg/entity"
	"github.com/opd-ai/betaframework/pkg/event"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/physics"
	"github.com/opd-ai/betaframework/pkg/quadtree"
)

// ErrEntityNotFound is returned when an id does not name a live entity.
var ErrEntityNotFound = errors.New("entity not found")

// Manager owns the entities of a world and advances them in fixed steps.
// It is not safe for concurrent use, except for the statistics accessors.
type Manager struct {
	cfg    *config.WorldConfig
	logger *logging.Logger
	bus    *event.Bus

	entities []*entity.Entity
	byID     map[uint64]*entity.Entity

	tree        *quadtree.Node
	useQuadtree bool

	fixedStep   float64
	maxSteps    int
	gravity     physics.Vector2D
	accumulator float64

	count    atomic.Int64
	frames   atomic.Uint64
	steps    atomic.Uint64
	clamped  atomic.Uint64
	dropped  atomic.Int64
	lastStep atomic.Int64
}

// Stats summarises the step loop
type Stats struct {
	Entities int
	Frames   uint64
	Steps    uint64
	Clamped  uint64
	Dropped  time.Duration
	LastStep time.Time
}

// NewManager creates an empty world. A nil cfg uses the default
// configuration and a nil logger discards output.
func NewManager(cfg *config.WorldConfig, logger *logging.Logger) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	m := &Manager{
		cfg:         cfg,
		logger:      logger.Component("engine").With("world", cfg.Name),
		bus:         event.NewEventBus(),
		byID:        make(map[uint64]*entity.Entity),
		tree:        quadtree.New(cfg.QuadtreeBounds(), cfg.Quadtree.MaxDepth, cfg.Quadtree.Capacity),
		useQuadtree: cfg.Quadtree.Enabled,
		fixedStep:   cfg.Physics.FixedStep,
		maxSteps:    cfg.Physics.MaxStepsPerFrame,
		gravity:     cfg.Physics.Gravity,
	}

	m.logger.Info(context.Background(), "World created",
		"fixed_step", cfg.Step(),
		"max_steps_per_frame", m.maxSteps,
		"quadtree", m.useQuadtree,
	)
	return m, nil
}

// Config returns the configuration the manager was built with
func (m *Manager) Config() *config.WorldConfig {
	return m.cfg
}

// Bus returns the event bus collision and lifecycle events are published on
func (m *Manager) Bus() *event.Bus {
	return m.bus
}

// FixedStep returns the simulation step in seconds
func (m *Manager) FixedStep() float64 {
	return m.fixedStep
}

// Gravity returns the acceleration applied to every rigid body
func (m *Manager) Gravity() physics.Vector2D {
	return m.gravity
}

// SetGravity changes the acceleration applied to every rigid body
func (m *Manager) SetGravity(g physics.Vector2D) {
	m.gravity = g
}

// SetUseQuadtree switches the broad phase between brute force and the
// quadtree. Both report the same collisions.
func (m *Manager) SetUseQuadtree(enabled bool) {
	m.useQuadtree = enabled
}

// UsesQuadtree reports whether the quadtree broad phase is active
func (m *Manager) UsesQuadtree() bool {
	return m.useQuadtree
}

// Quadtree returns the tree built during the last step
func (m *Manager) Quadtree() *quadtree.Node {
	return m.tree
}

// Add registers e with the world. Adding an entity twice has no effect.
func (m *Manager) Add(e *entity.Entity) {
	if e == nil || e.IsDestroyed() {
		return
	}
	if _, ok := m.byID[e.ID()]; ok {
		return
	}
	m.entities = append(m.entities, e)
	m.byID[e.ID()] = e
	m.count.Store(int64(len(m.entities)))
	m.bus.Publish(event.NewEntityEvent(event.EntityAdded, m, e))
}

// Destroy marks the entity with id for removal at the end of the current
// update.
func (m *Manager) Destroy(id uint64) error {
	e := m.Lookup(id)
	if e == nil {
		return ErrEntityNotFound
	}
	e.Destroy()
	return nil
}

// Entities returns the entities that have not been destroyed, in insertion
// order.
func (m *Manager) Entities() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		if !e.IsDestroyed() {
			out = append(out, e)
		}
	}
	return out
}

// Collidables returns the active entities that carry a collider.
func (m *Manager) Collidables() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		if e.Active() && e.Collider() != nil {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the entity with id, or nil when it is unknown or destroyed.
func (m *Manager) Lookup(id uint64) *entity.Entity {
	e, ok := m.byID[id]
	if !ok || e.IsDestroyed() {
		return nil
	}
	return e
}

// FindByName returns the first live entity called name, or nil.
func (m *Manager) FindByName(name string) *entity.Entity {
	for _, e := range m.entities {
		if !e.IsDestroyed() && e.Name() == name {
			return e
		}
	}
	return nil
}

// Update advances the world by dt seconds of real time. Whole fixed steps
// are run from the accumulated time; at most MaxStepsPerFrame run per call
// and any time beyond that is dropped. Non-finite and negative dt are
// ignored. Destroyed entities are removed once the steps are done.
func (m *Manager) Update(dt float64) {
	if dt > 0 && !math.IsInf(dt, 0) {
		m.accumulator += dt
	}

	steps := 0
	for m.accumulator >= m.fixedStep {
		if steps == m.maxSteps {
			m.clampAccumulator(steps)
			break
		}
		m.Step()
		m.accumulator -= m.fixedStep
		steps++
	}

	m.frames.Add(1)
	m.prune()
}

func (m *Manager) clampAccumulator(steps int) {
	remainder := math.Mod(m.accumulator, m.fixedStep)
	dropped := time.Duration((m.accumulator - remainder) * float64(time.Second))
	m.accumulator = remainder

	m.clamped.Add(1)
	m.dropped.Add(int64(dropped))
	m.logger.Warn(context.Background(), "Step limit reached, dropping time",
		"steps", steps,
		"dropped", dropped,
	)
	m.bus.Publish(event.NewStepClampedEvent(m, steps, dropped))
}

// Step runs one fixed step: movers, integration, collision and contact
// bookkeeping.
func (m *Manager) Step() {
	dt := m.fixedStep
	live := m.activeEntities()

	for _, e := range live {
		e.UpdateMover(dt)
	}
	for _, e := range live {
		e.Integrate(dt, m.gravity)
	}

	if m.useQuadtree {
		m.collideQuadtree()
	} else {
		m.collideBruteForce()
	}
	m.endStep()

	m.steps.Add(1)
	m.lastStep.Store(time.Now().UnixNano())
}

func (m *Manager) activeEntities() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		if e.Active() {
			out = append(out, e)
		}
	}
	return out
}

// collideBruteForce tests every unordered pair of collidables once.
func (m *Manager) collideBruteForce() {
	collidables := m.Collidables()
	for i, a := range collidables {
		for _, b := range collidables[i+1:] {
			if !a.Active() {
				break
			}
			if b.Active() {
				m.collide(a, b)
			}
		}
	}
}

// collideQuadtree rebuilds the tree and tests each collidable against its
// nearby candidates. A collider is marked processed once all its pairs have
// been tested, so later entities skip it. Entities outside the tree bounds
// are tested against every collidable first.
func (m *Manager) collideQuadtree() {
	collidables, outside := m.rebuildTree()

	for _, a := range outside {
		for _, b := range collidables {
			if !a.Active() {
				break
			}
			if b != a && b.Active() && !b.Collider().Contacts().Processed() {
				m.collide(a, b)
			}
		}
		a.Collider().Contacts().MarkProcessed()
	}

	seen := make(map[uint64]struct{})
	for _, a := range collidables {
		contacts := a.Collider().Contacts()
		if contacts.Processed() {
			continue
		}
		clear(seen)
		for _, b := range m.tree.Retrieve(sweptBounds(a)) {
			if !a.Active() {
				break
			}
			if b == a || b.Collider().Contacts().Processed() {
				continue
			}
			if _, dup := seen[b.ID()]; dup {
				continue
			}
			seen[b.ID()] = struct{}{}
			if b.Active() {
				m.collide(a, b)
			}
		}
		contacts.MarkProcessed()
	}
}

// rebuildTree fills the quadtree from scratch. It returns the entities it
// was built from and those lying wholly outside the tree bounds.
func (m *Manager) rebuildTree() (collidables, outside []*entity.Entity) {
	collidables = m.Collidables()
	m.tree.Clear()
	for _, e := range collidables {
		rect := sweptBounds(e)
		if m.tree.GetIndex(rect) == quadtree.NoFit {
			outside = append(outside, e)
			continue
		}
		m.tree.InsertRect(e, rect)
	}
	return collidables, outside
}

// sweptBounds covers e at its current position and at the position it held
// before the step.
func sweptBounds(e *entity.Entity) physics.BoundingRectangle {
	bounds := e.Bounds()
	body := e.RigidBody()
	if body == nil {
		return bounds
	}
	delta := body.OldTranslation.Sub(e.Translation())
	if delta.LengthSquared() == 0 {
		return bounds
	}
	before := physics.BoundingRectangle{Center: bounds.Center.Add(delta), Extents: bounds.Extents}
	return bounds.Union(before)
}

// collide runs the narrow phase for a and b and publishes the resulting
// events to both entities.
func (m *Manager) collide(a, b *entity.Entity) {
	contact := collider.Check(a.Collider(), b.Collider())
	if !contact.Colliding {
		return
	}

	m.touch(a, b)
	m.touch(b, a)

	if contact.Map != nil {
		tilemap, target := a, b
		if target.Collider().Kind() == collider.Tilemap {
			tilemap, target = b, a
		}
		hit := contact.Map
		m.bus.Publish(event.NewMapCollisionEvent(m, target, tilemap, hit.Bottom, hit.Top, hit.Left, hit.Right))
	}
}

func (m *Manager) touch(target, other *entity.Entity) {
	switch target.Collider().Contacts().Touch(other.ID()) {
	case collider.Started:
		m.bus.Publish(event.NewCollisionEvent(event.CollisionStarted, m, target, other))
	case collider.Persisted:
		m.bus.Publish(event.NewCollisionEvent(event.CollisionPersisted, m, target, other))
	}
}

// endStep publishes an Ended event for every contact that did not recur
// this step and rotates the contact sets. Pairs involving a destroyed entity
// end silently.
func (m *Manager) endStep() {
	for _, e := range m.entities {
		c := e.Collider()
		if c == nil {
			continue
		}
		contacts := c.Contacts()
		if !e.IsDestroyed() {
			for _, id := range contacts.Ended() {
				other := m.Lookup(id)
				if other == nil {
					continue
				}
				m.bus.Publish(event.NewCollisionEvent(event.CollisionEnded, m, e, other))
			}
		}
		contacts.Rotate()
	}
}

// prune removes destroyed entities and their subscriptions.
func (m *Manager) prune() {
	kept := m.entities[:0]
	removed := 0
	for _, e := range m.entities {
		if !e.IsDestroyed() {
			kept = append(kept, e)
			continue
		}
		delete(m.byID, e.ID())
		m.bus.Publish(event.NewEntityEvent(event.EntityDestroyed, m, e))
		m.bus.UnsubscribeEntity(e.ID())
		removed++
	}
	for i := len(kept); i < len(m.entities); i++ {
		m.entities[i] = nil
	}
	m.entities = kept
	m.count.Store(int64(len(kept)))

	if removed > 0 {
		m.logger.Debug(context.Background(), "Pruned destroyed entities", "count", removed, "remaining", len(kept))
	}
}

// CastRay casts a ray of length distance from start along direction and
// returns every collider it hits, nearest first, each entity at most once.
// Entities named exclude are skipped. A distance of zero or less and an
// empty exclude use the configured defaults.
func (m *Manager) CastRay(start, direction physics.Vector2D, distance float64, exclude string) []quadtree.Hit {
	if distance <= 0 {
		distance = m.cfg.Ray.DefaultDistance
	}
	if exclude == "" {
		exclude = m.cfg.Ray.DefaultExclude
	}
	if direction.LengthSquared() == 0 || distance <= 0 {
		return nil
	}
	ray := physics.NewLineSegment(start, start.Add(direction.Normalize().Scale(distance)))

	var hits []quadtree.Hit
	if m.useQuadtree {
		_, outside := m.rebuildTree()
		hits = castAgainst(m.tree.CastRay(ray, exclude), outside, ray, exclude)
	} else {
		hits = castAgainst(nil, m.Collidables(), ray, exclude)
	}
	return dedupHits(hits)
}

func castAgainst(hits []quadtree.Hit, entities []*entity.Entity, ray physics.LineSegment, exclude string) []quadtree.Hit {
	for _, e := range entities {
		if exclude != "" && e.Name() == exclude {
			continue
		}
		if t, ok := e.Collider().IsIntersectingWith(ray); ok {
			hits = append(hits, quadtree.Hit{Entity: e, T: t})
		}
	}
	return hits
}

func dedupHits(hits []quadtree.Hit) []quadtree.Hit {
	best := make(map[uint64]int, len(hits))
	out := hits[:0]
	for _, h := range hits {
		if i, ok := best[h.Entity.ID()]; ok {
			if h.T < out[i].T {
				out[i].T = h.T
			}
			continue
		}
		best[h.Entity.ID()] = len(out)
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].T != out[j].T {
			return out[i].T < out[j].T
		}
		return out[i].Entity.ID() < out[j].Entity.ID()
	})
	return out
}

// DebugDraw draws the colliders and the quadtree nodes as enabled in the
// configuration.
func (m *Manager) DebugDraw(d collider.DebugDrawer) {
	if m.cfg.Debug.DrawQuadtree {
		m.DrawQuadtree(d)
	}
	if m.cfg.Debug.DrawColliders {
		m.DrawColliders(d)
	}
}

// DrawColliders draws the outline of every active collider.
func (m *Manager) DrawColliders(d collider.DebugDrawer) {
	for _, e := range m.Collidables() {
		e.Collider().DebugDraw(d)
	}
}

// DrawQuadtree draws the bounds of every node of the tree built during the
// last step. Nothing is drawn while the broad phase is brute force.
func (m *Manager) DrawQuadtree(d collider.DebugDrawer) {
	if !m.useQuadtree {
		return
	}
	m.tree.Walk(func(node *quadtree.Node, level int) bool {
		d.DrawRectangle(node.Bounds())
		return true
	})
}

// LastStep returns when the most recent fixed step finished, or the zero
// time before the first step.
func (m *Manager) LastStep() time.Time {
	nanos := m.lastStep.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// FrameStats returns the number of Update calls and how many of them hit
// the step limit.
func (m *Manager) FrameStats() (frames, clamped uint64) {
	return m.frames.Load(), m.clamped.Load()
}

// GetStats returns a snapshot of the step loop counters
func (m *Manager) GetStats() Stats {
	return Stats{
		Entities: int(m.count.Load()),
		Frames:   m.frames.Load(),
		Steps:    m.steps.Load(),
		Clamped:  m.clamped.Load(),
		Dropped:  time.Duration(m.dropped.Load()),
		LastStep: m.LastStep(),
	}
}
